package opqueue_test

import (
	"testing"

	"github.com/nicolagi/memo/internal/clock"
	"github.com/nicolagi/memo/internal/epoch"
	"github.com/nicolagi/memo/internal/opqueue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOp(t *testing.T, value uint64, epochID uint64) epoch.Op {
	t.Helper()
	replica, err := clock.NewReplicaID()
	require.NoError(t, err)
	return epoch.Op{
		Kind:      epoch.OpInsertText,
		Timestamp: clock.Lamport{Value: value, Replica: replica},
		EpochID:   epochID,
	}
}

func TestQueueInsertOrdersByTimestamp(t *testing.T) {
	q := opqueue.New()
	require.NoError(t, q.Insert(testOp(t, 3, 0)))
	require.NoError(t, q.Insert(testOp(t, 1, 0)))
	require.NoError(t, q.Insert(testOp(t, 2, 0)))
	assert.Equal(t, 3, q.Len())

	drained, err := q.Drain()
	require.NoError(t, err)
	require.Len(t, drained, 3)
	assert.Equal(t, uint64(1), drained[0].Timestamp.Value)
	assert.Equal(t, uint64(2), drained[1].Timestamp.Value)
	assert.Equal(t, uint64(3), drained[2].Timestamp.Value)
	assert.Equal(t, 0, q.Len())
}

func TestQueueInsertDeduplicatesByTimestamp(t *testing.T) {
	q := opqueue.New()
	op := testOp(t, 5, 0)
	require.NoError(t, q.Insert(op))
	replaced := op
	replaced.EpochID = 42
	require.NoError(t, q.Insert(replaced))
	assert.Equal(t, 1, q.Len())

	drained, err := q.Drain()
	require.NoError(t, err)
	require.Len(t, drained, 1)
	assert.Equal(t, uint64(42), drained[0].EpochID)
}

func TestQueueDrainIfKeepsNonMatching(t *testing.T) {
	q := opqueue.New()
	require.NoError(t, q.Insert(testOp(t, 1, 1)))
	require.NoError(t, q.Insert(testOp(t, 2, 2)))
	require.NoError(t, q.Insert(testOp(t, 3, 2)))

	drained, err := q.DrainIf(func(op epoch.Op) bool { return op.EpochID == 2 })
	require.NoError(t, err)
	assert.Len(t, drained, 2)
	assert.Equal(t, 1, q.Len())

	remaining, err := q.Drain()
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, uint64(1), remaining[0].EpochID)
}
