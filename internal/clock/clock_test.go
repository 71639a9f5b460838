package clock_test

import (
	"testing"

	"github.com/nicolagi/memo/internal/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLamportTickIsStrictlyIncreasing(t *testing.T) {
	replica, err := clock.NewReplicaID()
	require.NoError(t, err)
	c := clock.NewLamport(replica)
	first := c.Tick()
	second := c.Tick()
	assert.True(t, first.Less(second))
}

func TestLamportObserveAdvancesPastGreaterRemote(t *testing.T) {
	r1, err := clock.NewReplicaID()
	require.NoError(t, err)
	r2, err := clock.NewReplicaID()
	require.NoError(t, err)

	local := clock.NewLamport(r1)
	remote := clock.Lamport{Value: 41, Replica: r2}
	local.Observe(remote)
	assert.Equal(t, uint64(42), local.Value)

	next := local.Tick()
	assert.True(t, remote.Less(next))
}

func TestLamportObserveAdvancesPastLocalWhenLocalIsAhead(t *testing.T) {
	r1, err := clock.NewReplicaID()
	require.NoError(t, err)
	r2, err := clock.NewReplicaID()
	require.NoError(t, err)

	local := clock.Lamport{Value: 100, Replica: r1}
	local.Observe(clock.Lamport{Value: 3, Replica: r2})
	assert.Equal(t, uint64(101), local.Value)
}

func TestLamportMaxSentinelOutranksAnyTick(t *testing.T) {
	replica, err := clock.NewReplicaID()
	require.NoError(t, err)
	c := clock.NewLamport(replica)
	for i := 0; i < 1000; i++ {
		c.Tick()
	}
	assert.True(t, c.Value < clock.Max.Value)
}

func TestFileIDOrdering(t *testing.T) {
	replica, err := clock.NewReplicaID()
	require.NoError(t, err)

	root := clock.RootFileID
	base1 := clock.BaseFileID(1)
	localClock := clock.NewLocal(replica)
	newID := clock.NewFileID(localClock.Tick())

	assert.True(t, root.Less(base1))
	assert.True(t, base1.Less(newID))
	assert.False(t, newID.Less(base1))
	assert.True(t, root.IsRoot())
	assert.False(t, base1.IsRoot())
}

func TestFileIDEqual(t *testing.T) {
	a := clock.BaseFileID(7)
	b := clock.BaseFileID(7)
	c := clock.BaseFileID(8)
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestReplicaIDHexRoundTrip(t *testing.T) {
	id, err := clock.NewReplicaID()
	require.NoError(t, err)
	parsed, err := clock.ReplicaIDFromHex(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}
