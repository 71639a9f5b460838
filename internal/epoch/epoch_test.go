package epoch_test

import (
	"testing"

	"github.com/nicolagi/memo/internal/clock"
	"github.com/nicolagi/memo/internal/epoch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type replicaClocks struct {
	replica clock.ReplicaID
	lamport clock.Lamport
	local   clock.Local
}

func newReplicaClocks(t *testing.T) *replicaClocks {
	t.Helper()
	replica, err := clock.NewReplicaID()
	require.NoError(t, err)
	return &replicaClocks{
		replica: replica,
		lamport: clock.NewLamport(replica),
		local:   clock.NewLocal(replica),
	}
}

func newEpoch(t *testing.T) (*epoch.Epoch, *replicaClocks) {
	t.Helper()
	rc := newReplicaClocks(t)
	return epoch.New(1, &rc.lamport, &rc.local), rc
}

type sliceStream struct {
	entries []epoch.BaseEntry
	i       int
}

func (s *sliceStream) Next() (epoch.BaseEntry, bool, error) {
	if s.i >= len(s.entries) {
		return epoch.BaseEntry{}, false, nil
	}
	e := s.entries[s.i]
	s.i++
	return e, true, nil
}

func TestAppendBaseEntriesBuildsTreeAndResolvesPaths(t *testing.T) {
	e, _ := newEpoch(t)
	stream := &sliceStream{entries: []epoch.BaseEntry{
		{Depth: 0, Name: "docs", Type: epoch.Directory},
		{Depth: 1, Name: "readme.txt", Type: epoch.Text},
		{Depth: 1, Name: "guide.txt", Type: epoch.Text},
		{Depth: 0, Name: "src", Type: epoch.Directory},
		{Depth: 1, Name: "main.go", Type: epoch.Text},
	}}
	require.NoError(t, e.AppendBaseEntries(stream))

	stats, err := e.Stats()
	require.NoError(t, err)
	assert.Equal(t, 6, stats.MetadataEntries) // 5 baseline entries + the ROOT entry seeded by New
	assert.Equal(t, 5, stats.ParentRefs)
	assert.Equal(t, 5, stats.ChildRefs)

	id, err := e.IDForPath("/src/main.go")
	require.NoError(t, err)
	path, err := e.PathForID(id)
	require.NoError(t, err)
	assert.Equal(t, "/src/main.go", path)

	_, err = e.IDForPath("/nope")
	assert.ErrorIs(t, err, epoch.ErrInvalidPath)
}

func TestAppendBaseEntriesRejectsBadDepthJump(t *testing.T) {
	e, _ := newEpoch(t)
	stream := &sliceStream{entries: []epoch.BaseEntry{
		{Depth: 0, Name: "a", Type: epoch.Text},
		{Depth: 2, Name: "b", Type: epoch.Text},
	}}
	assert.Error(t, e.AppendBaseEntries(stream))
}
