package worktree_test

import (
	"context"
	"testing"

	"github.com/fortytw2/leaktest"
	"github.com/nicolagi/memo/internal/clock"
	"github.com/nicolagi/memo/internal/epoch"
	"github.com/nicolagi/memo/internal/external"
	"github.com/nicolagi/memo/internal/worktree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDirSeq struct {
	entries []external.DirEntry
	i       int
}

func (s *fakeDirSeq) Next(ctx context.Context) (external.DirEntry, bool, error) {
	if s.i >= len(s.entries) {
		return external.DirEntry{}, false, nil
	}
	e := s.entries[s.i]
	s.i++
	return e, true, nil
}

type fakeGitProvider struct {
	entries []external.DirEntry
}

func (p fakeGitProvider) BaseEntries(oid [20]byte) external.LazySeq[external.DirEntry] {
	return &fakeDirSeq{entries: p.entries}
}

func (p fakeGitProvider) BaseText(ctx context.Context, oid [20]byte, path string) (string, error) {
	return "", nil
}

func drain(t *testing.T, seq external.LazySeq[epoch.Op]) []epoch.Op {
	t.Helper()
	var ops []epoch.Op
	ctx := context.Background()
	for {
		op, ok, err := seq.Next(ctx)
		require.NoError(t, err)
		if !ok {
			return ops
		}
		ops = append(ops, op)
	}
}

func newReplica(t *testing.T) clock.ReplicaID {
	t.Helper()
	id, err := clock.NewReplicaID()
	require.NoError(t, err)
	return id
}

func TestNewLoadsBaselineAndCreatesFile(t *testing.T) {
	defer leaktest.Check(t)()
	git := fakeGitProvider{entries: []external.DirEntry{
		{Depth: 0, Name: "docs", Type: epoch.Directory},
		{Depth: 1, Name: "readme.txt", Type: epoch.Text},
	}}
	w, stream, err := worktree.New(newReplica(t), [20]byte{}, nil, worktree.WithGitProvider(git))
	require.NoError(t, err)
	require.NotNil(t, stream)
	ops := drain(t, stream)
	require.Len(t, ops, 1)
	assert.Equal(t, epoch.OpStartEpoch, ops[0].Kind)

	_, err = w.CreateFile("docs/notes.txt", epoch.Text)
	require.NoError(t, err)
}

func TestCreateRenameRemove(t *testing.T) {
	w, stream, err := worktree.New(newReplica(t), [20]byte{}, nil, worktree.WithGitProvider(fakeGitProvider{}))
	require.NoError(t, err)
	drain(t, stream)

	_, err = w.CreateFile("a.txt", epoch.Text)
	require.NoError(t, err)

	_, err = w.Rename("a.txt", "b.txt")
	require.NoError(t, err)

	_, err = w.Remove("b.txt")
	require.NoError(t, err)
}

func TestApplyOpsDefersFutureEpoch(t *testing.T) {
	w, stream, err := worktree.New(newReplica(t), [20]byte{}, nil, worktree.WithGitProvider(fakeGitProvider{}))
	require.NoError(t, err)
	drain(t, stream)

	replica := newReplica(t)
	futureInsert := epoch.Op{
		Kind:      epoch.OpInsertText,
		OpID:      clock.Local{Replica: replica, Counter: 1},
		Timestamp: clock.Lamport{Value: 1, Replica: replica},
		NewFileID: clock.NewFileID(clock.Local{Replica: replica, Counter: 2}),
		ParentID:  clock.RootFileID,
		Name:      "future.txt",
		EpochID:   w.CurrentEpoch() + 1,
	}
	_, err = w.ApplyOps([]epoch.Op{futureInsert})
	require.NoError(t, err)

	startNext := epoch.Op{
		Kind:    epoch.OpStartEpoch,
		EpochID: w.CurrentEpoch() + 1,
	}
	_, err = w.ApplyOps([]epoch.Op{startNext})
	require.NoError(t, err)
	assert.Equal(t, futureInsert.EpochID, w.CurrentEpoch())
}
