package worktree

import (
	"context"

	"github.com/nicolagi/memo/internal/epoch"
	"github.com/nicolagi/memo/internal/external"
	"golang.org/x/sync/errgroup"
)

// startBaselineLoad drives the git provider's DirEntry sequence to
// completion on a background goroutine, using errgroup to propagate the
// first error, and returns a LazySeq the caller polls cooperatively. The
// first item yielded is always a StartEpoch op for the epoch just created; the
// background goroutine accumulates the baseline stream and applies it to
// the current epoch in a single AppendBaseEntries call once the provider
// is exhausted — the ancestor-stack bookkeeping AppendBaseEntries needs to
// resolve parents only makes sense across a single call, so this trades
// the literal per-chunk wave for a single wave applied after the
// (possibly slow, network-bound) read completes. Dropping the stream
// does not stop the background read: it still runs to completion and
// applies its entries, and nothing already applied is rolled back.
func (w *WorkTree) startBaselineLoad(oid [20]byte) (external.LazySeq[epoch.Op], error) {
	if w.git == nil {
		return nil, errorf("startBaselineLoad", "no git provider configured")
	}
	startOp := epoch.Op{
		Kind:      epoch.OpStartEpoch,
		OpID:      w.local.Tick(),
		Timestamp: w.clock.Tick(),
		EpochID:   w.current.ID,
	}

	seq := w.git.BaseEntries(oid)
	out := make(chan epoch.Op, 1)
	out <- startOp

	g, ctx := errgroup.WithContext(context.Background())
	g.Go(func() error {
		defer close(out)
		return w.loadBaseline(ctx, seq)
	})

	return &opsSeq{ch: out, g: g}, nil
}

func (w *WorkTree) loadBaseline(ctx context.Context, seq external.LazySeq[external.DirEntry]) error {
	var entries []epoch.BaseEntry
	for {
		entry, ok, err := seq.Next(ctx)
		if err != nil {
			return errorf("loadBaseline", "%v", err)
		}
		if !ok {
			break
		}
		entries = append(entries, epoch.BaseEntry{Depth: entry.Depth, Name: entry.Name, Type: entry.Type})
	}
	if err := w.current.AppendBaseEntries(&sliceBaselineStream{entries: entries}); err != nil {
		return errorf("loadBaseline", "%v", err)
	}
	return nil
}

type sliceBaselineStream struct {
	entries []epoch.BaseEntry
	i       int
}

func (s *sliceBaselineStream) Next() (epoch.BaseEntry, bool, error) {
	if s.i >= len(s.entries) {
		return epoch.BaseEntry{}, false, nil
	}
	e := s.entries[s.i]
	s.i++
	return e, true, nil
}

// opsSeq adapts a channel plus the errgroup draining it into an
// external.LazySeq[epoch.Op]: Next blocks until an op is ready, the
// channel closes (at which point the group's first error, if any, is
// returned), or ctx is cancelled.
type opsSeq struct {
	ch <-chan epoch.Op
	g  *errgroup.Group
}

func (s *opsSeq) Next(ctx context.Context) (epoch.Op, bool, error) {
	select {
	case op, ok := <-s.ch:
		if !ok {
			return epoch.Op{}, false, s.g.Wait()
		}
		return op, true, nil
	case <-ctx.Done():
		return epoch.Op{}, false, ctx.Err()
	}
}
