package worktree

import (
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/nicolagi/memo/internal/epoch"
	"github.com/nicolagi/memo/internal/opqueue"
)

// ApplyOps routes each op by its epoch id against the work tree's current
// epoch: an op for an older epoch is discarded, an op for the current
// epoch is integrated immediately, and an op for a newer epoch is deferred
// until its StartEpoch arrives. It returns every fix-up operation
// generated by integrating ops into the current epoch.
func (w *WorkTree) ApplyOps(ops []epoch.Op) ([]epoch.Op, error) {
	var fixups []epoch.Op
	for _, op := range ops {
		more, err := w.applyOne(op)
		if err != nil {
			return fixups, err
		}
		fixups = append(fixups, more...)
	}
	return fixups, nil
}

func (w *WorkTree) applyOne(op epoch.Op) ([]epoch.Op, error) {
	if op.Kind == epoch.OpStartEpoch {
		return w.startEpoch(op)
	}

	target := w.current.ID
	switch {
	case op.EpochID < target:
		return nil, nil
	case op.EpochID > target:
		if err := w.deferQueue(op.EpochID).Insert(op); err != nil {
			return nil, errorf("applyOne", "%v", err)
		}
		return nil, nil
	default:
		return w.current.IntegrateOp(op)
	}
}

// startEpoch swaps in a fresh epoch for op.EpochID (if it is newer than
// current), drains any operations that had been deferred for it, and
// garbage-collects buckets for ids the new epoch has superseded.
func (w *WorkTree) startEpoch(op epoch.Op) ([]epoch.Op, error) {
	if op.EpochID <= w.current.ID {
		return nil, nil
	}
	log.WithFields(log.Fields{"from": w.current.ID, "to": op.EpochID}).Info("starting epoch")
	w.current = epoch.New(op.EpochID, &w.clock, &w.local, w.epochOptions()...)
	w.gcDeferredBelow(op.EpochID)

	q, ok := w.deferred[op.EpochID]
	if !ok {
		return nil, nil
	}
	delete(w.deferred, op.EpochID)
	pending, err := q.Drain()
	if err != nil {
		return nil, errorf("startEpoch", "%v", err)
	}
	var fixups []epoch.Op
	for _, pop := range pending {
		more, err := w.current.IntegrateOp(pop)
		if err != nil {
			return fixups, errorf("startEpoch", "draining deferred op: %v", err)
		}
		fixups = append(fixups, more...)
	}
	return fixups, nil
}

func (w *WorkTree) deferQueue(epochID uint64) *opqueue.Queue {
	q, ok := w.deferred[epochID]
	if !ok {
		q = opqueue.New()
		w.deferred[epochID] = q
	}
	return q
}

// splitDirBase splits a slash-separated path into its parent directory
// (empty for a top-level name) and final component.
func splitDirBase(path string) (dir, base string) {
	path = strings.Trim(path, "/")
	i := strings.LastIndex(path, "/")
	if i < 0 {
		return "", path
	}
	return path[:i], path[i+1:]
}
