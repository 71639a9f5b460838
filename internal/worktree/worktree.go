// Package worktree implements the outermost façade: it owns the current
// epoch, a map of operations deferred until a future epoch starts, the
// shared clocks every local operation is stamped with, and forwards
// text-buffer operations to the external collaborator.
package worktree

import (
	"github.com/nicolagi/memo/internal/clock"
	"github.com/nicolagi/memo/internal/epoch"
	"github.com/nicolagi/memo/internal/external"
	"github.com/nicolagi/memo/internal/opqueue"
)

// WorkTree is the façade every caller (a wire-protocol server, a CLI, a
// test) drives. All of its methods are called from a single logical task
// and never block; the concurrency discipline is the caller's to enforce.
type WorkTree struct {
	replica clock.ReplicaID
	clock   clock.Lamport
	local   clock.Local

	git    external.GitProvider
	buffer external.TextBuffer

	current *epoch.Epoch

	// deferred buckets operations that named an epoch id greater than
	// current's, keyed by that id, until a StartEpoch for it arrives.
	deferred map[uint64]*opqueue.Queue

	opts []epochOptionSet
}

// epochOptionSet holds the node-store options every fresh epoch is
// constructed with (the persistence seam), so Reset/StartEpoch handling
// can rebuild an Epoch without the caller re-specifying them.
type epochOptionSet struct {
	opts []epoch.EpochOption
}

// Option configures a fresh WorkTree.
type Option func(*WorkTree)

// WithGitProvider supplies the baseline source for New/Reset.
func WithGitProvider(g external.GitProvider) Option {
	return func(w *WorkTree) { w.git = g }
}

// WithTextBuffer supplies the external text-buffer CRDT OpenTextFile/Edit
// forward to.
func WithTextBuffer(b external.TextBuffer) Option {
	return func(w *WorkTree) { w.buffer = b }
}

// WithEpochOptions supplies options (e.g. WithNodeStores) every epoch this
// work tree constructs — the initial one and any created by Reset or a
// remote StartEpoch — is built with.
func WithEpochOptions(opts ...epoch.EpochOption) Option {
	return func(w *WorkTree) { w.opts = append(w.opts, epochOptionSet{opts: opts}) }
}

func (w *WorkTree) epochOptions() []epoch.EpochOption {
	var out []epoch.EpochOption
	for _, s := range w.opts {
		out = append(out, s.opts...)
	}
	return out
}

// New constructs a work tree for replica. If initialOps is empty, it mints
// a fresh epoch (id 1) and returns a lazy stream that, when driven to
// completion, loads the baseline at baselineOID into it. Otherwise it
// replays initialOps (which must include at least one StartEpoch) via
// ApplyOps and returns no stream.
func New(replica clock.ReplicaID, baselineOID [20]byte, initialOps []epoch.Op, opts ...Option) (*WorkTree, external.LazySeq[epoch.Op], error) {
	w := &WorkTree{
		replica:  replica,
		clock:    clock.NewLamport(replica),
		local:    clock.NewLocal(replica),
		deferred: make(map[uint64]*opqueue.Queue),
	}
	for _, o := range opts {
		o(w)
	}

	if len(initialOps) == 0 {
		w.current = epoch.New(1, &w.clock, &w.local, w.epochOptions()...)
		stream, err := w.startBaselineLoad(baselineOID)
		if err != nil {
			return nil, nil, err
		}
		return w, stream, nil
	}

	w.current = epoch.New(0, &w.clock, &w.local, w.epochOptions()...)
	if _, err := w.ApplyOps(initialOps); err != nil {
		return nil, nil, errorf("New", "%v", err)
	}
	return w, nil, nil
}

// Reset mints a new epoch id, starts it, and returns a lazy stream whose
// only item is the StartEpoch op for the new epoch. The baseline at newOID
// is read in the background and applied in a single AppendBaseEntries
// call once the provider is exhausted; the stream ends when that call
// returns. The baseline is not applied chunk by chunk, and the stream
// yields no fix-up operations. Dropping the stream before it's exhausted
// is safe: nothing already applied is rolled back.
func (w *WorkTree) Reset(newOID [20]byte) (external.LazySeq[epoch.Op], error) {
	nextID := w.current.ID + 1
	w.current = epoch.New(nextID, &w.clock, &w.local, w.epochOptions()...)
	w.gcDeferredBelow(nextID)
	return w.startBaselineLoad(newOID)
}

// gcDeferredBelow discards deferred-op buckets for epoch ids below id:
// operations for any epoch this work tree has already superseded will
// never apply.
func (w *WorkTree) gcDeferredBelow(id uint64) {
	for bucket := range w.deferred {
		if bucket < id {
			delete(w.deferred, bucket)
		}
	}
}

// CreateFile mints and integrates an insert operation for a new file named
// by the last component of path, under the directory named by the rest.
func (w *WorkTree) CreateFile(path string, typ epoch.FileType) (epoch.Op, error) {
	parent, name, err := w.splitNewPath(path)
	if err != nil {
		return epoch.Op{}, err
	}
	kind := epoch.OpInsertDir
	if typ == epoch.Text {
		kind = epoch.OpInsertText
	}
	op := epoch.Op{
		Kind:      kind,
		OpID:      w.local.Tick(),
		Timestamp: w.clock.Tick(),
		NewFileID: clock.NewFileID(w.local.Tick()),
		ParentID:  parent,
		Name:      name,
	}
	if _, err := w.current.IntegrateOp(op); err != nil {
		return epoch.Op{}, errorf("CreateFile", "%v", err)
	}
	return op, nil
}

// Rename moves the file at oldPath to newPath, both resolved against the
// current epoch.
func (w *WorkTree) Rename(oldPath, newPath string) (epoch.Op, error) {
	id, err := w.current.IDForPath(oldPath)
	if err != nil {
		return epoch.Op{}, errorf("Rename", "%v", err)
	}
	return w.updateParent(id, newPath)
}

// Remove deletes the file at path: its parent-reference is superseded by
// one with no slot.
func (w *WorkTree) Remove(path string) (epoch.Op, error) {
	id, err := w.current.IDForPath(path)
	if err != nil {
		return epoch.Op{}, errorf("Remove", "%v", err)
	}
	prev, ok, err := w.current.ExportCurrentParentRef(id)
	if err != nil {
		return epoch.Op{}, errorf("Remove", "%v", err)
	}
	if !ok {
		return epoch.Op{}, epoch.ErrUnknownFile
	}
	op := epoch.Op{
		Kind:          epoch.OpUpdateParent,
		OpID:          w.local.Tick(),
		Timestamp:     w.clock.Tick(),
		Child:         id,
		PrevTimestamp: prev.Timestamp,
		NewParent:     epoch.Slot{Valid: false},
	}
	if _, err := w.current.IntegrateOp(op); err != nil {
		return epoch.Op{}, errorf("Remove", "%v", err)
	}
	return op, nil
}

func (w *WorkTree) updateParent(id clock.FileID, newPath string) (epoch.Op, error) {
	parent, name, err := w.splitNewPath(newPath)
	if err != nil {
		return epoch.Op{}, err
	}
	prev, ok, err := w.current.ExportCurrentParentRef(id)
	if err != nil {
		return epoch.Op{}, errorf("updateParent", "%v", err)
	}
	if !ok {
		return epoch.Op{}, epoch.ErrUnknownFile
	}
	op := epoch.Op{
		Kind:          epoch.OpUpdateParent,
		OpID:          w.local.Tick(),
		Timestamp:     w.clock.Tick(),
		Child:         id,
		PrevTimestamp: prev.Timestamp,
		NewParent:     epoch.Slot{Parent: parent, Name: name, Valid: true},
	}
	if _, err := w.current.IntegrateOp(op); err != nil {
		return epoch.Op{}, errorf("updateParent", "%v", err)
	}
	return op, nil
}

// splitNewPath resolves path's directory component to a FileID and
// returns it along with the final path component.
func (w *WorkTree) splitNewPath(path string) (clock.FileID, string, error) {
	dir, name := splitDirBase(path)
	parent := clock.RootFileID
	if dir != "" {
		id, err := w.current.IDForPath(dir)
		if err != nil {
			return clock.FileID{}, "", errorf("splitNewPath", "%v", err)
		}
		parent = id
	}
	return parent, name, nil
}

// OpenTextFile forwards to the external text-buffer CRDT.
func (w *WorkTree) OpenTextFile(fileID clock.FileID) (external.BufferHandle, error) {
	return w.buffer.Open(fileID)
}

// Edit forwards a text edit to the buffer handle and returns the resulting
// operation.
func (w *WorkTree) Edit(handle external.BufferHandle, ranges []external.Point, text string) (external.EditOp, error) {
	return handle.Edit(ranges, text)
}

// CurrentEpoch returns the id of the epoch currently being mutated.
func (w *WorkTree) CurrentEpoch() uint64 {
	return w.current.ID
}
