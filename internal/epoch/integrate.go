package epoch

import (
	pkgerrors "github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/nicolagi/memo/internal/clock"
	"github.com/nicolagi/memo/internal/sumtree"
)

// IntegrateOp applies op to the three trees, preserving their invariants,
// and returns any fix-up operations name-conflict repair produced. A purely
// local op never needs a fix-up; fix-ups only arise from integrating a
// remote op that creates or resurrects a slot conflict.
func (e *Epoch) IntegrateOp(op Op) ([]Op, error) {
	switch op.Kind {
	case OpInsertDir:
		return e.integrateInsert(op, Directory)
	case OpInsertText:
		return e.integrateInsert(op, Text)
	case OpUpdateParent:
		return e.integrateUpdateParent(op)
	case OpEditText:
		// Forwarded to the external buffer CRDT; this package only needs
		// to know the op exists for queue/deferral bookkeeping.
		return nil, nil
	default:
		return nil, errorf("Epoch.IntegrateOp", "unhandled op kind %v", op.Kind)
	}
}

func (e *Epoch) integrateInsert(op Op, typ FileType) ([]Op, error) {
	meta, err := e.meta.Edit(e.metaStore, []sumtree.EditOp[clock.FileID, MetadataEntry]{
		sumtree.Insert(MetadataEntry{ID: op.NewFileID, Type: typ}, op.NewFileID),
	})
	if err != nil {
		return nil, errorf("Epoch.integrateInsert", "metadata: %v", err)
	}
	e.meta = meta

	parentRef := ParentRef{
		Child:         op.NewFileID,
		Timestamp:     op.Timestamp,
		PrevTimestamp: op.Timestamp,
		OpID:          op.OpID,
		Parent:        Slot{Parent: op.ParentID, Name: op.Name, Valid: true},
	}
	parents, err := sumtree.Interleave[parentKey, countSummary, ParentRef](e.parentStore, e.parents, []ParentRef{parentRef})
	if err != nil {
		return nil, errorf("Epoch.integrateInsert", "parent-reference: %v", err)
	}
	e.parents = parents

	childRef := ChildRef{
		Parent:    op.ParentID,
		Name:      op.Name,
		Timestamp: op.Timestamp,
		Child:     op.NewFileID,
		OpID:      op.OpID,
	}
	children, err := sumtree.Interleave[childKey, childSummary, ChildRef](e.childStore, e.children, []ChildRef{childRef})
	if err != nil {
		return nil, errorf("Epoch.integrateInsert", "child-reference: %v", err)
	}
	e.children = children

	return e.repairNameConflict(op.ParentID, op.Name)
}

// integrateUpdateParent walks op.Child's parent-reference history looking
// for an entry that op either supersedes or is itself superseded by, then
// appends the new parent-reference and (if the file isn't being removed) a
// new child-reference.
func (e *Epoch) integrateUpdateParent(op Op) ([]Op, error) {
	preInvalidated, err := e.walkPriorReferences(op)
	if err != nil {
		return nil, err
	}

	newParentRef := ParentRef{
		Child:         op.Child,
		Timestamp:     op.Timestamp,
		PrevTimestamp: op.PrevTimestamp,
		OpID:          op.OpID,
		Parent:        op.NewParent,
	}
	parents, err := sumtree.Interleave[parentKey, countSummary, ParentRef](e.parentStore, e.parents, []ParentRef{newParentRef})
	if err != nil {
		return nil, errorf("Epoch.integrateUpdateParent", "parent-reference: %v", err)
	}
	e.parents = parents

	if !op.NewParent.Valid {
		return nil, nil
	}

	newChildRef := ChildRef{
		Parent:         op.NewParent.Parent,
		Name:           op.NewParent.Name,
		Timestamp:      op.Timestamp,
		Child:          op.Child,
		OpID:           op.OpID,
		PreInvalidated: preInvalidated,
	}
	children, err := sumtree.Interleave[childKey, childSummary, ChildRef](e.childStore, e.children, []ChildRef{newChildRef})
	if err != nil {
		return nil, errorf("Epoch.integrateUpdateParent", "child-reference: %v", err)
	}
	e.children = children

	if preInvalidated {
		return nil, nil
	}
	return e.repairNameConflict(op.NewParent.Parent, op.NewParent.Name)
}

// walkPriorReferences descends op.Child's parent-reference history in
// timestamp-descending order, applying a three-way rule: a concurrent move
// that already superseded a common predecessor pre-invalidates the slot
// this op is about to claim; an op that supersedes the slot a prior
// reference occupies invalidates that reference's child-reference; anything
// else is a no-op. The first case moves on to the next older reference;
// the other two stop the walk. It returns true if the first case applied
// to any reference.
func (e *Epoch) walkPriorReferences(op Op) (preInvalidated bool, err error) {
	cur, err := sumtree.NewCursor[parentKey, countSummary, ParentRef](e.parentStore, e.parents)
	if err != nil {
		return false, errorf("Epoch.walkPriorReferences", "%v", err)
	}
	if err := sumtree.SeekKey[parentKey, countSummary, ParentRef](cur, e.parents, parentKey{child: op.Child, ts: clock.Max}, sumtree.Left); err != nil {
		return false, errorf("Epoch.walkPriorReferences", "%v", err)
	}

	for {
		ref, ok := cur.Item()
		if !ok || !ref.Child.Equal(op.Child) {
			return preInvalidated, nil
		}

		switch {
		case op.Timestamp.Less(ref.Timestamp) && ref.PrevTimestamp.Less(op.Timestamp):
			// A concurrent move later in Lamport order already
			// superseded a common predecessor: the new op was
			// concurrent with it, so pre-invalidate the slot it is
			// about to claim.
			preInvalidated = true
		case !ref.Timestamp.Less(op.PrevTimestamp):
			// This op supersedes the slot ref occupies: invalidate the
			// child-reference ref created, in place.
			if ref.Parent.Valid {
				if err := e.invalidateChildRef(ref.Parent.Parent, ref.Parent.Name, ref.Timestamp); err != nil {
					return false, errorf("Epoch.walkPriorReferences", "invalidate: %v", err)
				}
			}
			return preInvalidated, nil
		default:
			return preInvalidated, nil
		}

		if more, err := cur.Next(); err != nil {
			return false, errorf("Epoch.walkPriorReferences", "%v", err)
		} else if !more {
			return preInvalidated, nil
		}
	}
}

// invalidateChildRef marks invalid, by re-inserting at the identical key,
// the child-reference that has occupied (parent, name) since timestamp
// ts. Fetching the entry and pushing it back at its own key (rather than
// inserting a new, differently-keyed tombstone row) is the same
// discipline original_source/eon/src/fs2.rs's integrate_op uses: it seeks
// the child-ref by parent_ref.to_child_ref_key(), pushes the invalidating
// op id onto the fetched entry's deletions, and relies on interleave's
// equal-key replace to retire it. Without this, a stale live entry can
// outrank its own invalidation (see childKey's doc comment) and a removed
// file would keep showing up in Children.
func (e *Epoch) invalidateChildRef(parent clock.FileID, name string, ts clock.Lamport) error {
	cur, err := sumtree.NewCursor[childKey, childSummary, ChildRef](e.childStore, e.children)
	if err != nil {
		return err
	}
	key := childKey{parent: parent, name: name, ts: ts}
	if err := sumtree.SeekKey[childKey, childSummary, ChildRef](cur, e.children, key, sumtree.Left); err != nil {
		return err
	}
	ref, ok := cur.Item()
	if !ok || ref.ItemKey() != key {
		return errorf("Epoch.invalidateChildRef", "no child-reference at parent=%v name=%q ts=%v", parent, name, ts)
	}
	ref.Invalidated = true
	children, err := sumtree.Interleave[childKey, childSummary, ChildRef](e.childStore, e.children, []ChildRef{ref})
	if err != nil {
		return err
	}
	e.children = children
	return nil
}

// repairNameConflict runs after any insert or move into slot (parent,
// name): if more than one visible child-reference now occupies that slot,
// every entry but the greatest (timestamp, op_id) is bumped to a
// deterministically `~`-suffixed name via a synthetic UpdateParent fix-up,
// applied locally and returned for broadcast. Because the winner rule is a
// pure function of (timestamp, op_id), any two replicas that integrate the
// same set of operations compute the same fix-ups independently.
func (e *Epoch) repairNameConflict(parent clock.FileID, name string) ([]Op, error) {
	visible, err := e.visibleChildRefs(parent, name)
	if err != nil {
		return nil, errorf("Epoch.repairNameConflict", "%v", err)
	}
	if len(visible) < 2 {
		return nil, nil
	}

	winner := visible[0]
	for _, cand := range visible[1:] {
		if winnerLoses(winner, cand) {
			winner = cand
		}
	}
	log.WithFields(log.Fields{
		"parent":    parent,
		"name":      name,
		"contended": len(visible),
	}).Debug("resolving name conflict")

	var fixups []Op
	for _, cand := range visible {
		if cand.Child.Equal(winner.Child) && cand.Timestamp.Equal(winner.Timestamp) {
			continue
		}
		newName := e.nextFreeName(parent, name)
		ts := e.clock.Tick()
		opID := e.local.Tick()
		fixup := Op{
			Kind:          OpUpdateParent,
			OpID:          opID,
			Timestamp:     ts,
			Child:         cand.Child,
			PrevTimestamp: cand.Timestamp,
			NewParent:     Slot{Parent: parent, Name: newName, Valid: true},
		}
		more, err := e.IntegrateOp(fixup)
		if err != nil {
			return nil, pkgerrors.Wrapf(err, "applying fix-up: cand=%v winner=%v", cand.Child, winner.Child)
		}
		e.repairs++
		fixups = append(fixups, fixup)
		fixups = append(fixups, more...)
	}
	return fixups, nil
}

// winnerLoses reports whether the current winner is beaten by cand: the
// greater (timestamp, op_id) pair wins.
func winnerLoses(winner, cand ChildRef) bool {
	if winner.Timestamp.Equal(cand.Timestamp) {
		return winner.OpID.Less(cand.OpID)
	}
	return winner.Timestamp.Less(cand.Timestamp)
}

// visibleChildRefs returns every currently live child-reference occupying
// (parent, name). Unlike Children's single-entry-per-name shortcut, this
// scans every entry in the slot's history: repairNameConflict calls it
// precisely when more than one entry might be live at once (a fresh
// insert or move racing a concurrent one), so it cannot assume the newest
// entry is decisive the way a settled slot's lookup can.
func (e *Epoch) visibleChildRefs(parent clock.FileID, name string) ([]ChildRef, error) {
	cur, err := sumtree.NewCursor[childKey, childSummary, ChildRef](e.childStore, e.children)
	if err != nil {
		return nil, err
	}
	if err := sumtree.SeekKey[childKey, childSummary, ChildRef](cur, e.children, childKey{parent: parent, name: name, ts: clock.Max}, sumtree.Left); err != nil {
		return nil, err
	}

	var out []ChildRef
	for {
		ref, ok := cur.Item()
		if !ok || !ref.Parent.Equal(parent) || ref.Name != name {
			break
		}
		if ref.Live() {
			out = append(out, ref)
		}
		if more, err := cur.Next(); err != nil {
			return nil, err
		} else if !more {
			break
		}
	}
	return out, nil
}

// nextFreeName returns name with enough trailing "~" appended that no
// visible child-reference currently occupies (parent, candidate).
func (e *Epoch) nextFreeName(parent clock.FileID, name string) string {
	candidate := name
	for {
		candidate += "~"
		occupied, err := e.visibleChildRefs(parent, candidate)
		if err != nil || len(occupied) == 0 {
			return candidate
		}
	}
}
