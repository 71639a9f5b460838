package epoch

import "github.com/nicolagi/memo/internal/clock"

// parentKey orders the parent-reference tree by (child_id, timestamp DESC):
// ascending by child, then descending by timestamp, so that seeking
// (child, clock.Max) with a Left bias always lands on the current
// (most recent) parent-reference for that child.
type parentKey struct {
	child clock.FileID
	ts    clock.Lamport
}

func (k parentKey) Less(other parentKey) bool {
	if !k.child.Equal(other.child) {
		return k.child.Less(other.child)
	}
	return other.ts.Less(k.ts)
}

// childKey orders the child-reference tree by (parent_id, name,
// timestamp DESC): ascending by parent, then by name, then newest entry
// first among entries sharing a slot. There is deliberately no visibility
// bit in the key — an entry is invalidated by re-inserting it at this
// same key with its Invalidated field set, not by shadowing it with a
// separately-keyed tombstone row that could sort ahead of it regardless
// of timestamp. Grounded on original_source/eon/src/fs2.rs's
// ChildRefKey{parent_id, name, timestamp}, which carries no visibility
// field for exactly this reason.
type childKey struct {
	parent clock.FileID
	name   string
	ts     clock.Lamport
}

func (k childKey) Less(other childKey) bool {
	if !k.parent.Equal(other.parent) {
		return k.parent.Less(other.parent)
	}
	if k.name != other.name {
		return k.name < other.name
	}
	return other.ts.Less(k.ts)
}
