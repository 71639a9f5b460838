package epoch

import "github.com/nicolagi/memo/internal/clock"

// FileType distinguishes the two kinds of file the engine knows about; the
// text-buffer CRDT internals behind Text live outside this package.
type FileType uint8

const (
	Directory FileType = iota
	Text
)

func (t FileType) String() string {
	if t == Directory {
		return "directory"
	}
	return "text"
}

// countSummary is the trivial commutative monoid used by trees that need
// no dimension beyond plain key-ordered lookup.
type countSummary struct {
	n int
}

func (s countSummary) Add(other countSummary) countSummary {
	return countSummary{n: s.n + other.n}
}

// MetadataEntry is the metadata tree's item: one per known FileID.
type MetadataEntry struct {
	ID   clock.FileID
	Type FileType
}

func (e MetadataEntry) ItemKey() clock.FileID    { return e.ID }
func (e MetadataEntry) ItemSummary() countSummary { return countSummary{n: 1} }

// Slot is Option<(parent_id, name)>: Valid is false for "None", meaning the
// file this parent-reference belongs to is removed.
type Slot struct {
	Parent clock.FileID
	Name   string
	Valid  bool
}

// ParentRef is one entry of a file's parent-reference history.
type ParentRef struct {
	Child         clock.FileID
	Timestamp     clock.Lamport
	PrevTimestamp clock.Lamport
	OpID          clock.Local
	Parent        Slot
}

func (r ParentRef) ItemKey() parentKey {
	return parentKey{child: r.Child, ts: r.Timestamp}
}

func (r ParentRef) ItemSummary() countSummary { return countSummary{n: 1} }

// childSummary carries visible_count: the number of entries in the summed
// range that are live (neither Invalidated nor PreInvalidated). Children,
// path resolution and name-conflict detection scan entries directly; none
// of them seeks by this dimension.
type childSummary struct {
	visibleCount int
}

func (s childSummary) Add(other childSummary) childSummary {
	return childSummary{visibleCount: s.visibleCount + other.visibleCount}
}

// visibleCountDim is the Dimension projecting childSummary onto its
// visible_count field.
type visibleCountDim int

func (d visibleCountDim) Less(other visibleCountDim) bool { return d < other }

type visibleCountDimension struct{}

func (visibleCountDimension) FromSummary(s childSummary) visibleCountDim {
	return visibleCountDim(s.visibleCount)
}

// ChildRef is one entry of a (parent, name) slot's occupancy history. Its
// Timestamp is fixed for the entry's lifetime (it is part of the item's
// key); occupancy ending is recorded by flipping Invalidated on the same
// entry in place, never by inserting a second, separately-keyed row.
type ChildRef struct {
	Parent    clock.FileID
	Name      string
	Timestamp clock.Lamport
	Child     clock.FileID
	OpID      clock.Local

	// Invalidated records that a later op superseded the slot this entry
	// occupied. Set by re-inserting this same entry (same key) with the
	// field flipped; grounded on fs2.rs's ChildRef.deletions, a list of
	// invalidating op ids mutated on the fetched entry and pushed back at
	// its own key rather than appended as a new row.
	Invalidated bool

	// PreInvalidated records that this entry was never visible even at
	// creation: a later-Lamport move had already superseded a common
	// predecessor before this op was integrated.
	PreInvalidated bool
}

func (r ChildRef) ItemKey() childKey {
	return childKey{parent: r.Parent, name: r.Name, ts: r.Timestamp}
}

func (r ChildRef) ItemSummary() childSummary {
	if r.Invalidated || r.PreInvalidated {
		return childSummary{}
	}
	return childSummary{visibleCount: 1}
}

// Live reports whether this entry is the slot's current occupant.
func (r ChildRef) Live() bool { return !r.Invalidated && !r.PreInvalidated }
