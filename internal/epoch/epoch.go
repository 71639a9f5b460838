package epoch

import (
	"github.com/nicolagi/memo/internal/clock"
	"github.com/nicolagi/memo/internal/sumtree"
)

type metaTree = sumtree.Tree[clock.FileID, countSummary, MetadataEntry]
type parentTree = sumtree.Tree[parentKey, countSummary, ParentRef]
type childTree = sumtree.Tree[childKey, childSummary, ChildRef]

type metaStore = sumtree.NodeStore[clock.FileID, countSummary, MetadataEntry]
type parentStore = sumtree.NodeStore[parentKey, countSummary, ParentRef]
type childStore = sumtree.NodeStore[childKey, childSummary, ChildRef]

// Epoch owns the three summarized, copy-on-write B-trees and the
// operations that preserve their invariants. Nothing is ever deleted from
// the trees; a reset replaces them wholesale (see package worktree's
// StartEpoch handling).
type Epoch struct {
	ID uint64

	meta     metaTree
	parents  parentTree
	children childTree

	metaStore   metaStore
	parentStore parentStore
	childStore  childStore

	// clock and local are shared with the owning work tree: integrating a
	// remote op never ticks them, but name-conflict repair mints a fresh
	// Lamport timestamp and op id for each fix-up it generates.
	clock *clock.Lamport
	local *clock.Local

	// repairs counts fix-up operations generated by name-conflict repair,
	// exposed via Stats for diagnostics.
	repairs int
}

// EpochOption configures a fresh Epoch.
type EpochOption func(*Epoch)

// WithNodeStores supplies the persistence seam for each of the three
// trees. Without this option an Epoch is purely in-memory: fine for a
// freshly started epoch that has never been flushed, but ReadNode calls
// against a cold node will fail.
func WithNodeStores(meta metaStore, parents parentStore, children childStore) EpochOption {
	return func(e *Epoch) {
		e.metaStore = meta
		e.parentStore = parents
		e.childStore = children
	}
}

// New constructs an empty epoch with the given id, sharing the work tree's
// Lamport and local clocks (needed to mint conflict-repair fix-ups), and
// seeds the metadata tree with the distinguished ROOT entry — ROOT has no
// parent-reference (PathForID special-cases it), but it is a directory
// like any other as far as metadata is concerned. Use AppendBaseEntries to
// seed the rest from a baseline listing.
func New(id uint64, clk *clock.Lamport, local *clock.Local, opts ...EpochOption) *Epoch {
	e := &Epoch{
		ID:       id,
		meta:     sumtree.Empty[clock.FileID, countSummary, MetadataEntry](countSummary{}),
		parents:  sumtree.Empty[parentKey, countSummary, ParentRef](countSummary{}),
		children: sumtree.Empty[childKey, childSummary, ChildRef](childSummary{}),
		clock:    clk,
		local:    local,
	}
	for _, o := range opts {
		o(e)
	}
	e.meta = sumtree.Extend[clock.FileID, countSummary, MetadataEntry](countSummary{}, []MetadataEntry{
		{ID: clock.RootFileID, Type: Directory},
	})
	return e
}

// Stats is ambient diagnostic bookkeeping, cheap and useful for tests and
// introspection tooling.
type Stats struct {
	MetadataEntries int
	ParentRefs      int
	ChildRefs       int
	ConflictRepairs int
}

func (e *Epoch) Stats() (Stats, error) {
	var s Stats
	var err error
	metaItems, err := e.meta.Items(e.metaStore)
	if err != nil {
		return s, errorf("Epoch.Stats", "%v", err)
	}
	parentItems, err := e.parents.Items(e.parentStore)
	if err != nil {
		return s, errorf("Epoch.Stats", "%v", err)
	}
	childItems, err := e.children.Items(e.childStore)
	if err != nil {
		return s, errorf("Epoch.Stats", "%v", err)
	}
	s.MetadataEntries = len(metaItems)
	s.ParentRefs = len(parentItems)
	s.ChildRefs = len(childItems)
	s.ConflictRepairs = e.repairs
	return s, nil
}
