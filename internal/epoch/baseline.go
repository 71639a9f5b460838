package epoch

import (
	"sort"

	"github.com/nicolagi/memo/internal/clock"
	"github.com/nicolagi/memo/internal/sumtree"
)

// BaseEntry is one record of a depth-first baseline listing. Entries must
// arrive pre-order, so that depth never jumps by more than one between
// consecutive entries.
type BaseEntry struct {
	Depth int
	Name  string
	Type  FileType
}

// BaselineStream is a pull-based iterator over a baseline listing,
// mirroring the external package's LazySeq Next-until-exhausted shape
// without this package depending on it directly; package worktree adapts a
// GitProvider's LazySeq[DirEntry] to this interface.
type BaselineStream interface {
	Next() (BaseEntry, bool, error)
}

// AppendBaseEntries populates the three trees from stream. Entries are
// assigned clock.FileID Base(i) in stream order and
// stamped with a fixed, replica-independent Lamport timestamp below
// anything any replica can ever tick — so any later real operation
// outranks them, and two replicas that load the same baseline
// independently produce bitwise-identical entries. All three trees are
// populated via a single batched Interleave each, after sorting each
// batch by that tree's own key (stream order need not match any of the
// three key orders — child-reference order in particular depends on
// sibling name, not listing order).
func (e *Epoch) AppendBaseEntries(stream BaselineStream) error {
	baselineTS := clock.Min(clock.ReplicaID{})

	var metaItems []MetadataEntry
	var parentItems []ParentRef
	var childItems []ChildRef

	ancestors := []clock.FileID{clock.RootFileID}
	prevDepth := -1
	// Base(0) is reserved for ROOT (seeded by New, not by this stream), so
	// baseline entries are assigned Base(1), Base(2), ...
	i := uint64(1)
	for {
		entry, ok, err := stream.Next()
		if err != nil {
			return errorf("Epoch.AppendBaseEntries", "%v", err)
		}
		if !ok {
			break
		}
		if entry.Depth > prevDepth+1 {
			return errorf("Epoch.AppendBaseEntries", "entry %d: depth %d follows depth %d", i, entry.Depth, prevDepth)
		}
		if entry.Depth+1 > len(ancestors) {
			return errorf("Epoch.AppendBaseEntries", "entry %d: depth %d has no directory parent on the stack", i, entry.Depth)
		}
		ancestors = ancestors[:entry.Depth+1]
		parent := ancestors[entry.Depth]

		id := clock.BaseFileID(i)
		metaItems = append(metaItems, MetadataEntry{ID: id, Type: entry.Type})
		parentItems = append(parentItems, ParentRef{
			Child:         id,
			Timestamp:     baselineTS,
			PrevTimestamp: baselineTS,
			Parent:        Slot{Parent: parent, Name: entry.Name, Valid: true},
		})
		childItems = append(childItems, ChildRef{
			Parent:    parent,
			Name:      entry.Name,
			Timestamp: baselineTS,
			Child:     id,
		})

		if entry.Type == Directory {
			ancestors = append(ancestors, id)
		}
		prevDepth = entry.Depth
		i++
	}

	sort.Slice(metaItems, func(a, b int) bool { return metaItems[a].ItemKey().Less(metaItems[b].ItemKey()) })
	sort.Slice(parentItems, func(a, b int) bool { return parentItems[a].ItemKey().Less(parentItems[b].ItemKey()) })
	sort.Slice(childItems, func(a, b int) bool { return childItems[a].ItemKey().Less(childItems[b].ItemKey()) })

	meta, err := sumtree.Interleave[clock.FileID, countSummary, MetadataEntry](e.metaStore, e.meta, metaItems)
	if err != nil {
		return errorf("Epoch.AppendBaseEntries", "metadata: %v", err)
	}
	parents, err := sumtree.Interleave[parentKey, countSummary, ParentRef](e.parentStore, e.parents, parentItems)
	if err != nil {
		return errorf("Epoch.AppendBaseEntries", "parent-reference: %v", err)
	}
	children, err := sumtree.Interleave[childKey, childSummary, ChildRef](e.childStore, e.children, childItems)
	if err != nil {
		return errorf("Epoch.AppendBaseEntries", "child-reference: %v", err)
	}

	e.meta, e.parents, e.children = meta, parents, children
	return nil
}
