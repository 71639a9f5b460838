package epoch

import (
	"github.com/nicolagi/memo/internal/clock"
	"github.com/nicolagi/memo/internal/sumtree"
)

// ChildEntry is one currently-visible child of a directory, as returned by
// Children.
type ChildEntry struct {
	Name string
	ID   clock.FileID
	Type FileType
}

// Children returns parent's visible children in name order. The
// child-reference tree orders entries by (parent, name, timestamp DESC),
// so a single forward pass over parent's region of the tree groups every
// name's history together, newest first; repairNameConflict guarantees at
// most one live entry survives per name once integration settles, and
// invalidating an entry flips it in place rather than shadowing it with a
// separately-keyed row, so the newest entry of a run is always decisive —
// if it is live the slot is occupied, if it was invalidated (or never
// visible) the slot is vacant, and no older entry for that name is ever
// consulted.
func (e *Epoch) Children(parent clock.FileID) ([]ChildEntry, error) {
	cur, err := sumtree.NewCursor[childKey, childSummary, ChildRef](e.childStore, e.children)
	if err != nil {
		return nil, errorf("Epoch.Children", "%v", err)
	}
	start := childKey{parent: parent, name: "", ts: clock.Max}
	if err := sumtree.SeekKey[childKey, childSummary, ChildRef](cur, e.children, start, sumtree.Left); err != nil {
		return nil, errorf("Epoch.Children", "%v", err)
	}

	var out []ChildEntry
	lastName := ""
	haveLastName := false
	for {
		ref, ok := cur.Item()
		if !ok || !ref.Parent.Equal(parent) {
			break
		}
		if !haveLastName || ref.Name != lastName {
			lastName, haveLastName = ref.Name, true
			if ref.Live() {
				typ, err := e.typeOf(ref.Child)
				if err != nil {
					return nil, errorf("Epoch.Children", "%v", err)
				}
				out = append(out, ChildEntry{Name: ref.Name, ID: ref.Child, Type: typ})
			}
		}
		if more, err := cur.Next(); err != nil {
			return nil, errorf("Epoch.Children", "%v", err)
		} else if !more {
			break
		}
	}
	return out, nil
}

func (e *Epoch) typeOf(id clock.FileID) (FileType, error) {
	cur, err := sumtree.NewCursor[clock.FileID, countSummary, MetadataEntry](e.metaStore, e.meta)
	if err != nil {
		return 0, err
	}
	if err := sumtree.SeekKey[clock.FileID, countSummary, MetadataEntry](cur, e.meta, id, sumtree.Left); err != nil {
		return 0, err
	}
	entry, ok := cur.Item()
	if !ok || !entry.ID.Equal(id) {
		return 0, ErrUnknownFile
	}
	return entry.Type, nil
}
