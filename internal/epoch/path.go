package epoch

import (
	"strings"

	"github.com/nicolagi/memo/internal/clock"
	"github.com/nicolagi/memo/internal/sumtree"
)

// IDForPath descends the child-reference tree one seek per path
// component, starting at ROOT.
func (e *Epoch) IDForPath(path string) (clock.FileID, error) {
	id := clock.RootFileID
	for _, name := range splitPath(path) {
		next, ok, err := e.childIDFor(id, name)
		if err != nil {
			return clock.FileID{}, errorf("Epoch.IDForPath", "%v", err)
		}
		if !ok {
			return clock.FileID{}, ErrInvalidPath
		}
		id = next
	}
	return id, nil
}

func (e *Epoch) childIDFor(parent clock.FileID, name string) (clock.FileID, bool, error) {
	cur, err := sumtree.NewCursor[childKey, childSummary, ChildRef](e.childStore, e.children)
	if err != nil {
		return clock.FileID{}, false, err
	}
	target := childKey{parent: parent, name: name, ts: clock.Max}
	if err := sumtree.SeekKey[childKey, childSummary, ChildRef](cur, e.children, target, sumtree.Left); err != nil {
		return clock.FileID{}, false, err
	}
	ref, ok := cur.Item()
	if !ok || !ref.Parent.Equal(parent) || ref.Name != name || !ref.Live() {
		return clock.FileID{}, false, nil
	}
	return ref.Child, true, nil
}

// PathForID walks parent-references from id up to ROOT and returns the
// reversed sequence of names joined with "/".
func (e *Epoch) PathForID(id clock.FileID) (string, error) {
	if id.Equal(clock.RootFileID) {
		return "/", nil
	}
	var names []string
	cur := id
	for !cur.Equal(clock.RootFileID) {
		ref, ok, err := e.currentParentRef(cur)
		if err != nil {
			return "", errorf("Epoch.PathForID", "%v", err)
		}
		if !ok || !ref.Parent.Valid {
			return "", ErrInvalidPath
		}
		names = append(names, ref.Parent.Name)
		cur = ref.Parent.Parent
	}
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return "/" + strings.Join(names, "/"), nil
}

// ExportCurrentParentRef returns child's current parent-reference, for
// callers (the work tree, tests) that need its timestamp to build a
// follow-up UpdateParent op.
func (e *Epoch) ExportCurrentParentRef(child clock.FileID) (ParentRef, bool, error) {
	return e.currentParentRef(child)
}

func (e *Epoch) currentParentRef(child clock.FileID) (ParentRef, bool, error) {
	cur, err := sumtree.NewCursor[parentKey, countSummary, ParentRef](e.parentStore, e.parents)
	if err != nil {
		return ParentRef{}, false, err
	}
	target := parentKey{child: child, ts: clock.Max}
	if err := sumtree.SeekKey[parentKey, countSummary, ParentRef](cur, e.parents, target, sumtree.Left); err != nil {
		return ParentRef{}, false, err
	}
	ref, ok := cur.Item()
	if !ok || !ref.Child.Equal(child) {
		return ParentRef{}, false, nil
	}
	return ref, true, nil
}

func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}
