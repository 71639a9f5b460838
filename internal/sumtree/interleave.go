package sumtree

// Interleave merges sorted newItems into old, preserving old's relative
// order and placing each new item at its key's position. Unlike Edit,
// Interleave has no remove operation, but a new item whose key equals an
// existing item's replaces that item. It is the primitive package epoch
// uses to splice freshly integrated rows into the
// parent-reference and child-reference trees without rebuilding them from
// scratch on every operation.
//
// It is a thin EditInsert wrapper over Edit, so it inherits Edit's
// path-copy sharing: only the nodes on the path to each new item's leaf
// are rebuilt, every other subtree of old is reused by reference.
func Interleave[K KeyOrdered[K], S Summary[S], T Item[K, S]](store NodeStore[K, S, T], old Tree[K, S, T], newItems []T) (Tree[K, S, T], error) {
	for i := 1; i < len(newItems); i++ {
		if !newItems[i-1].ItemKey().Less(newItems[i].ItemKey()) {
			return old, &KeyOutOfOrder{Index: i}
		}
	}
	if len(newItems) == 0 {
		return old, nil
	}

	edits := make([]EditOp[K, T], len(newItems))
	for i, item := range newItems {
		edits[i] = Insert[K, T](item, item.ItemKey())
	}
	return old.Edit(store, edits)
}
