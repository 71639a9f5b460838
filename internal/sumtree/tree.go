package sumtree

import "fmt"

// Tree is a purely functional, copy-on-write ordered container. The zero
// value is not valid; construct one with Empty or Extend.
type Tree[K KeyOrdered[K], S Summary[S], T Item[K, S]] struct {
	root childRef[K, S, T]
	zero S
}

// Empty returns an empty tree whose summary is the given zero value (the
// monoid identity for S).
func Empty[K KeyOrdered[K], S Summary[S], T Item[K, S]](zero S) Tree[K, S, T] {
	return Tree[K, S, T]{
		root: childRef[K, S, T]{resident: &node[K, S, T]{leaf: true}, summary: zero},
		zero: zero,
	}
}

// Summary returns the tree's aggregate summary, already cached at the root
// — computing it never touches the store.
func (t Tree[K, S, T]) Summary() S {
	return t.root.summary
}

// count reports the number of items in the tree by resolving every node
// and adding up the leaves' item counts; it is not O(1) in general because Summary does not
// necessarily carry a count (callers that need fast Len should project a
// count Dimension instead).
func (t Tree[K, S, T]) count(store NodeStore[K, S, T]) (int, error) {
	n, err := resolve(store, &t.root)
	if err != nil {
		return 0, err
	}
	return countNode(store, n)
}

func countNode[K KeyOrdered[K], S Summary[S], T Item[K, S]](store NodeStore[K, S, T], n *node[K, S, T]) (int, error) {
	if n.leaf {
		return len(n.items), nil
	}
	total := 0
	for i := range n.children {
		c, err := resolve(store, &n.children[i])
		if err != nil {
			return 0, err
		}
		n2, err := countNode(store, c)
		if err != nil {
			return 0, err
		}
		total += n2
	}
	return total, nil
}

// EditKind discriminates the two batch-edit operations.
type EditKind int

const (
	EditInsert EditKind = iota
	EditRemove
)

// EditOp is one entry of a batch passed to Edit: an Insert carries the full
// item, a Remove only the key.
type EditOp[K any, T any] struct {
	Kind EditKind
	Key  K
	Item T
}

func Insert[K any, T any](item T, key K) EditOp[K, T] {
	return EditOp[K, T]{Kind: EditInsert, Key: key, Item: item}
}

func Remove[K any, T any](key K) EditOp[K, T] {
	return EditOp[K, T]{Kind: EditRemove, Key: key}
}

// Edit applies a sorted batch of inserts/removes via path-copy: only the
// nodes on the path from the root to each affected leaf are rebuilt: every
// child whose subtree contains none of the batch's keys is reused by
// reference, summary, key and NodeID unchanged, exactly as a functional
// tree's "clone root-to-leaf" discipline requires. The batch must be
// sorted strictly ascending by key or KeyOutOfOrder is returned. Keys not
// present are silently ignored by Remove, matching the teacher's
// idempotent storage.Store.Delete semantics.
func (t Tree[K, S, T]) Edit(store NodeStore[K, S, T], edits []EditOp[K, T]) (Tree[K, S, T], error) {
	for i := 1; i < len(edits); i++ {
		if !edits[i-1].Key.Less(edits[i].Key) {
			return t, &KeyOutOfOrder{Index: i}
		}
	}
	if len(edits) == 0 {
		return t, nil
	}

	refs, err := editRef(store, &t.root, edits, t.zero)
	if err != nil {
		return t, err
	}
	return Tree[K, S, T]{root: collapseToRoot(refs, t.zero), zero: t.zero}, nil
}

// editRef applies edits (already routed to ref's subtree) and returns the
// childRef(s) that should replace ref at its own level: a single ref if
// the result still fits one node, several siblings if it overflowed (the
// same local split a classic B-tree insert performs), or none if the
// subtree was emptied by removes. An empty edits slice is the base case
// that stops the recursion from touching (or even resolving) untouched
// subtrees.
func editRef[K KeyOrdered[K], S Summary[S], T Item[K, S]](store NodeStore[K, S, T], ref *childRef[K, S, T], edits []EditOp[K, T], zero S) ([]childRef[K, S, T], error) {
	if len(edits) == 0 {
		return []childRef[K, S, T]{*ref}, nil
	}
	n, err := resolve(store, ref)
	if err != nil {
		return nil, err
	}
	if n.leaf {
		return buildLeafRefs(zero, mergeLeafItems(n.items, edits)), nil
	}
	children, err := editChildren(store, n, edits, zero)
	if err != nil {
		return nil, err
	}
	return buildInternalRefs(zero, children), nil
}

// editChildren partitions edits among n's children by each child's cached
// max key (the last child absorbs everything beyond the node's current
// max, covering inserts past the end), recurses only into children that
// received at least one edit, and passes every other child through
// unresolved and unchanged.
func editChildren[K KeyOrdered[K], S Summary[S], T Item[K, S]](store NodeStore[K, S, T], n *node[K, S, T], edits []EditOp[K, T], zero S) ([]childRef[K, S, T], error) {
	var out []childRef[K, S, T]
	start := 0
	for i := range n.children {
		last := i == len(n.children)-1
		end := start
		for end < len(edits) && (last || !n.children[i].key.Less(edits[end].Key)) {
			end++
		}
		refs, err := editRef(store, &n.children[i], edits[start:end], zero)
		if err != nil {
			return nil, err
		}
		out = append(out, refs...)
		start = end
	}
	return out, nil
}

// mergeLeafItems merges a leaf's existing items with the edits routed to
// it, both already sorted ascending by key: an edit at an existing key
// supersedes it (Insert replaces, Remove drops), matching Edit's
// documented semantics.
func mergeLeafItems[K KeyOrdered[K], S Summary[S], T Item[K, S]](items []T, edits []EditOp[K, T]) []T {
	out := make([]T, 0, len(items)+len(edits))
	i, j := 0, 0
	for i < len(items) || j < len(edits) {
		switch {
		case j >= len(edits):
			out = append(out, items[i])
			i++
		case i >= len(items):
			if edits[j].Kind == EditInsert {
				out = append(out, edits[j].Item)
			}
			j++
		default:
			ik, ek := items[i].ItemKey(), edits[j].Key
			switch {
			case ik.Less(ek):
				out = append(out, items[i])
				i++
			case ek.Less(ik):
				if edits[j].Kind == EditInsert {
					out = append(out, edits[j].Item)
				}
				j++
			default: // equal keys: the edit supersedes the old entry
				if edits[j].Kind == EditInsert {
					out = append(out, edits[j].Item)
				}
				i++
				j++
			}
		}
	}
	return out
}

// buildLeafRefs rebuilds the leaf level for a (possibly empty, possibly
// overflowing) merged item list: chunk already keeps every piece within
// [minItems, maxItems] the same way Extend does, so a batch that grew one
// leaf past capacity splits into siblings rather than a deeper tree.
func buildLeafRefs[K KeyOrdered[K], S Summary[S], T Item[K, S]](zero S, items []T) []childRef[K, S, T] {
	if len(items) == 0 {
		return nil
	}
	chunks := chunk(items, maxItems)
	refs := make([]childRef[K, S, T], len(chunks))
	for i, c := range chunks {
		leaf := &node[K, S, T]{leaf: true, items: c}
		refs[i] = childRef[K, S, T]{resident: leaf, summary: leaf.summary(zero), key: leaf.maxKey()}
	}
	return refs
}

// buildInternalRefs rebuilds one internal level from its (possibly
// overflowing) child list: unchanged children keep their original
// childRef verbatim (same id, same resident pointer if any), so only the
// node(s) wrapping them are new. A child list past maxItems splits into
// sibling internal nodes at the same depth, the same local split
// buildLeafRefs performs one level down.
func buildInternalRefs[K KeyOrdered[K], S Summary[S], T Item[K, S]](zero S, children []childRef[K, S, T]) []childRef[K, S, T] {
	if len(children) == 0 {
		return nil
	}
	if len(children) <= maxItems {
		n := &node[K, S, T]{children: children}
		return []childRef[K, S, T]{{resident: n, summary: n.summary(zero), key: n.maxKey()}}
	}
	groups := chunkRefs(children, maxItems)
	refs := make([]childRef[K, S, T], len(groups))
	for i, g := range groups {
		n := &node[K, S, T]{children: g}
		refs[i] = childRef[K, S, T]{resident: n, summary: n.summary(zero), key: n.maxKey()}
	}
	return refs
}

// collapseToRoot wraps however many top-level refs editRef produced into
// a single root, growing the tree by one level at a time exactly as
// Extend's own bottom-up build does — the only point where tree height
// can change, since every recursive editRef call below the root performs
// a same-depth split instead.
func collapseToRoot[K KeyOrdered[K], S Summary[S], T Item[K, S]](refs []childRef[K, S, T], zero S) childRef[K, S, T] {
	if len(refs) == 0 {
		return childRef[K, S, T]{resident: &node[K, S, T]{leaf: true}, summary: zero}
	}
	level := refs
	for len(level) > 1 {
		groups := chunkRefs(level, maxItems)
		next := make([]childRef[K, S, T], len(groups))
		for i, g := range groups {
			n := &node[K, S, T]{children: g}
			next[i] = childRef[K, S, T]{resident: n, summary: n.summary(zero), key: n.maxKey()}
		}
		level = next
	}
	return level[0]
}

// Extend bulk-builds a balanced tree from items already in ascending key
// order — an O(n) bottom-up construction, used for a fresh load and
// wherever a whole item list is rebuilt (Cursor.Slice/Suffix, package
// opqueue's DrainIf). Edit and Interleave do not call it: they rebuild only
// the edited paths.
func Extend[K KeyOrdered[K], S Summary[S], T Item[K, S]](zero S, items []T) Tree[K, S, T] {
	if len(items) == 0 {
		return Empty[K, S, T](zero)
	}
	leaves := chunk(items, maxItems)
	level := make([]childRef[K, S, T], len(leaves))
	for i, leaf := range leaves {
		n := &node[K, S, T]{leaf: true, items: leaf}
		level[i] = childRef[K, S, T]{resident: n, summary: n.summary(zero), key: n.maxKey()}
	}
	for len(level) > 1 {
		groups := chunkRefs(level, maxItems)
		next := make([]childRef[K, S, T], len(groups))
		for i, g := range groups {
			n := &node[K, S, T]{children: g}
			next[i] = childRef[K, S, T]{resident: n, summary: n.summary(zero), key: n.maxKey()}
		}
		level = next
	}
	return Tree[K, S, T]{root: level[0], zero: zero}
}

func chunk[T any](items []T, size int) [][]T {
	var out [][]T
	for len(items) > 0 {
		n := size
		if n > len(items) {
			n = len(items)
		}
		// Avoid a dangling tiny final leaf: if the remainder after this
		// chunk would be smaller than minItems, take less now so the
		// remainder is a single balanced chunk instead.
		if rem := len(items) - n; rem > 0 && rem < minItems {
			n = len(items) - minItems
			if n < 1 {
				n = len(items) / 2
			}
		}
		out = append(out, items[:n])
		items = items[n:]
	}
	return out
}

func chunkRefs[K any, S any, T Item[K, S]](refs []childRef[K, S, T], size int) [][]childRef[K, S, T] {
	var out [][]childRef[K, S, T]
	for len(refs) > 0 {
		n := size
		if n > len(refs) {
			n = len(refs)
		}
		if rem := len(refs) - n; rem > 0 && rem < minItems {
			n = len(refs) - minItems
			if n < 1 {
				n = len(refs) / 2
			}
		}
		out = append(out, refs[:n])
		refs = refs[n:]
	}
	return out
}

// Items returns every item in the tree, in key order. It is the exported
// counterpart of flatten, for callers outside the package (e.g. package
// epoch's Stats) that need the full contents rather than a cursor walk.
func (t Tree[K, S, T]) Items(store NodeStore[K, S, T]) ([]T, error) {
	return t.flatten(store)
}

// flatten returns every item in key order, resolving every node. Used by
// Items and by store round-trip tests; Edit no longer needs it since it
// edits via path-copy, and Cursor-based traversal is preferred whenever
// only part of the tree needs visiting.
func (t Tree[K, S, T]) flatten(store NodeStore[K, S, T]) ([]T, error) {
	n, err := resolve(store, &t.root)
	if err != nil {
		return nil, err
	}
	var out []T
	if err := flattenNode(store, n, &out); err != nil {
		return nil, fmt.Errorf("sumtree: flatten: %w", err)
	}
	return out, nil
}

func flattenNode[K KeyOrdered[K], S Summary[S], T Item[K, S]](store NodeStore[K, S, T], n *node[K, S, T], out *[]T) error {
	if n.leaf {
		*out = append(*out, n.items...)
		return nil
	}
	for i := range n.children {
		c, err := resolve(store, &n.children[i])
		if err != nil {
			return err
		}
		if err := flattenNode(store, c, out); err != nil {
			return err
		}
	}
	return nil
}
