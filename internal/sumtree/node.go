package sumtree

import "fmt"

// NodeID identifies a node for the purposes of NodeStore.ReadNode. Both
// the in-memory store and the blob-backed store (see blobstore.go) mint a
// simple incrementing counter; BlobStore maps each id to the content-hash
// key (block.RefOf) the node's bytes are stored under.
type NodeID uint64

// NodeStore is the persistence seam for cold nodes: reading one by id may
// suspend and may fail. Write-through is not part of this interface — a
// node the tree layer creates on clone carries id 0 until the caller
// persists it (see BlobStore.Save and MemStore.Save), which mints its id.
type NodeStore[K any, S any, T Item[K, S]] interface {
	ReadNode(id NodeID) (Node[K, S, T], error)
}

// Node is the serializable, store-agnostic shape of a tree node: either a
// leaf holding items directly, or an internal node holding, for each child,
// its cached summary (so ancestors never need to resolve a child just to
// seek past it) and its NodeID.
type Node[K any, S any, T Item[K, S]] struct {
	Leaf           bool
	Items          []T   // leaf only
	ChildSummaries []S   // internal only, parallel to ChildIDs
	ChildKeys      []K   // internal only: max key in each child subtree
	ChildIDs       []NodeID
}

// childRef is an in-memory edge to a child node: a NodeID plus whatever
// summary/key metadata the parent cached about it, and a possibly-nil
// resident pointer. A resident pointer means the child is already loaded
// (e.g., it was created or touched during this process's lifetime);
// resident == nil means the child must be resolved via NodeStore before its
// items or grandchildren can be inspected.
type childRef[K any, S any, T Item[K, S]] struct {
	id       NodeID
	summary  S
	key      K
	resident *node[K, S, T]
}

// node is the in-memory representation of a resolved Node.
type node[K any, S any, T Item[K, S]] struct {
	leaf     bool
	items    []T
	children []childRef[K, S, T]
}

func (n *node[K, S, T]) summary(zero S) S {
	if n.leaf {
		sum := zero
		for _, it := range n.items {
			sum = sum.Add(it.ItemSummary())
		}
		return sum
	}
	sum := zero
	for _, c := range n.children {
		sum = sum.Add(c.summary)
	}
	return sum
}

func (n *node[K, S, T]) maxKey() K {
	if n.leaf {
		return n.items[len(n.items)-1].ItemKey()
	}
	return n.children[len(n.children)-1].key
}

// resolve returns the resident node a childRef points at, loading it from
// store if necessary. store may be nil if the caller already knows every
// childRef in the tree is resident (e.g. a tree that has never been
// persisted).
func resolve[K any, S any, T Item[K, S]](store NodeStore[K, S, T], ref *childRef[K, S, T]) (*node[K, S, T], error) {
	if ref.resident != nil {
		return ref.resident, nil
	}
	if store == nil {
		return nil, fmt.Errorf("sumtree: child %d is cold and no NodeStore was provided", ref.id)
	}
	raw, err := store.ReadNode(ref.id)
	if err != nil {
		return nil, fmt.Errorf("sumtree: read node %d: %w", ref.id, err)
	}
	n := fromNode[K, S, T](raw)
	ref.resident = n
	return n, nil
}

func fromNode[K any, S any, T Item[K, S]](raw Node[K, S, T]) *node[K, S, T] {
	if raw.Leaf {
		return &node[K, S, T]{leaf: true, items: raw.Items}
	}
	children := make([]childRef[K, S, T], len(raw.ChildIDs))
	for i := range raw.ChildIDs {
		children[i] = childRef[K, S, T]{
			id:      raw.ChildIDs[i],
			summary: raw.ChildSummaries[i],
			key:     raw.ChildKeys[i],
		}
	}
	return &node[K, S, T]{children: children}
}

// toNode serializes a resident node for writing through a NodeStore.
// Children must already have been assigned ids (MemStore.Save and
// BlobStore.Save save every child before its parent) before a node
// referencing them can be serialized.
func toNode[K any, S any, T Item[K, S]](n *node[K, S, T]) Node[K, S, T] {
	if n.leaf {
		return Node[K, S, T]{Leaf: true, Items: append([]T(nil), n.items...)}
	}
	out := Node[K, S, T]{
		ChildSummaries: make([]S, len(n.children)),
		ChildKeys:      make([]K, len(n.children)),
		ChildIDs:       make([]NodeID, len(n.children)),
	}
	for i, c := range n.children {
		out.ChildSummaries[i] = c.summary
		out.ChildKeys[i] = c.key
		out.ChildIDs[i] = c.id
	}
	return out
}
