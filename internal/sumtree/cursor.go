package sumtree

// frame is one level of a Cursor's descent: the resolved node at that
// level and the index of the child/item currently selected within it.
type frame[K any, S any, T Item[K, S]] struct {
	n     *node[K, S, T]
	index int
}

// Cursor walks a Tree in key order. A Cursor is not safe for concurrent
// use: traversal state is single-goroutine-owned.
type Cursor[K KeyOrdered[K], S Summary[S], T Item[K, S]] struct {
	store  NodeStore[K, S, T]
	zero   S
	frames []frame[K, S, T]
	atEnd  bool
}

// NewCursor returns a cursor positioned before the first item of t.
func NewCursor[K KeyOrdered[K], S Summary[S], T Item[K, S]](store NodeStore[K, S, T], t Tree[K, S, T]) (*Cursor[K, S, T], error) {
	c := &Cursor[K, S, T]{store: store, zero: t.zero}
	if err := c.descendLeftmost(&t.root); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Cursor[K, S, T]) descendLeftmost(ref *childRef[K, S, T]) error {
	n, err := resolve(c.store, ref)
	if err != nil {
		return err
	}
	c.frames = append(c.frames, frame[K, S, T]{n: n, index: 0})
	if n.leaf {
		c.atEnd = len(n.items) == 0
		return nil
	}
	return c.descendLeftmost(&n.children[0])
}

// Seek repositions the cursor at the first item whose projection onto dim
// satisfies the bias relative to target: with Left, the first item whose
// running dimension value is >= target; with Right, the first item whose
// running dimension value is > target. Seek always starts over from the
// tree's root, costing O(log n).
func Seek[K KeyOrdered[K], S Summary[S], T Item[K, S], D KeyOrdered[D]](c *Cursor[K, S, T], t Tree[K, S, T], dim Dimension[S, D], target D, bias Bias) error {
	c.frames = c.frames[:0]
	c.atEnd = false
	running := c.zero
	ref := &t.root
	for {
		n, err := resolve(c.store, ref)
		if err != nil {
			return err
		}
		if n.leaf {
			for i, it := range n.items {
				trial := running.Add(it.ItemSummary())
				d := dim.FromSummary(trial)
				if satisfies(d, target, bias) {
					c.frames = append(c.frames, frame[K, S, T]{n: n, index: i})
					return nil
				}
				running = trial
			}
			c.frames = append(c.frames, frame[K, S, T]{n: n, index: len(n.items)})
			c.atEnd = true
			return nil
		}
		found := false
		for i := range n.children {
			trial := running.Add(n.children[i].summary)
			d := dim.FromSummary(trial)
			if satisfies(d, target, bias) {
				c.frames = append(c.frames, frame[K, S, T]{n: n, index: i})
				ref = &n.children[i]
				found = true
				break
			}
			running = trial
		}
		if !found {
			c.frames = append(c.frames, frame[K, S, T]{n: n, index: len(n.children)})
			c.atEnd = true
			return nil
		}
	}
}

// SeekKey repositions the cursor at the first item whose key satisfies
// bias relative to target, comparing keys directly rather than through a
// Dimension projection. This is the primitive composite-key trees (e.g.
// package epoch's (child_id, timestamp DESC) parent-reference key) use for
// exact-match and prefix descent: every child already caches the max key
// of its subtree, so no summary is involved.
func SeekKey[K KeyOrdered[K], S Summary[S], T Item[K, S]](c *Cursor[K, S, T], t Tree[K, S, T], target K, bias Bias) error {
	c.frames = c.frames[:0]
	c.atEnd = false
	ref := &t.root
	for {
		n, err := resolve(c.store, ref)
		if err != nil {
			return err
		}
		if n.leaf {
			for i, it := range n.items {
				if satisfies(it.ItemKey(), target, bias) {
					c.frames = append(c.frames, frame[K, S, T]{n: n, index: i})
					return nil
				}
			}
			c.frames = append(c.frames, frame[K, S, T]{n: n, index: len(n.items)})
			c.atEnd = true
			return nil
		}
		found := false
		for i := range n.children {
			if satisfies(n.children[i].key, target, bias) {
				c.frames = append(c.frames, frame[K, S, T]{n: n, index: i})
				ref = &n.children[i]
				found = true
				break
			}
		}
		if !found {
			c.frames = append(c.frames, frame[K, S, T]{n: n, index: len(n.children)})
			c.atEnd = true
			return nil
		}
	}
}

// satisfies reports whether a running dimension value d has reached target
// per bias: Left stops at the first value >= target, Right at the first
// value > target.
func satisfies[D KeyOrdered[D]](d, target D, bias Bias) bool {
	if bias == Right {
		return target.Less(d)
	}
	return !d.Less(target)
}

// Item returns the item at the cursor's current position, or ok=false if
// the cursor is positioned at or past the end of the tree.
func (c *Cursor[K, S, T]) Item() (item T, ok bool) {
	if c.atEnd || len(c.frames) == 0 {
		return item, false
	}
	top := c.frames[len(c.frames)-1]
	if top.index >= len(top.n.items) {
		return item, false
	}
	return top.n.items[top.index], true
}

// Next advances the cursor by one item. It returns false once the cursor
// has moved past the last item. Sequential calls are amortized O(1):
// advancing within a leaf is O(1), and climbing to the next leaf happens
// once per leaf boundary.
func (c *Cursor[K, S, T]) Next() (bool, error) {
	if c.atEnd {
		return false, nil
	}
	for len(c.frames) > 0 {
		top := &c.frames[len(c.frames)-1]
		top.index++
		if top.n.leaf {
			if top.index < len(top.n.items) {
				return true, nil
			}
			c.frames = c.frames[:len(c.frames)-1]
			continue
		}
		if top.index < len(top.n.children) {
			if err := c.descendLeftmost(&top.n.children[top.index]); err != nil {
				return false, err
			}
			return true, nil
		}
		c.frames = c.frames[:len(c.frames)-1]
	}
	c.atEnd = true
	return false, nil
}

// remaining flattens everything from the cursor's current position
// (inclusive) to the end of the tree, without touching anything before it.
func (c *Cursor[K, S, T]) remaining() ([]T, error) {
	var out []T
	if c.atEnd || len(c.frames) == 0 {
		return out, nil
	}
	frames := append([]frame[K, S, T](nil), c.frames...)
	for {
		top := frames[len(frames)-1]
		if top.n.leaf {
			out = append(out, top.n.items[top.index:]...)
		}
		frames = frames[:len(frames)-1]
		if len(frames) == 0 {
			break
		}
		parent := &frames[len(frames)-1]
		for i := parent.index + 1; i < len(parent.n.children); i++ {
			child, err := resolve(c.store, &parent.n.children[i])
			if err != nil {
				return nil, err
			}
			if err := flattenNode(c.store, child, &out); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// Suffix returns a new tree containing every item from the cursor's
// current position to the end, and advances the cursor to the end.
func (c *Cursor[K, S, T]) Suffix(zero S) (Tree[K, S, T], error) {
	items, err := c.remaining()
	if err != nil {
		return Tree[K, S, T]{}, err
	}
	c.atEnd = true
	c.frames = nil
	return Extend[K, S, T](zero, items), nil
}

// Slice returns a new tree containing every item from the cursor's current
// position up to (per bias) end, and advances the cursor to that boundary.
// With Left, items equal to end are excluded; with Right, they are
// included.
func (c *Cursor[K, S, T]) Slice(zero S, end K, bias Bias) (Tree[K, S, T], error) {
	var out []T
	for {
		item, ok := c.Item()
		if !ok {
			break
		}
		k := item.ItemKey()
		if bias == Right {
			if end.Less(k) {
				break
			}
		} else if !k.Less(end) {
			break
		}
		out = append(out, item)
		if more, err := c.Next(); err != nil {
			return Tree[K, S, T]{}, err
		} else if !more {
			break
		}
	}
	return Extend[K, S, T](zero, out), nil
}
