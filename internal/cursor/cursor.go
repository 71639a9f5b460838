// Package cursor implements a depth-first traversal over an epoch's three
// trees: a stack-based walk over CRDT-visible entries. A Cursor yields one
// Entry per visited file, in pre-order, and lets a caller skip an entire
// subtree (NextSibling) without descending into it.
package cursor

import (
	"github.com/nicolagi/memo/internal/clock"
	"github.com/nicolagi/memo/internal/epoch"
)

// Status classifies an Entry the way package diff classifies a two-tree
// comparison as added/removed/equal, except here it's a one-tree
// visibility classification: every Entry a Cursor yields currently exists
// (Visible is the only status Children ever returns), Removed is reserved
// for a caller that re-attaches an Entry captured from an earlier listing
// and wants to ask whether it is still there.
type Status uint8

const (
	Visible Status = iota
	Removed
)

func (s Status) String() string {
	if s == Removed {
		return "removed"
	}
	return "visible"
}

// Entry is one file visited by a Cursor.
type Entry struct {
	Depth  int
	Name   string
	ID     clock.FileID
	Type   epoch.FileType
	Status Status
}

// frame holds one directory's children, loaded once on first descent, and
// the index of the child last yielded.
type frame struct {
	children []epoch.ChildEntry
	index    int
}

// Cursor walks epoch e depth-first starting at root: a stack of frames,
// one per ancestor directory currently open, each holding that
// directory's children and a position within them. A Cursor is not safe
// for concurrent use.
type Cursor struct {
	e       *epoch.Epoch
	stack   []frame
	current Entry
	atRoot  bool
}

// New returns a cursor positioned at e's root directory. The first call to
// Next(true) descends into root's children.
func New(e *epoch.Epoch) *Cursor {
	return &Cursor{
		e:      e,
		atRoot: true,
		current: Entry{
			Depth:  0,
			Name:   "/",
			ID:     clock.RootFileID,
			Type:   epoch.Directory,
			Status: Visible,
		},
	}
}

// Item returns the entry the cursor is currently positioned at.
func (c *Cursor) Item() Entry {
	return c.current
}

// Next advances the cursor to the next entry in pre-order. If the current
// entry is a directory and descend is true, the next entry is its first
// child (or, if it has none, its next sibling); otherwise the next entry
// is the current one's next sibling, climbing the stack as needed. It
// returns false once every entry reachable from root has been visited.
func (c *Cursor) Next(descend bool) (bool, error) {
	if c.atRoot {
		c.atRoot = false
		return c.descendInto(c.current.ID)
	}
	if descend && c.current.Type == epoch.Directory {
		if ok, err := c.descendInto(c.current.ID); err != nil || ok {
			return ok, err
		}
		// Empty directory: fall through to advancing within the parent
		// frame, exactly as if descend had been false.
	}
	return c.advance()
}

// NextSibling advances the cursor to the current entry's next sibling
// without descending into it, even if it is a directory with children.
// This is the subtree-skip a caller uses to prune a branch it isn't
// interested in, backed by the same per-directory children slice that
// Next(true) populates lazily. That slice comes from epoch.Children, a
// linear scan over the directory's child-references; NextSibling does not
// seek by the visible_count summary.
func (c *Cursor) NextSibling() (bool, error) {
	return c.advance()
}

// advance moves to the next item in the top frame, popping exhausted
// frames until one has more children or the stack empties.
func (c *Cursor) advance() (bool, error) {
	for len(c.stack) > 0 {
		top := &c.stack[len(c.stack)-1]
		top.index++
		if top.index < len(top.children) {
			child := top.children[top.index]
			c.current = Entry{
				Depth:  len(c.stack),
				Name:   child.Name,
				ID:     child.ID,
				Type:   child.Type,
				Status: Visible,
			}
			return true, nil
		}
		c.stack = c.stack[:len(c.stack)-1]
	}
	return false, nil
}

// descendInto pushes a frame for dir's children and, if it has any,
// positions the cursor at the first one.
func (c *Cursor) descendInto(dir clock.FileID) (bool, error) {
	children, err := c.e.Children(dir)
	if err != nil {
		return false, errorf("Cursor.descendInto", "%v", err)
	}
	c.stack = append(c.stack, frame{children: children, index: -1})
	return c.advance()
}
