// Package opqueue implements the Lamport-ordered operation set used both
// to stage operations waiting to be broadcast and to bucket operations
// deferred until a future epoch starts. Unlike a fixed-capacity,
// overwrite-oldest ring buffer, it is a sorted, deduplicating set keyed by
// timestamp, built on package sumtree rather than a plain slice so Insert
// stays O(log n) and Len stays O(1) via the cached summary. It has no
// capacity limit: nothing is evicted, and operations leave the queue only
// through Drain or DrainIf.
package opqueue

import (
	"github.com/nicolagi/memo/internal/clock"
	"github.com/nicolagi/memo/internal/epoch"
	"github.com/nicolagi/memo/internal/sumtree"
)

type queueTree = sumtree.Tree[clock.Lamport, summary, entry]
type queueStore = sumtree.NodeStore[clock.Lamport, summary, entry]

// summary carries just a count: Queue.Len is O(1) by reading it off the
// tree root rather than walking every node.
type summary struct{ n int }

func (s summary) Add(other summary) summary { return summary{n: s.n + other.n} }

// entry adapts epoch.Op to sumtree.Item, keyed by its Lamport timestamp.
type entry struct{ op epoch.Op }

func (e entry) ItemKey() clock.Lamport { return e.op.Timestamp }
func (e entry) ItemSummary() summary   { return summary{n: 1} }

// Queue is an unbounded monotone set of operations kept sorted by timestamp,
// deduplicating on insert: inserting an op whose timestamp already occupies
// a slot replaces the prior entry, the same idempotent replace-on-put
// semantics storage.Store gives callers.
type Queue struct {
	tree  queueTree
	store queueStore
}

// Option configures a fresh Queue.
type Option func(*Queue)

// WithNodeStore supplies the persistence seam; without it a Queue is
// purely in-memory.
func WithNodeStore(store queueStore) Option {
	return func(q *Queue) { q.store = store }
}

// New returns an empty queue.
func New(opts ...Option) *Queue {
	q := &Queue{tree: sumtree.Empty[clock.Lamport, summary, entry](summary{})}
	for _, o := range opts {
		o(q)
	}
	return q
}

// Insert adds op to the queue, replacing any existing entry with the same
// timestamp.
func (q *Queue) Insert(op epoch.Op) error {
	tree, err := q.tree.Edit(q.store, []sumtree.EditOp[clock.Lamport, entry]{
		sumtree.Insert(entry{op: op}, op.Timestamp),
	})
	if err != nil {
		return errorf("Queue.Insert", "%v", err)
	}
	q.tree = tree
	return nil
}

// Len reports the number of queued operations in O(1).
func (q *Queue) Len() int {
	return q.tree.Summary().n
}

// Drain removes and returns every queued operation in ascending timestamp
// order.
func (q *Queue) Drain() ([]epoch.Op, error) {
	return q.DrainIf(func(epoch.Op) bool { return true })
}

// DrainIf removes and returns, in ascending timestamp order, every queued
// operation for which predicate returns true; operations that don't match
// remain queued.
func (q *Queue) DrainIf(predicate func(epoch.Op) bool) ([]epoch.Op, error) {
	items, err := q.tree.Items(q.store)
	if err != nil {
		return nil, errorf("Queue.DrainIf", "%v", err)
	}

	var drained []epoch.Op
	var kept []entry
	for _, it := range items {
		if predicate(it.op) {
			drained = append(drained, it.op)
		} else {
			kept = append(kept, it)
		}
	}
	q.tree = sumtree.Extend[clock.Lamport, summary, entry](summary{}, kept)
	return drained, nil
}
