package sumtree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// intKey and countSummary instantiate the generic parameters with the
// simplest possible concrete types, so tests exercise tree mechanics
// without any of package epoch's domain complexity.

type intKey int

func (k intKey) Less(other intKey) bool { return k < other }

type countSummary struct {
	n int
}

func (s countSummary) Add(other countSummary) countSummary {
	return countSummary{n: s.n + other.n}
}

type countDim int

func (d countDim) Less(other countDim) bool { return d < other }

type countDimension struct{}

func (countDimension) FromSummary(s countSummary) countDim {
	return countDim(s.n)
}

type testItem struct {
	key intKey
}

func (it testItem) ItemKey() intKey          { return it.key }
func (it testItem) ItemSummary() countSummary { return countSummary{n: 1} }

func items(keys ...int) []testItem {
	out := make([]testItem, len(keys))
	for i, k := range keys {
		out[i] = testItem{key: intKey(k)}
	}
	return out
}

func TestExtendThenFlatten(t *testing.T) {
	tree := Extend[intKey, countSummary, testItem](countSummary{}, items(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20, 21, 22, 23, 24, 25))
	assert.Equal(t, 25, tree.Summary().n)

	got, err := tree.flatten(nil)
	require.NoError(t, err)
	require.Len(t, got, 25)
	for i, it := range got {
		assert.Equal(t, intKey(i+1), it.key)
	}
}

func TestEditInsertAndRemove(t *testing.T) {
	tree := Extend[intKey, countSummary, testItem](countSummary{}, items(1, 3, 5, 7, 9))

	edited, err := tree.Edit(nil, []EditOp[intKey, testItem]{
		Insert(testItem{key: 2}, 2),
		Insert(testItem{key: 4}, 4),
		Remove[intKey, testItem](5),
		Insert(testItem{key: 10}, 10),
	})
	require.NoError(t, err)

	got, err := edited.flatten(nil)
	require.NoError(t, err)
	var keys []int
	for _, it := range got {
		keys = append(keys, int(it.key))
	}
	assert.Equal(t, []int{1, 2, 3, 4, 7, 9, 10}, keys)
}

func TestEditRejectsOutOfOrderBatch(t *testing.T) {
	tree := Extend[intKey, countSummary, testItem](countSummary{}, items(1, 2, 3))
	_, err := tree.Edit(nil, []EditOp[intKey, testItem]{
		Insert(testItem{key: 5}, 5),
		Insert(testItem{key: 4}, 4),
	})
	var kerr *KeyOutOfOrder
	assert.ErrorAs(t, err, &kerr)
}

func TestEditOnEmptyTree(t *testing.T) {
	tree := Empty[intKey, countSummary, testItem](countSummary{})
	edited, err := tree.Edit(nil, []EditOp[intKey, testItem]{
		Insert(testItem{key: 1}, 1),
		Insert(testItem{key: 2}, 2),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, edited.Summary().n)
}

// TestEditSharesUntouchedSubtrees asserts Edit's path-copy guarantee
// directly: a child whose subtree contains none of the batch's keys comes
// back out of Edit as the exact same childRef (same node pointer, same
// persisted id) rather than a freshly rebuilt one, which is the property
// that makes Edit O(log n) instead of O(n).
func TestEditSharesUntouchedSubtrees(t *testing.T) {
	keys := make([]int, 100)
	for i := range keys {
		keys[i] = i + 1
	}
	tree := Extend[intKey, countSummary, testItem](countSummary{}, items(keys...))
	store := NewMemStore[intKey, countSummary, testItem]()
	_, err := store.Save(tree)
	require.NoError(t, err)

	root := tree.root.resident
	require.NotNil(t, root)
	require.False(t, root.leaf, "100 items at maxItems=12 should build an internal root")
	before := append([]childRef[intKey, countSummary, testItem](nil), root.children...)

	edited, err := tree.Edit(store, []EditOp[intKey, testItem]{
		Insert(testItem{key: 1000}, 1000),
	})
	require.NoError(t, err)

	after := edited.root.resident
	require.NotNil(t, after)
	require.False(t, after.leaf)

	shared := 0
	for _, b := range before {
		for _, a := range after.children {
			if a.resident == b.resident && a.id == b.id {
				shared++
				break
			}
		}
	}
	// Only the last child (which absorbs the new key, beyond the old max)
	// should have been rebuilt; every other sibling is reused verbatim.
	assert.Equal(t, len(before)-1, shared)
}

func TestMemStoreRoundTrip(t *testing.T) {
	tree := Extend[intKey, countSummary, testItem](countSummary{}, items(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20))
	store := NewMemStore[intKey, countSummary, testItem]()
	rootID, err := store.Save(tree)
	require.NoError(t, err)

	// Force every node to be re-resolved from the store by discarding
	// residency, simulating a cold load in a new process.
	cold := Tree[intKey, countSummary, testItem]{root: childRef[intKey, countSummary, testItem]{id: rootID, summary: tree.Summary(), key: tree.root.key}}

	got, err := cold.flatten(store)
	require.NoError(t, err)
	assert.Len(t, got, 20)
}
