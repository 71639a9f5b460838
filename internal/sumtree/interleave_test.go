package sumtree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterleaveSplicesNewItemsInOrder(t *testing.T) {
	old := Extend[intKey, countSummary, testItem](countSummary{}, items(1, 2, 5, 8, 10))

	merged, err := Interleave[intKey, countSummary, testItem](nil, old, items(3, 4, 9))
	require.NoError(t, err)

	got, err := merged.flatten(nil)
	require.NoError(t, err)
	var keys []int
	for _, it := range got {
		keys = append(keys, int(it.key))
	}
	assert.Equal(t, []int{1, 2, 3, 4, 5, 8, 9, 10}, keys)
}

func TestInterleaveWithNoNewItemsIsIdentity(t *testing.T) {
	old := Extend[intKey, countSummary, testItem](countSummary{}, items(1, 2, 3))
	merged, err := Interleave[intKey, countSummary, testItem](nil, old, nil)
	require.NoError(t, err)
	assert.Equal(t, old.Summary(), merged.Summary())
}

func TestInterleaveRejectsOutOfOrderNewItems(t *testing.T) {
	old := Extend[intKey, countSummary, testItem](countSummary{}, items(1, 5))
	_, err := Interleave[intKey, countSummary, testItem](nil, old, items(4, 2))
	var kerr *KeyOutOfOrder
	assert.ErrorAs(t, err, &kerr)
}

func TestInterleaveIntoEmptyTree(t *testing.T) {
	old := Empty[intKey, countSummary, testItem](countSummary{})
	merged, err := Interleave[intKey, countSummary, testItem](nil, old, items(1, 2, 3))
	require.NoError(t, err)
	got, err := merged.flatten(nil)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}
