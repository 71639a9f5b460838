package sumtree

import (
	"bytes"
	"crypto/rand"
	"encoding/gob"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nicolagi/memo/internal/block"
	"github.com/nicolagi/memo/internal/storage"
)

// gobCodec is a minimal Codec for testItem, exercising BlobStore end to
// end without pulling in any of package epoch's real wire formats.
type gobCodec struct{}

func (gobCodec) Marshal(n Node[intKey, countSummary, testItem]) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(n); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (gobCodec) Unmarshal(raw []byte) (Node[intKey, countSummary, testItem], error) {
	var n Node[intKey, countSummary, testItem]
	err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&n)
	return n, err
}

func TestBlobStoreRoundTrip(t *testing.T) {
	tree := Extend[intKey, countSummary, testItem](countSummary{}, items(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20))

	store := NewBlobStore[intKey, countSummary, testItem](&storage.InMemory{}, gobCodec{}, nil)
	rootID, err := store.Save(tree)
	require.NoError(t, err)

	cold := Tree[intKey, countSummary, testItem]{root: childRef[intKey, countSummary, testItem]{id: rootID, summary: tree.Summary(), key: tree.root.key}}
	got, err := cold.flatten(store)
	require.NoError(t, err)
	assert.Len(t, got, 20)
}

func TestBlobStoreEncryptsAtRest(t *testing.T) {
	tree := Extend[intKey, countSummary, testItem](countSummary{}, items(1, 2, 3))

	backing := &storage.InMemory{}
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)
	cipher, err := block.NewCipher(key)
	require.NoError(t, err)

	store := NewBlobStore[intKey, countSummary, testItem](backing, gobCodec{}, cipher)
	rootID, err := store.Save(tree)
	require.NoError(t, err)

	raw, err := backing.Get(store.byID[rootID])
	require.NoError(t, err)
	var decoded Node[intKey, countSummary, testItem]
	assert.Error(t, gob.NewDecoder(bytes.NewReader(raw)).Decode(&decoded),
		"stored bytes should not gob-decode directly: they must be encrypted")

	cold := Tree[intKey, countSummary, testItem]{root: childRef[intKey, countSummary, testItem]{id: rootID, summary: tree.Summary(), key: tree.root.key}}
	got, err := cold.flatten(store)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}
