package sumtree

import (
	"fmt"
	"sync"

	"github.com/nicolagi/memo/internal/block"
	"github.com/nicolagi/memo/internal/storage"
)

// Codec serializes and deserializes the nodes of one concrete Tree
// instantiation. Every tree the epoch package owns (metadata,
// parent-reference, child-reference) supplies its own Codec describing its
// on-disk node format.
type Codec[K any, S any, T Item[K, S]] interface {
	Marshal(Node[K, S, T]) ([]byte, error)
	Unmarshal([]byte) (Node[K, S, T], error)
}

// BlobStore is a NodeStore backed by a content-addressed storage.Store: a
// node's bytes are addressed by block.RefOf, the same sha256 addressing
// sealed blocks use. A node is immutable once written, so unlike the
// teacher's mutable Block abstraction there is no dirty/clean/primed state
// to track — it either exists at its hash or it doesn't.
//
// NodeID stays a compact uint64 (it is threaded through every child
// summary array and, eventually, the operation wire format) rather than a
// full hash, so BlobStore keeps a small manifest translating each minted
// id to the storage.Key holding its content. Save is idempotent: a
// childRef that already carries a nonzero id is assumed unchanged and is
// never rewritten.
//
// If cipher is non-nil, every node's serialized bytes are encrypted before
// Put and decrypted after Get, so at-rest content never touches the
// storage.Store in the clear. The content address (block.RefOf, and hence
// the storage.Key) is always computed over the plaintext bytes, not the
// ciphertext, so two replicas holding the same node content agree on its
// key regardless of the random IV each encryption picks.
type BlobStore[K any, S any, T Item[K, S]] struct {
	mu     sync.RWMutex
	store  storage.Store
	codec  Codec[K, S, T]
	cipher *block.Cipher
	byID   map[NodeID]storage.Key
	nextID uint64
}

func NewBlobStore[K any, S any, T Item[K, S]](store storage.Store, codec Codec[K, S, T], cipher *block.Cipher) *BlobStore[K, S, T] {
	return &BlobStore[K, S, T]{store: store, codec: codec, cipher: cipher, byID: make(map[NodeID]storage.Key)}
}

func (b *BlobStore[K, S, T]) ReadNode(id NodeID) (Node[K, S, T], error) {
	b.mu.RLock()
	key, ok := b.byID[id]
	b.mu.RUnlock()
	if !ok {
		return Node[K, S, T]{}, fmt.Errorf("sumtree: blob store: unknown node id %d", id)
	}
	raw, err := b.store.Get(key)
	if err != nil {
		return Node[K, S, T]{}, fmt.Errorf("sumtree: blob store: read node %d: %w", id, err)
	}
	if b.cipher != nil {
		raw, err = b.cipher.Decrypt(raw)
		if err != nil {
			return Node[K, S, T]{}, fmt.Errorf("sumtree: blob store: decrypt node %d: %w", id, err)
		}
	}
	return b.codec.Unmarshal(raw)
}

// Save persists every not-yet-persisted node reachable from t's root,
// bottom-up, and returns the id of the root.
func (b *BlobStore[K, S, T]) Save(t Tree[K, S, T]) (NodeID, error) {
	return b.save(&t.root)
}

func (b *BlobStore[K, S, T]) save(ref *childRef[K, S, T]) (NodeID, error) {
	if ref.resident == nil {
		if ref.id == 0 {
			return 0, fmt.Errorf("sumtree: blob store: cold ref with no id")
		}
		return ref.id, nil
	}
	if ref.id != 0 {
		return ref.id, nil
	}
	n := ref.resident
	if !n.leaf {
		for i := range n.children {
			id, err := b.save(&n.children[i])
			if err != nil {
				return 0, err
			}
			n.children[i].id = id
		}
	}
	raw, err := b.codec.Marshal(toNode(n))
	if err != nil {
		return 0, fmt.Errorf("sumtree: blob store: marshal node: %w", err)
	}
	key := block.RefOf(raw).Key()
	stored := raw
	if b.cipher != nil {
		stored, err = b.cipher.Encrypt(raw)
		if err != nil {
			return 0, fmt.Errorf("sumtree: blob store: encrypt node: %w", err)
		}
	}
	if err := b.store.Put(key, storage.Value(stored)); err != nil {
		return 0, fmt.Errorf("sumtree: blob store: put node: %w", err)
	}
	b.mu.Lock()
	b.nextID++
	id := NodeID(b.nextID)
	b.byID[id] = key
	b.mu.Unlock()
	ref.id = id
	return id, nil
}
