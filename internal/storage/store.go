package storage

import (
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/nicolagi/memo/internal/config"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrNotImplemented = errors.New("not implemented")
)

// Key identifies a blob in a Store. The sum-tree node store and the
// revision/baseline stores all share this key space; callers are
// responsible for choosing a namespacing scheme (sumtree/blobstore.go keys
// each node by the content hash of its plaintext bytes, with no epoch
// prefix).
type Key string

// RandomKey generates a random sequence of length bytes and converts it to a
// key in hex (byte length of the key will then be double the requested length).
func RandomKey(length uint8) (Key, error) {
	if length == 0 {
		return "", nil
	}
	b := make([]byte, length)
	n, err := rand.Read(b)
	if err != nil {
		return "", err
	}
	if n != int(length) {
		return "", fmt.Errorf("key of length %d required, got only %d bytes", length, n)
	}
	return Key(fmt.Sprintf("%x", b)), nil
}

type Value []byte

// Store is the minimal persistence seam: get, put, delete a blob by key.
// NodeStore implementations in package sumtree are built on top of a Store.
type Store interface {
	Get(Key) (Value, error)
	Put(Key, Value) error
	Delete(Key) error
}

type Lister interface {
	List() (keys chan string, err error)
}

type Enumerable interface {
	Store
	Contains(Key) (bool, error)
	ForEach(func(Key) error) error
}

// NewStore constructs the permanent-storage backend selected by c.Storage.
func NewStore(c *config.C) (Store, error) {
	switch c.Storage {
	case "disk":
		return NewDiskStore(c.DiskStoreDir), nil
	case "null":
		return NullStore{}, nil
	case "s3":
		return newS3Store(c)
	case "rpc":
		return NewRemoteStore("tcp", c.RPCAddress)
	default:
		return nil, fmt.Errorf("%q: %w", c.Storage, ErrNotImplemented)
	}
}
