// Package clock implements the identifiers and logical clocks the rest of
// the engine orders operations by: replica identifiers, the local clock used
// to mint file identifiers, and the Lamport clock used to order operations
// across replicas.
package clock

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// ReplicaID is an opaque, totally ordered, 128-bit value unique per
// participant. It plays the same role storage.Key does for blobs: an
// application-level identifier with a canonical hex string form.
type ReplicaID [16]byte

// NewReplicaID generates a random replica identifier.
func NewReplicaID() (ReplicaID, error) {
	var id ReplicaID
	if _, err := rand.Read(id[:]); err != nil {
		return id, fmt.Errorf("clock.NewReplicaID: %w", err)
	}
	return id, nil
}

// ReplicaIDFromHex parses the hex representation produced by String.
func ReplicaIDFromHex(s string) (ReplicaID, error) {
	var id ReplicaID
	b, err := hex.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("clock.ReplicaIDFromHex %q: %w", s, err)
	}
	if len(b) != len(id) {
		return id, fmt.Errorf("clock.ReplicaIDFromHex %q: want %d bytes, got %d", s, len(id), len(b))
	}
	copy(id[:], b)
	return id, nil
}

func (id ReplicaID) String() string {
	return hex.EncodeToString(id[:])
}

// Less orders replica identifiers by their byte representation, the total
// order every other ordering in this package (and in package epoch) falls
// back to when Lamport values tie.
func (id ReplicaID) Less(other ReplicaID) bool {
	for i := range id {
		if id[i] != other[i] {
			return id[i] < other[i]
		}
	}
	return false
}
