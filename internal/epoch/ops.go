package epoch

import "github.com/nicolagi/memo/internal/clock"

// OpKind discriminates the operation taxonomy the engine replicates.
type OpKind uint8

const (
	OpInsertDir OpKind = iota
	OpInsertText
	OpUpdateParent
	OpEditText
	OpStartEpoch
)

func (k OpKind) String() string {
	switch k {
	case OpInsertDir:
		return "insert-dir"
	case OpInsertText:
		return "insert-text"
	case OpUpdateParent:
		return "update-parent"
	case OpEditText:
		return "edit-text"
	case OpStartEpoch:
		return "start-epoch"
	default:
		return "unknown"
	}
}

// Op is a single discriminated operation record. Every op carries OpID (a
// LocalClock tick, globally unique to the minting replica) and Timestamp
// (a LamportClock tick); integration and broadcast order entirely by
// Timestamp.
//
// A single tagged struct, rather than one type per kind plus an interface,
// mirrors how the engine's wire format (internal/wire) has to lay out
// these records anyway: a fixed discriminant byte followed by the fields
// relevant to that kind.
type Op struct {
	Kind      OpKind
	OpID      clock.Local
	Timestamp clock.Lamport

	// InsertDir / InsertText
	NewFileID clock.FileID
	ParentID  clock.FileID
	Name      string

	// UpdateParent
	Child         clock.FileID
	PrevTimestamp clock.Lamport
	NewParent     Slot

	// EditText: opaque to this package, forwarded to the external buffer
	// CRDT.
	TextFileID clock.FileID
	Edits      interface{}

	// StartEpoch
	EpochID uint64
}
