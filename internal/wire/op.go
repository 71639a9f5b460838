// Package wire implements the engine's operation and directory-entry wire
// formats: EncodeOp/DecodeOp hand-roll a fixed-layout binary codec for
// epoch.Op by hand-laying-out its fields before packing, since Op has no
// 9P analogue; EncodeDirEntry instead reuses github.com/lionkov/go9p/p
// directly, because a DirEntry is exactly the kind of record p.Dir/
// p.PackDir already exist to serialize. Buffer is an offset-indexed
// append-only buffer generalized to hold arbitrary wire-encoded records
// rather than just packed p.Dir ones.
package wire

import (
	"encoding/binary"
	"io"

	"github.com/nicolagi/memo/internal/clock"
	"github.com/nicolagi/memo/internal/epoch"
)

// EncodeOp serializes op as a discriminant byte (op.Kind) followed by the
// fields every op carries (OpID, Timestamp) and then the fields specific
// to its kind. OpEditText's Edits is opaque to this package and outside
// it; it round-trips only when it is a []byte or nil (an op.Edits of any
// other type has nothing for this layer to serialize).
func EncodeOp(op epoch.Op) ([]byte, error) {
	b := make([]byte, 0, 64)
	b = append(b, byte(op.Kind))
	b = appendLocal(b, op.OpID)
	b = appendLamport(b, op.Timestamp)

	switch op.Kind {
	case epoch.OpInsertDir, epoch.OpInsertText:
		b = appendFileID(b, op.NewFileID)
		b = appendFileID(b, op.ParentID)
		b = appendString(b, op.Name)
	case epoch.OpUpdateParent:
		b = appendFileID(b, op.Child)
		b = appendLamport(b, op.PrevTimestamp)
		b = appendSlot(b, op.NewParent)
	case epoch.OpEditText:
		b = appendFileID(b, op.TextFileID)
		var payload []byte
		if op.Edits != nil {
			var ok bool
			payload, ok = op.Edits.([]byte)
			if !ok {
				return nil, errorf("EncodeOp", "edit-text payload must be []byte or nil, got %T", op.Edits)
			}
		}
		b = appendBytes(b, payload)
	case epoch.OpStartEpoch:
		b = binary.BigEndian.AppendUint64(b, op.EpochID)
	default:
		return nil, errorf("EncodeOp", "unhandled op kind %v", op.Kind)
	}
	return b, nil
}

// DecodeOp parses one op from the front of b and returns it along with
// the number of bytes consumed, so a caller reading a concatenated stream
// of records (e.g. via Buffer) can advance past it.
func DecodeOp(b []byte) (epoch.Op, int, error) {
	r := &reader{b: b}
	kind, err := r.byte()
	if err != nil {
		return epoch.Op{}, 0, errorf("DecodeOp", "kind: %v", err)
	}
	op := epoch.Op{Kind: epoch.OpKind(kind)}
	if op.OpID, err = r.local(); err != nil {
		return epoch.Op{}, 0, errorf("DecodeOp", "op id: %v", err)
	}
	if op.Timestamp, err = r.lamport(); err != nil {
		return epoch.Op{}, 0, errorf("DecodeOp", "timestamp: %v", err)
	}

	switch op.Kind {
	case epoch.OpInsertDir, epoch.OpInsertText:
		if op.NewFileID, err = r.fileID(); err != nil {
			return epoch.Op{}, 0, errorf("DecodeOp", "new file id: %v", err)
		}
		if op.ParentID, err = r.fileID(); err != nil {
			return epoch.Op{}, 0, errorf("DecodeOp", "parent id: %v", err)
		}
		if op.Name, err = r.string(); err != nil {
			return epoch.Op{}, 0, errorf("DecodeOp", "name: %v", err)
		}
	case epoch.OpUpdateParent:
		if op.Child, err = r.fileID(); err != nil {
			return epoch.Op{}, 0, errorf("DecodeOp", "child: %v", err)
		}
		if op.PrevTimestamp, err = r.lamport(); err != nil {
			return epoch.Op{}, 0, errorf("DecodeOp", "prev timestamp: %v", err)
		}
		if op.NewParent, err = r.slot(); err != nil {
			return epoch.Op{}, 0, errorf("DecodeOp", "new parent: %v", err)
		}
	case epoch.OpEditText:
		if op.TextFileID, err = r.fileID(); err != nil {
			return epoch.Op{}, 0, errorf("DecodeOp", "text file id: %v", err)
		}
		payload, err := r.bytesWithUint32Len()
		if err != nil {
			return epoch.Op{}, 0, errorf("DecodeOp", "edits: %v", err)
		}
		if len(payload) > 0 {
			op.Edits = payload
		}
	case epoch.OpStartEpoch:
		v, err := r.uint64()
		if err != nil {
			return epoch.Op{}, 0, errorf("DecodeOp", "epoch id: %v", err)
		}
		op.EpochID = v
	default:
		return epoch.Op{}, 0, errorf("DecodeOp", "unhandled op kind %d", kind)
	}
	return op, r.pos, nil
}

func appendReplica(b []byte, id clock.ReplicaID) []byte {
	return append(b, id[:]...)
}

func appendLocal(b []byte, l clock.Local) []byte {
	b = appendReplica(b, l.Replica)
	return binary.BigEndian.AppendUint64(b, l.Counter)
}

func appendLamport(b []byte, ts clock.Lamport) []byte {
	b = binary.BigEndian.AppendUint64(b, ts.Value)
	return appendReplica(b, ts.Replica)
}

func appendFileID(b []byte, id clock.FileID) []byte {
	if base, ok := id.Base(); ok {
		b = append(b, 0)
		return binary.BigEndian.AppendUint64(b, base)
	}
	local, _ := id.Local()
	b = append(b, 1)
	return appendLocal(b, local)
}

func appendString(b []byte, s string) []byte {
	b = binary.BigEndian.AppendUint16(b, uint16(len(s)))
	return append(b, s...)
}

func appendBytes(b []byte, payload []byte) []byte {
	b = binary.BigEndian.AppendUint32(b, uint32(len(payload)))
	return append(b, payload...)
}

func appendSlot(b []byte, slot epoch.Slot) []byte {
	if !slot.Valid {
		return append(b, 0)
	}
	b = append(b, 1)
	b = appendFileID(b, slot.Parent)
	return appendString(b, slot.Name)
}

// reader consumes a []byte left to right, tracking how many bytes have
// been read so DecodeOp can report its own length to the caller.
type reader struct {
	b   []byte
	pos int
}

func (r *reader) need(n int) error {
	if len(r.b)-r.pos < n {
		return io.ErrUnexpectedEOF
	}
	return nil
}

func (r *reader) byte() (byte, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.b[r.pos]
	r.pos++
	return v, nil
}

func (r *reader) uint64() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint64(r.b[r.pos:])
	r.pos += 8
	return v, nil
}

func (r *reader) uint16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint16(r.b[r.pos:])
	r.pos += 2
	return v, nil
}

func (r *reader) uint32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(r.b[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *reader) replica() (clock.ReplicaID, error) {
	var id clock.ReplicaID
	if err := r.need(len(id)); err != nil {
		return id, err
	}
	copy(id[:], r.b[r.pos:])
	r.pos += len(id)
	return id, nil
}

func (r *reader) local() (clock.Local, error) {
	replica, err := r.replica()
	if err != nil {
		return clock.Local{}, err
	}
	counter, err := r.uint64()
	if err != nil {
		return clock.Local{}, err
	}
	return clock.Local{Replica: replica, Counter: counter}, nil
}

func (r *reader) lamport() (clock.Lamport, error) {
	value, err := r.uint64()
	if err != nil {
		return clock.Lamport{}, err
	}
	replica, err := r.replica()
	if err != nil {
		return clock.Lamport{}, err
	}
	return clock.Lamport{Value: value, Replica: replica}, nil
}

func (r *reader) fileID() (clock.FileID, error) {
	tag, err := r.byte()
	if err != nil {
		return clock.FileID{}, err
	}
	if tag == 0 {
		base, err := r.uint64()
		if err != nil {
			return clock.FileID{}, err
		}
		return clock.BaseFileID(base), nil
	}
	local, err := r.local()
	if err != nil {
		return clock.FileID{}, err
	}
	return clock.NewFileID(local), nil
}

func (r *reader) string() (string, error) {
	n, err := r.uint16()
	if err != nil {
		return "", err
	}
	if err := r.need(int(n)); err != nil {
		return "", err
	}
	s := string(r.b[r.pos : r.pos+int(n)])
	r.pos += int(n)
	return s, nil
}

func (r *reader) bytesWithUint32Len() ([]byte, error) {
	n, err := r.uint32()
	if err != nil {
		return nil, err
	}
	if err := r.need(int(n)); err != nil {
		return nil, err
	}
	out := append([]byte(nil), r.b[r.pos:r.pos+int(n)]...)
	r.pos += int(n)
	return out, nil
}

func (r *reader) slot() (epoch.Slot, error) {
	valid, err := r.byte()
	if err != nil {
		return epoch.Slot{}, err
	}
	if valid == 0 {
		return epoch.Slot{}, nil
	}
	parent, err := r.fileID()
	if err != nil {
		return epoch.Slot{}, err
	}
	name, err := r.string()
	if err != nil {
		return epoch.Slot{}, err
	}
	return epoch.Slot{Parent: parent, Name: name, Valid: true}, nil
}
