package wire

import (
	"sort"
)

// Buffer is an append-only, offset-indexed byte buffer holding arbitrary
// wire-encoded records (EncodeOp output, or a batch of EncodeDirEntry
// calls). Read serves the same "offset must be 0 or a previous read's end"
// contract 9P directory reads require, so a paused reader can resume
// exactly where it left off. No other package in this module uses it.
type Buffer struct {
	records    []byte
	recordEnds []int
}

// Reset empties the buffer.
func (buf *Buffer) Reset() {
	buf.records = nil
	buf.recordEnds = nil
}

// Write appends one already wire-encoded record.
func (buf *Buffer) Write(record []byte) {
	buf.records = append(buf.records, record...)
	buf.recordEnds = append(buf.recordEnds, len(buf.records))
}

// Read copies into b as many whole records as fit, starting at offset,
// which must be 0 or the end offset of a previously written record.
func (buf *Buffer) Read(b []byte, offset int) (n int, err error) {
	count := len(b)
	if offset > 0 {
		i := sort.SearchInts(buf.recordEnds, offset)
		if i == len(buf.recordEnds) || buf.recordEnds[i] != offset {
			return 0, errorf("Buffer.Read", "%d is not a record boundary", offset)
		}
	}
	j := sort.SearchInts(buf.recordEnds, offset+count)
	if j == len(buf.recordEnds) || buf.recordEnds[j] != offset+count {
		if j == 0 {
			count = 0
		} else {
			count = buf.recordEnds[j-1] - offset
		}
	}
	if count < 0 {
		return 0, errorf("Buffer.Read", "buffer %d bytes too small for next record", -count)
	}
	return copy(b, buf.records[offset:offset+count]), nil
}
