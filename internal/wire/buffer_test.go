package wire

import (
	"io"
	"testing"
	"testing/quick"
)

type bufferReader struct {
	buf *Buffer
	off int
}

func (r *bufferReader) Read(p []byte) (n int, err error) {
	n, err = r.buf.Read(p, r.off)
	if n > 0 {
		r.off += n
	} else if err == nil {
		err = io.EOF
	}
	return
}

func TestBufferZeroBytesWhenRecordLargerThanReadBuffer(t *testing.T) {
	buf := &Buffer{}
	for i := 0; i < 1000; i++ {
		buf.Write(make([]byte, 64))
	}
	small := make([]byte, 8)
	n, err := buf.Read(small, 0)
	if err != nil {
		t.Errorf("got %v, want nil error", err)
	}
	if n != 0 {
		t.Errorf("got %d bytes, want 0 (record larger than buffer)", n)
	}
}

func TestBufferCanReadAllRegardlessOfChunkSize(t *testing.T) {
	f := func(recordSizes []uint8) bool {
		buf := &Buffer{}
		for _, size := range recordSizes {
			record := make([]byte, int(size)%32+1)
			buf.Write(record)
		}
		got, err := io.ReadAll(&bufferReader{buf: buf})
		if err != nil {
			t.Errorf("got %v, want nil", err)
			return false
		}
		if len(got) != len(buf.records) {
			t.Errorf("got %d bytes, want %d", len(got), len(buf.records))
			return false
		}
		return true
	}
	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}

func TestBufferRejectsOffsetNotOnRecordBoundary(t *testing.T) {
	buf := &Buffer{}
	buf.Write([]byte("abc"))
	buf.Write([]byte("de"))
	if _, err := buf.Read(make([]byte, 5), 2); err == nil {
		t.Error("got nil error, want one: offset 2 is mid-record")
	}
}
