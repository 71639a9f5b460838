// Package external declares the seams the engine suspends across, without
// implementing any of them: the git provider that feeds a baseline
// listing, the change observer a text-buffer CRDT notifies, the buffer
// handle the work tree forwards text operations to, and the pull-based
// sequence shape all of the above stream through. Concrete adapters (a
// go-git-backed GitProvider, a network-backed ChangeObserver) live outside
// this module; the engine only ever depends on these interfaces.
package external

import (
	"context"

	"github.com/nicolagi/memo/internal/clock"
	"github.com/nicolagi/memo/internal/epoch"
)

// LazySeq is a pull-based iterator: Next blocks (cooperatively, honoring
// ctx) until the next value is ready, exhaustion, or error. It mirrors
// sumtree.Cursor's own pull shape and epoch.BaselineStream's Next method,
// generalized to carry a context so a suspension point can be cancelled.
type LazySeq[T any] interface {
	Next(ctx context.Context) (T, bool, error)
}

// DirEntry is one pre-order entry of a baseline tree listing; depth values
// between consecutive entries differ by at most +1.
type DirEntry struct {
	Depth int
	Name  string
	Type  epoch.FileType
}

// GitProvider supplies the baseline a fresh or reset epoch streams in.
// BaseEntries yields a pre-order DFS listing at oid; BaseText fetches one
// file's content lazily, since most baseline files are never opened.
type GitProvider interface {
	BaseEntries(oid [20]byte) LazySeq[DirEntry]
	BaseText(ctx context.Context, oid [20]byte, path string) (string, error)
}

// Point is a (line, column) position in a text buffer, using UTF-16 code
// units to match the wire format's new_code_units.
type Point struct {
	Line   int
	Column int
}

// Change is one edit a text-buffer CRDT reports to its observer.
type Change struct {
	Start, End Point
	NewText    []uint16
}

// ChangeObserver is notified by the text-buffer CRDT whenever remote edits
// land on a buffer it owns. Nothing in this module implements it; like the
// other adapters named in the package comment, implementations live
// outside this module.
type ChangeObserver interface {
	TextChanged(bufferID clock.FileID, changes LazySeq[Change])
}

// EditOp is the operation a text-buffer edit produces, opaque to the
// engine beyond carrying enough to route and broadcast it; the fragment
// tree and anchor bookkeeping behind it live in the buffer CRDT.
type EditOp struct {
	BufferID clock.FileID
	Payload  interface{}
}

// BufferHandle is what OpenTextFile hands back: a live handle onto one
// file's collaborative buffer.
type BufferHandle interface {
	Text() string
	Edit(ranges []Point, text string) (EditOp, error)
	ApplyRemote(op EditOp) error
}

// TextBuffer opens buffer handles by file id. Its internals (fragment
// tree, anchors, the edit CRDT itself) are a separate collaborator the
// work tree forwards to; this module never implements one.
type TextBuffer interface {
	Open(fileID clock.FileID) (BufferHandle, error)
}
