package wire_test

import (
	"testing"

	"github.com/nicolagi/memo/internal/epoch"
	"github.com/nicolagi/memo/internal/external"
	"github.com/nicolagi/memo/internal/wire"
	"github.com/stretchr/testify/assert"
)

func TestEncodeDirEntryIsNonEmptyAndDeterministic(t *testing.T) {
	entry := external.DirEntry{Depth: 1, Name: "readme.txt", Type: epoch.Text}
	a := wire.EncodeDirEntry(entry)
	b := wire.EncodeDirEntry(entry)
	assert.NotEmpty(t, a)
	assert.Equal(t, a, b)
}

func TestEncodeDirEntryDiffersByType(t *testing.T) {
	dir := wire.EncodeDirEntry(external.DirEntry{Name: "docs", Type: epoch.Directory})
	file := wire.EncodeDirEntry(external.DirEntry{Name: "docs", Type: epoch.Text})
	assert.NotEqual(t, dir, file)
}
