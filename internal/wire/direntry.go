package wire

import (
	"github.com/lionkov/go9p/p"

	"github.com/nicolagi/memo/internal/epoch"
	"github.com/nicolagi/memo/internal/external"
)

// EncodeDirEntry packs e via p.PackDir: a baseline listing's DirEntry is
// exactly the kind of record p.Dir/p.PackDir already exist to serialize,
// so only Name and the directory bit of Qid.Type are filled in. This is
// write-only: nothing in this module parses a DirEntry back out of its
// wire form.
func EncodeDirEntry(e external.DirEntry) []byte {
	var dir p.Dir
	dir.Name = e.Name
	if e.Type == epoch.Directory {
		dir.Qid.Type |= p.QTDIR
	}
	return p.PackDir(&dir, false)
}
