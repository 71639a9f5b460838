package clock

import "fmt"

// FileID is a tagged union: either Base(index into the current epoch's
// baseline listing) or New(a LocalClock minted by some replica). All
// Base values sort before all New values; within a kind, values sort by
// their payload.
type FileID struct {
	isNew bool
	base  uint64
	local Local
}

// RootFileID is the distinguished ROOT identifier: the minimal Base value.
var RootFileID = BaseFileID(0)

// BaseFileID constructs a FileID pointing at position i of the baseline
// listing.
func BaseFileID(i uint64) FileID {
	return FileID{base: i}
}

// NewFileID constructs a FileID minted locally from a LocalClock tick.
func NewFileID(l Local) FileID {
	return FileID{isNew: true, local: l}
}

func (id FileID) IsBase() bool { return !id.isNew }
func (id FileID) IsNew() bool  { return id.isNew }
func (id FileID) IsRoot() bool { return !id.isNew && id.base == 0 }

// Base returns the baseline index and whether id is actually a Base value.
func (id FileID) Base() (uint64, bool) {
	return id.base, !id.isNew
}

// Local returns the minting LocalClock and whether id is actually a New
// value.
func (id FileID) Local() (Local, bool) {
	return id.local, id.isNew
}

// Less totally orders FileIDs: every Base sorts before every New; within a
// kind, by the natural order of the payload.
func (id FileID) Less(other FileID) bool {
	if id.isNew != other.isNew {
		return !id.isNew
	}
	if !id.isNew {
		return id.base < other.base
	}
	return id.local.Less(other.local)
}

func (id FileID) Equal(other FileID) bool {
	if id.isNew != other.isNew {
		return false
	}
	if !id.isNew {
		return id.base == other.base
	}
	return id.local.Equal(other.local)
}

func (id FileID) String() string {
	if id.isNew {
		return fmt.Sprintf("new:%s", id.local)
	}
	return fmt.Sprintf("base:%d", id.base)
}
