package epoch

import "fmt"

var (
	// ErrInvalidPath is returned when a path cannot be fully resolved to a
	// FileID, or when walking parent-references from a FileID reaches a
	// removed file before ROOT.
	ErrInvalidPath = fmt.Errorf("invalid path")

	// ErrUnknownFile is returned when an operation names a FileID with no
	// metadata entry.
	ErrUnknownFile = fmt.Errorf("unknown file")
)

func errorf(typeMethod, format string, a ...interface{}) error {
	return fmt.Errorf("github.com/nicolagi/memo/internal/epoch."+typeMethod+": "+format, a...)
}
