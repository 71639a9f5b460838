package cursor

import "fmt"

func errorf(typeMethod, format string, a ...interface{}) error {
	return fmt.Errorf("github.com/nicolagi/memo/internal/cursor."+typeMethod+": "+format, a...)
}
