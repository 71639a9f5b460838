package worktree

import "fmt"

func errorf(typeMethod, format string, a ...interface{}) error {
	return fmt.Errorf("github.com/nicolagi/memo/internal/worktree."+typeMethod+": "+format, a...)
}
