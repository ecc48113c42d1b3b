package eval

import "fmt"

// Error is an evaluation failure attributed to one operator.
type Error struct {
	Op      string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("eval %s: %s", e.Op, e.Message)
}
