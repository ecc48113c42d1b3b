package normalize

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/leapplan/pkg/plan"
)

// ErrFixpointDiverged is returned when the rewrite loop exceeds its
// iteration budget. The loop shrinks the binding table monotonically, so
// hitting the budget indicates an internal invariant violation rather
// than a property of the input.
var ErrFixpointDiverged = errors.New("fixpoint iteration budget exhausted")

// ScopeError reports a binding reference that does not resolve to a
// visible binding. It indicates a malformed input tree, not a
// user-recoverable condition.
type ScopeError struct {
	Ref     plan.LocalID
	Context string
}

func (e *ScopeError) Error() string {
	return fmt.Sprintf("scoping violation: reference l%d %s", e.Ref, e.Context)
}
