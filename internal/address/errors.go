package address

import "fmt"

// ErrValidation reports input that cannot be treated as an address at all.
// The parser itself is total and never returns it; callers that need a hard
// failure for blank input (the resolver, the HTTP layer) raise it.
type ErrValidation struct {
	Reason string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("invalid address: %s", e.Reason)
}
