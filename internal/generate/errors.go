package generate

import (
	"fmt"
	"strings"
)

// UnavailableError means every model attempted for a request failed. At most
// two models are ever attempted: the requested one, then the configured
// default when the two differ and the failure was on the provider side.
type UnavailableError struct {
	Attempted []string
	Last      error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("generate: generation unavailable (attempted %s): %v",
		strings.Join(e.Attempted, ", "), e.Last)
}

func (e *UnavailableError) Unwrap() error { return e.Last }
