package analysis

import "fmt"

// UnparseableResponseError means the generation model responded with text,
// but no weakness entry could be recognized in it. This is distinct from an
// analysis that found no weaknesses: that case is only reached through the
// explicit no-findings sentinel and succeeds with an empty list.
type UnparseableResponseError struct {
	RawLength int
	Preview   string
}

func (e *UnparseableResponseError) Error() string {
	return fmt.Sprintf("parse: no weakness entries recognized in %d chars of model output", e.RawLength)
}
