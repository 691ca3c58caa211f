package evaluate

import (
	"fmt"
)

// ValidationError describes a malformed update batch.  A rejected batch is
// not folded into the metric state, update is all or nothing per call.
type ValidationError struct {
	// Image is the index of the offending image in the batch, or -1 when
	// the violation is batch wide such as mismatched batch lengths
	Image int
	// Reason describes the contract violation
	Reason string
}

// Error implements the error interface
func (e *ValidationError) Error() string {

	if e.Image < 0 {
		return fmt.Sprintf("invalid batch: %s", e.Reason)
	}

	return fmt.Sprintf("invalid batch: image %d: %s", e.Image, e.Reason)
}
