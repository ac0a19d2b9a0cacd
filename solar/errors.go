package solar

import "fmt"

// InvalidInputError represents a request value the calculation cannot
// interpret: a zero date, or a non-finite input that corrupts the
// trigonometry outside the expected polar-day/polar-night boundary.
type InvalidInputError struct {
	Field   string
	Message string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input for field '%s': %s", e.Field, e.Message)
}
