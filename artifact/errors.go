package artifact

import "fmt"

var (
	// ErrNotFound is returned when no recording location exists for the
	// given server call / document pair.
	ErrNotFound = fmt.Errorf("recording location not found")
)
