package logs

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnavailable indicates the log backend itself is unreachable or
// erroring, as opposed to a log that simply does not exist.
var ErrUnavailable = errors.New("log backend unavailable")

// NotFoundError is returned when no log exists for an incident under any
// expected location. Attempted lists every path or object key that was
// tried so the error step shows operators where the backend looked.
type NotFoundError struct {
	IncidentID string
	Attempted  []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("log not found for incident %s. Tried: %s",
		e.IncidentID, strings.Join(e.Attempted, ", "))
}

// IsNotFound reports whether err is a log NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
