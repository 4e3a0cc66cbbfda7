package incidents

import "errors"

var (
	// ErrNotFound indicates the requested incident does not exist.
	ErrNotFound = errors.New("incident not found")

	// ErrDuplicate indicates an incident with the same id already exists.
	ErrDuplicate = errors.New("incident already exists")

	// ErrInvalidTransition indicates an illegal status change.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrStepNotFound indicates the referenced step does not exist.
	ErrStepNotFound = errors.New("step not found")

	// ErrReportNotFound indicates the incident has no stored report yet.
	ErrReportNotFound = errors.New("report not found")
)
