package provider

import "errors"

var (
	// ErrBusy is returned when an operation is requested on a record that already
	// has one in flight.
	ErrBusy = errors.New("operation already in progress")

	// ErrInvalidTransition is returned when an operation cannot start from the
	// record's current status.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrContract marks a caller/core mismatch such as a missing extra-data variant.
	// These are programming errors and are never converted into StatusError.
	ErrContract = errors.New("contract violation")

	// ErrUnsupported is returned by backends for operations their ecosystem lacks.
	ErrUnsupported = errors.New("operation not supported by backend")

	// ErrNotFound is returned when a package cannot be located.
	ErrNotFound = errors.New("package not found")

	// ErrUnknownBackend is returned by the registry for an unregistered name.
	ErrUnknownBackend = errors.New("unknown backend")
)
