package cli

import "errors"

var (
	// ErrNoPackages is returned when no applications are specified.
	ErrNoPackages = errors.New("no applications specified")

	// ErrNotFound is returned when an application matches nothing.
	ErrNotFound = errors.New("application not found")

	// ErrNotInstalled is returned when an operation needs an installed application.
	ErrNotInstalled = errors.New("application is not installed")

	// ErrAmbiguous is returned when a name matches several applications and
	// prompting is disabled.
	ErrAmbiguous = errors.New("name matches several applications")

	// ErrFailed is returned when some operations of a command failed. The
	// individual errors have been printed.
	ErrFailed = errors.New("operations failed")

	// ErrAborted is returned when the user aborts an operation.
	ErrAborted = errors.New("operation aborted by user")
)
