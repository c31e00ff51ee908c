// Package provider defines the package record, its install status machine and the
// Backend abstraction implemented once per package ecosystem.
package provider

// Status is the lifecycle state of a Record.
type Status int

const (
	// StatusUnknown is the default before the first status probe completes.
	StatusUnknown Status = iota
	StatusNotInstalled
	StatusInstalling
	StatusInstalled
	StatusUninstalling
	StatusUpdateAvailable
	StatusUpdating
	// StatusError is terminal but recoverable: a fresh install or uninstall may start from it.
	StatusError
)

var statusNames = map[Status]string{
	StatusUnknown:         "unknown",
	StatusNotInstalled:    "not installed",
	StatusInstalling:      "installing",
	StatusInstalled:       "installed",
	StatusUninstalling:    "uninstalling",
	StatusUpdateAvailable: "update available",
	StatusUpdating:        "updating",
	StatusError:           "error",
}

// String returns a human-readable status.
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "invalid"
}

// Busy reports whether an operation is in flight for the record.
func (s Status) Busy() bool {
	return s == StatusInstalling || s == StatusUninstalling || s == StatusUpdating
}

// IsInstalled reports whether the status implies the package is on disk.
func (s Status) IsInstalled() bool {
	return s == StatusInstalled || s == StatusUpdateAvailable
}

// transitions lists every allowed status change. Any state may move to StatusError.
var transitions = map[Status][]Status{
	StatusUnknown:         {StatusNotInstalled, StatusInstalled, StatusUpdateAvailable},
	StatusNotInstalled:    {StatusInstalling, StatusInstalled, StatusUpdateAvailable},
	StatusInstalling:      {StatusInstalled},
	StatusInstalled:       {StatusUninstalling, StatusUpdateAvailable, StatusUpdating, StatusNotInstalled},
	StatusUninstalling:    {StatusNotInstalled},
	StatusUpdateAvailable: {StatusUpdating, StatusUninstalling, StatusInstalled, StatusNotInstalled},
	StatusUpdating:        {StatusInstalled},
	StatusError:           {StatusInstalling, StatusUninstalling, StatusUpdating, StatusNotInstalled, StatusInstalled, StatusUpdateAvailable},
}

// CanTransition reports whether a record may move from one status to another.
func CanTransition(from, to Status) bool {
	if to == StatusError {
		return true
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Operation is a status-changing action run against a backend.
type Operation string

const (
	OpInstall     Operation = "install"
	OpInstallFile Operation = "install-file"
	OpUninstall   Operation = "uninstall"
	OpUpdate      Operation = "update"
	OpUpdateAll   Operation = "update-all"
)

// Pending returns the transient status held while the operation runs.
func (op Operation) Pending() Status {
	switch op {
	case OpInstall, OpInstallFile:
		return StatusInstalling
	case OpUninstall:
		return StatusUninstalling
	case OpUpdate:
		return StatusUpdating
	}
	return StatusUnknown
}

// Done returns the status reached when the operation succeeds.
func (op Operation) Done() Status {
	switch op {
	case OpInstall, OpInstallFile, OpUpdate:
		return StatusInstalled
	case OpUninstall:
		return StatusNotInstalled
	}
	return StatusUnknown
}
