package executor

import "os"

// flatpakInfo exists at the root of every Flatpak sandbox.
const flatpakInfo = "/.flatpak-info"

// InSandbox reports whether the process runs inside a Flatpak sandbox.
func InSandbox() bool {
	if os.Getenv("FLATPAK_ID") != "" {
		return true
	}
	_, err := os.Stat(flatpakInfo)
	return err == nil
}
