package provider

import (
	"fmt"

	"shelf/pkg/desktop"
)

// LocalRemote is the pseudo remote used for packages imported from local files.
const LocalRemote = "local"

// Source identifies where a record comes from: a remote and a branch.
type Source struct {
	Remote string
	Branch string
}

// ID returns the composite source key used by source pickers.
func (s Source) ID() string {
	if s.Branch == "" {
		return s.Remote
	}
	return s.Remote + ":" + s.Branch
}

// Extra is backend-specific record data. Each backend only accepts its own variant.
type Extra interface {
	Backend() string
	Source() Source
	Version() string
}

// FlatpakExtra carries the attributes the Flatpak backend needs for its operations.
type FlatpakExtra struct {
	Origin       string
	Branch       string
	Arch         string
	Ref          string
	AppVersion   string
	Installation string // "user" or "system"
	Runtime      string

	// Set for records created from .flatpakref or .flatpak files.
	FilePath string
	Bundle   bool
}

func (e *FlatpakExtra) Backend() string { return "flatpak" }
func (e *FlatpakExtra) Source() Source  { return Source{Remote: e.Origin, Branch: e.Branch} }
func (e *FlatpakExtra) Version() string { return e.AppVersion }

// AppImageExtra carries the attributes the AppImage backend needs.
type AppImageExtra struct {
	FilePath    string
	DesktopFile string
	Desktop     *desktop.Entry
	Icon        string
	AppVersion  string
}

func (e *AppImageExtra) Backend() string { return "appimage" }
func (e *AppImageExtra) Source() Source  { return Source{Remote: LocalRemote} }
func (e *AppImageExtra) Version() string { return e.AppVersion }

// FlatpakData returns the Flatpak variant of the record's extra data.
func FlatpakData(r *Record) (*FlatpakExtra, error) {
	e, ok := r.Extra.(*FlatpakExtra)
	if !ok || e == nil {
		return nil, fmt.Errorf("%w: record %q has no flatpak data", ErrContract, r.ID)
	}
	return e, nil
}

// AppImageData returns the AppImage variant of the record's extra data.
func AppImageData(r *Record) (*AppImageExtra, error) {
	e, ok := r.Extra.(*AppImageExtra)
	if !ok || e == nil {
		return nil, fmt.Errorf("%w: record %q has no appimage data", ErrContract, r.ID)
	}
	return e, nil
}
