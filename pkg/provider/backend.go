package provider

import "context"

// Backend abstracts one package ecosystem. Methods are synchronous and honour ctx;
// the coordinator runs them off the caller's goroutine and owns status changes.
type Backend interface {
	// Name returns the registry key (e.g., "flatpak").
	Name() string

	// DisplayName returns a human-readable name.
	DisplayName() string

	// IsAvailable returns true if the ecosystem's tooling is usable on this system.
	IsAvailable() bool

	// Validate checks that r carries everything this backend's operations consume.
	// A failure wraps ErrContract.
	Validate(r *Record) error

	// Listing and lookup.

	// ListInstalled reflects the on-disk state at call time. Records are StatusInstalled.
	ListInstalled(ctx context.Context) ([]*Record, error)

	// IsInstalled reports whether r, or one of alts, is installed. When the installed
	// source is one of alts rather than r itself, that alternate is returned.
	IsInstalled(ctx context.Context, r *Record, alts []*Record) (bool, *Record, error)

	// Search returns matching records annotated with their install status.
	Search(ctx context.Context, query string) ([]*Record, error)

	// LongDescription may hit the network; failures degrade to "".
	LongDescription(ctx context.Context, r *Record) string

	// InstalledFrom describes where an installed record came from.
	InstalledFrom(r *Record) string

	// SourceLabel returns a human label for a remote.
	SourceLabel(remote string) string

	// Status-changing operations.

	Install(ctx context.Context, r *Record) error
	Uninstall(ctx context.Context, r *Record) error
	Update(ctx context.Context, r *Record) error
	UpdateAll(ctx context.Context) error

	// Updates.

	// ListUpdatable returns what can be updated, served from the update cache
	// unless UpdatesNeedRefresh reports true.
	ListUpdatable(ctx context.Context) ([]UpdateCandidate, error)

	// IsUpdatable answers from the same cached scan as ListUpdatable.
	IsUpdatable(ctx context.Context, id string) (bool, error)

	// UpdatesNeedRefresh exposes the update cache's dirty flag.
	UpdatesNeedRefresh() bool

	// InvalidateUpdates marks the update cache dirty.
	InvalidateUpdates()

	// Run launches the installed application and returns once it has started.
	Run(ctx context.Context, r *Record) error

	// Local file import.

	CanImportFile(path string) bool
	RecordFromFile(ctx context.Context, path string) (*Record, error)
	InstallFile(ctx context.Context, r *Record) error
}
