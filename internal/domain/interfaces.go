package domain

import (
	"context"
	"io"
)

// RemoteStore is the capability set versync needs from a remote artifact
// store (FTP directory, SFTP directory, HTTP change-feed). Implementations
// carry their own current-path state; no call mutates process-wide state.
type RemoteStore interface {
	// ListNames returns the artifact names under dir. An empty listing is
	// not an error. Listing may establish per-name state (e.g. download
	// URLs from a feed) that Retrieve relies on, so callers list before
	// retrieving.
	ListNames(ctx context.Context, dir string) ([]string, error)

	// Retrieve opens the named artifact for reading. The caller closes the
	// returned stream before issuing the next store operation.
	Retrieve(ctx context.Context, dir, name string) (io.ReadCloser, error)

	// Store uploads r as the named artifact under dir.
	Store(ctx context.Context, dir, name string, r io.Reader) error

	// Close releases the connection. The store is unusable afterwards.
	Close() error
}

// MarkerStore records which artifacts have been imported. Marker existence
// is the sole authority for "already imported", independent of whether the
// artifact file itself still exists.
type MarkerStore interface {
	// HasMarker reports whether an import marker exists for name.
	HasMarker(name string) (bool, error)

	// SetMarker durably records that name was committed at target.
	// Setting an existing marker again is a no-op, not an error.
	SetMarker(name, target string) error
}

// AliasStore owns the stable "current" pointer. The alias is rewritten
// atomically and is never observable in a partially updated state.
type AliasStore interface {
	// SetCurrent atomically repoints alias at target.
	SetCurrent(alias, target string) error

	// Current resolves alias to its target, reporting false when the alias
	// has never been published.
	Current(alias string) (string, bool, error)
}

// Notifier delivers the end-of-run report to the operator. The coordinator
// calls it exactly once per run, whatever the outcome.
type Notifier interface {
	Notify(subject, body string, priority Priority) error
}

// Invoker runs an external helper command, returning an error on non-zero
// exit. Used where a job delegates bulk work to a bundled script.
type Invoker interface {
	Run(ctx context.Context, name string, args ...string) error
}
