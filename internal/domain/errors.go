package domain

import (
	"errors"
	"fmt"
)

// ErrNoMatch marks a filename that does not conform to the configured
// pattern. Callers drop such names from the inventory; it is never fatal.
var ErrNoMatch = errors.New("filename does not match pattern")

// ConfigError reports a missing or invalid configuration key. It aborts a
// run before any transfer starts.
type ConfigError struct {
	Section string
	Key     string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("config section [%s]: %v", e.Section, e.Err)
	}
	return fmt.Sprintf("config [%s] %s: %v", e.Section, e.Key, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// StoreUnreachableError reports a failed connection or authentication
// against a store. Fatal to the run.
type StoreUnreachableError struct {
	Store string // "ftp", "sftp", "feed", or a directory path
	Err   error
}

func (e *StoreUnreachableError) Error() string {
	return fmt.Sprintf("store %s unreachable: %v", e.Store, e.Err)
}

func (e *StoreUnreachableError) Unwrap() error { return e.Err }

// TransferError reports a failed transfer of one artifact. The remaining
// plan is abandoned; artifacts committed before the failure stay committed.
type TransferError struct {
	Artifact string
	Err      error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("transfer of %q failed: %v", e.Artifact, e.Err)
}

func (e *TransferError) Unwrap() error { return e.Err }

// PublishError reports that an artifact transferred but could not be moved
// into place or aliased. The artifact must not be marked imported.
type PublishError struct {
	Artifact string
	Err      error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish of %q failed: %v", e.Artifact, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }
