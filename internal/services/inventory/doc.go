// Package inventory takes the per-run snapshots of a store's artifacts.
// Listings come from a remote store client or the local filesystem; names
// that do not match the configured pattern are dropped, not errors.
package inventory
