// Package domain defines versync's core data model and the capability
// interfaces its services depend on.
//
// The model is small: an ArtifactRef names one versioned file in a store, an
// Inventory is an immutable per-run snapshot of a store's artifacts, and a
// DeltaPlan is the ascending-ordered subset a run decides to transfer.
// Import markers and the published "current" alias are the only state that
// outlives a run; both live behind store interfaces so the backing
// representation (symlinks today) stays swappable.
package domain
