// Package delta decides which remote artifacts a run transfers. Both
// strategies are deterministic, side-effect free functions over the two
// per-run inventory snapshots.
package delta
