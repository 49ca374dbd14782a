package domain

import (
	"sort"
	"strings"
)

// VersionKey orders artifacts by recency. Keys are compared as strings, so
// the extraction pattern must capture a component whose lexicographic order
// matches chronological order (zero-padded dates, serial numbers).
type VersionKey string

// Less reports whether k sorts before other.
func (k VersionKey) Less(other VersionKey) bool { return k < other }

// ArtifactRef identifies one transferable file in a store.
type ArtifactRef struct {
	Name     string     // unique within one store listing
	Key      VersionKey // extracted from Name
	Location string     // store-relative path of the containing directory
}

// Inventory is an immutable snapshot of one store's matching artifacts,
// keyed by name. A new run takes a new snapshot; snapshots are never updated.
type Inventory struct {
	byName map[string]ArtifactRef
}

// NewInventory builds a snapshot from refs. Later duplicates of a name win,
// matching directory-listing semantics where a name appears once anyway.
func NewInventory(refs []ArtifactRef) Inventory {
	m := make(map[string]ArtifactRef, len(refs))
	for _, r := range refs {
		m[r.Name] = r
	}
	return Inventory{byName: m}
}

// Len returns the number of artifacts in the snapshot.
func (inv Inventory) Len() int { return len(inv.byName) }

// Contains reports whether the snapshot holds an artifact with this name.
func (inv Inventory) Contains(name string) bool {
	_, ok := inv.byName[name]
	return ok
}

// Newest returns the artifact with the maximum version key, if any.
func (inv Inventory) Newest() (ArtifactRef, bool) {
	var best ArtifactRef
	found := false
	for _, r := range inv.byName {
		if !found || best.Key.Less(r.Key) {
			best = r
			found = true
		}
	}
	return best, found
}

// Ascending returns all artifacts sorted by ascending version key.
// Equal keys fall back to name order so the result is deterministic.
func (inv Inventory) Ascending() []ArtifactRef {
	out := make([]ArtifactRef, 0, len(inv.byName))
	for _, r := range inv.byName {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Key != out[j].Key {
			return out[i].Key.Less(out[j].Key)
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// DeltaPlan is the ordered set of artifacts one run will transfer, ascending
// by version key. The empty plan is a valid no-op outcome.
type DeltaPlan []ArtifactRef

// Priority classifies a notification for the operator.
type Priority int

const (
	PriorityHigh Priority = 1 // failures
	PriorityLow  Priority = 5 // routine outcomes
)

// Report accumulates human-readable lines describing one run. It is owned by
// the run coordinator and handed to the notifier exactly once.
type Report struct {
	lines []string
}

// Add appends one line to the report.
func (r *Report) Add(line string) { r.lines = append(r.lines, line) }

// Empty reports whether nothing has been recorded.
func (r *Report) Empty() bool { return len(r.lines) == 0 }

// String joins the recorded lines into the notification body.
func (r *Report) String() string { return strings.Join(r.lines, "\n") }
