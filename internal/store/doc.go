// Package store provides the filesystem-backed durable state versync owns:
// import markers, the published "current" alias, and the staging area
// transfers write into before commit.
//
// All state mutations go through a temporary name followed by an atomic
// rename on the same filesystem, so concurrent observers never see a
// partially written file or a dangling half-updated alias.
package store
