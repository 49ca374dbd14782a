// Package transfer moves the planned artifacts into the local store, one at
// a time in ascending version order, and publishes each one atomically.
//
// Every artifact goes through stage, promote (same-filesystem rename),
// alias swap, optional import hook, then import marker, in that order. A
// failure abandons the rest of the plan but keeps everything committed so
// far, so a rerun picks up exactly where this one stopped.
package transfer
