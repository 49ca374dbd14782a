package store

// Internal reports whether name is a store-owned subdirectory (markers,
// staging) that artifact scans must not descend into.
func Internal(name string) bool {
	return name == importedDir || name == stagingDir
}
