// Package main runs a minimal change-feed server over a local directory,
// used during development and by tests of the sync-feed job, and as the
// upstream for air-gapped mirror setups.
//
// HTTP API
//
//	GET /feed/changefile
//	    Return the feed document: a JSON object whose "list" holds one
//	    entry per file in the served directory (filename, download url,
//	    filetype, size_bytes).
//
//	GET /files/{name}
//	    Serve the named changefile.
//
// Behaviour
//
//   - The listing is computed per request; dropping a file into the
//     directory publishes it immediately.
//   - api_key query parameters are accepted and ignored; access control is
//     the deployment's business.
//   - The default listen address is :8080.
package main
