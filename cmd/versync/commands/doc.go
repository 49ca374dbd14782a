// Package commands defines the versync CLI and wires dependencies for the
// sync jobs.
//
// # Commands
//
//   - fetch-updates   Download the newest update tarball per artifact family
//   - sync-feed       Import new changefiles from the HTTP change-feed
//   - push-bundles    Upload local archive bundles to the SFTP server
//
// # Implementation
//
// The root command loads the INI configuration and builds the app context
// before any subcommand runs. Each subcommand assembles one or more jobs
// (scan, resolve, transfer phases) and hands them to the run coordinator,
// which owns the state machine and the single end-of-run notification.
package commands
