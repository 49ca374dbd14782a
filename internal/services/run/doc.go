// Package run drives one synchronization run through its states:
//
//	Idle → Scanning → Resolving → Transferring → Publishing → Reporting → Done
//
// with Failed reachable from any non-terminal state. The coordinator owns
// the run report and hands it to the notifier exactly once, whatever the
// outcome; nothing here retries, that is the invoking scheduler's business.
//
// A run may cover several jobs (the FTP fetcher processes one job per
// configured artifact family); the coordinator cycles Scanning through
// Publishing per job and reports once at the end. Per-artifact publication
// happens inside the transfer phase, where staging and the atomic alias
// swap interleave; the Publishing state marks its completion for the run.
package run
