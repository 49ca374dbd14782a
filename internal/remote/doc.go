// Package remote implements the domain.RemoteStore capability for the three
// store kinds versync talks to: an FTP directory, an SFTP directory, and an
// HTTP change-feed.
//
// Each client carries its own path state; nothing here changes the working
// directory of the process. One client serves one run and is closed when the
// run ends.
package remote
