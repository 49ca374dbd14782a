package remote

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jlaffaye/ftp"

	"versync/internal/domain"
)

const ftpDialTimeout = 30 * time.Second

// FTPStore adapts an FTP server connection to domain.RemoteStore.
type FTPStore struct {
	conn *ftp.ServerConn

	// cwd is the directory the server connection currently sits in. FTP
	// has per-connection directory state; tracking it here keeps it out
	// of the callers.
	cwd string
}

var _ domain.RemoteStore = (*FTPStore)(nil)

// DialFTP connects and authenticates. Connection or login failure is a
// StoreUnreachableError.
func DialFTP(ctx context.Context, addr, user, password string) (*FTPStore, error) {
	conn, err := ftp.Dial(addr, ftp.DialWithContext(ctx), ftp.DialWithTimeout(ftpDialTimeout))
	if err != nil {
		return nil, &domain.StoreUnreachableError{Store: "ftp://" + addr, Err: err}
	}
	if err := conn.Login(user, password); err != nil {
		_ = conn.Quit()
		return nil, &domain.StoreUnreachableError{Store: "ftp://" + addr, Err: fmt.Errorf("login: %w", err)}
	}
	return &FTPStore{conn: conn}, nil
}

func (s *FTPStore) changeDir(dir string) error {
	if dir == "" || dir == s.cwd {
		return nil
	}
	if err := s.conn.ChangeDir(dir); err != nil {
		return fmt.Errorf("changing to %q: %w", dir, err)
	}
	s.cwd = dir
	return nil
}

// ListNames lists the entries of dir. An empty directory is not an error.
func (s *FTPStore) ListNames(ctx context.Context, dir string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.changeDir(dir); err != nil {
		return nil, err
	}
	names, err := s.conn.NameList("")
	if err != nil {
		return nil, fmt.Errorf("listing %q: %w", dir, err)
	}
	return names, nil
}

// Retrieve opens name under dir for reading. The stream ends when the
// server closes the data channel, which is the FTP terminal marker.
func (s *FTPStore) Retrieve(ctx context.Context, dir, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.changeDir(dir); err != nil {
		return nil, err
	}
	resp, err := s.conn.Retr(name)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Store uploads r as name under dir.
func (s *FTPStore) Store(ctx context.Context, dir, name string, r io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.changeDir(dir); err != nil {
		return err
	}
	return s.conn.Stor(name, r)
}

// Close sends QUIT and drops the connection.
func (s *FTPStore) Close() error { return s.conn.Quit() }
