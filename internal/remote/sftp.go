package remote

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"versync/internal/domain"
)

const sshDialTimeout = 30 * time.Second

// SFTPStore adapts an SFTP session to domain.RemoteStore.
type SFTPStore struct {
	ssh    *ssh.Client
	client *sftp.Client
}

var _ domain.RemoteStore = (*SFTPStore)(nil)

// SFTPConfig carries what DialSFTP needs from the job configuration.
type SFTPConfig struct {
	Addr       string // host:port
	User       string
	Keyfile    string // PEM private key path
	KnownHosts string // known_hosts path; empty disables host-key checking
}

// DialSFTP opens an SSH connection with public-key auth and starts an SFTP
// session on it. Any failure up to the session start is a
// StoreUnreachableError.
func DialSFTP(cfg SFTPConfig) (*SFTPStore, error) {
	unreachable := func(err error) error {
		return &domain.StoreUnreachableError{Store: "sftp://" + cfg.Addr, Err: err}
	}

	pem, err := os.ReadFile(cfg.Keyfile)
	if err != nil {
		return nil, unreachable(fmt.Errorf("reading keyfile: %w", err))
	}
	signer, err := ssh.ParsePrivateKey(pem)
	if err != nil {
		return nil, unreachable(fmt.Errorf("parsing keyfile: %w", err))
	}

	hostKey := ssh.InsecureIgnoreHostKey()
	if cfg.KnownHosts != "" {
		hostKey, err = knownhosts.New(cfg.KnownHosts)
		if err != nil {
			return nil, unreachable(fmt.Errorf("loading known_hosts: %w", err))
		}
	}

	conn, err := ssh.Dial("tcp", cfg.Addr, &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: hostKey,
		Timeout:         sshDialTimeout,
	})
	if err != nil {
		return nil, unreachable(err)
	}
	client, err := sftp.NewClient(conn)
	if err != nil {
		_ = conn.Close()
		return nil, unreachable(err)
	}
	return &SFTPStore{ssh: conn, client: client}, nil
}

// ListNames lists the regular files under dir.
func (s *SFTPStore) ListNames(ctx context.Context, dir string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	infos, err := s.client.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing %q: %w", dir, err)
	}
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		if info.Mode().IsRegular() {
			names = append(names, info.Name())
		}
	}
	return names, nil
}

// Retrieve opens name under dir for reading.
func (s *SFTPStore) Retrieve(ctx context.Context, dir, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.client.Open(s.client.Join(dir, name))
}

// Store uploads r as name under dir, creating dir as needed.
func (s *SFTPStore) Store(ctx context.Context, dir, name string, r io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.client.MkdirAll(dir); err != nil {
		return fmt.Errorf("creating %q: %w", dir, err)
	}
	f, err := s.client.Create(s.client.Join(dir, name))
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Close shuts the SFTP session and the SSH connection under it.
func (s *SFTPStore) Close() error {
	sftpErr := s.client.Close()
	sshErr := s.ssh.Close()
	if sftpErr != nil {
		return sftpErr
	}
	return sshErr
}
