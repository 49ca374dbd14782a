package app

import (
	"context"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"versync/internal/domain"
	"versync/internal/notify"
	"versync/internal/remote"
	"versync/internal/shell"
)

// App bundles the loaded configuration with the shared collaborators the
// subcommands build their jobs from.
type App struct {
	Config *Config
	Log    *logrus.Logger
}

func New(cfg *Config, log *logrus.Logger) *App {
	return &App{Config: cfg, Log: log}
}

// Notifier returns the mailer for this run. recipient overrides the
// configured address when non-empty (cron invocations pass the on-duty
// operator). With dryRun the report goes to the log instead.
func (a *App) Notifier(recipient string, dryRun bool) (domain.Notifier, error) {
	if dryRun {
		return &notify.LogNotifier{Log: a.Log}, nil
	}
	smtp := a.Config.SMTP
	if smtp == nil {
		return nil, &domain.ConfigError{Section: sectionSMTP, Err: errors.New("section required")}
	}
	to := smtp.Recipient
	if recipient != "" {
		to = recipient
	}
	return notify.NewMailer(smtp.Address, smtp.Port, smtp.Username, smtp.Password, smtp.Sender, to), nil
}

// DialFTP connects to the configured update server.
func (a *App) DialFTP(ctx context.Context) (*remote.FTPStore, error) {
	ftp := a.Config.FTP
	if ftp == nil {
		return nil, &domain.ConfigError{Section: sectionFTP, Err: errors.New("section required")}
	}
	return remote.DialFTP(ctx, ftp.Host, ftp.Username, ftp.Password)
}

// DialSFTP connects to the configured bundle server.
func (a *App) DialSFTP() (*remote.SFTPStore, error) {
	s := a.Config.SFTP
	if s == nil {
		return nil, &domain.ConfigError{Section: sectionSFTP, Err: errors.New("section required")}
	}
	return remote.DialSFTP(remote.SFTPConfig{
		Addr:       s.Host,
		User:       s.Username,
		Keyfile:    s.Keyfile,
		KnownHosts: s.KnownHosts,
	})
}

// FeedStore returns the change-feed client.
func (a *App) FeedStore() (*remote.FeedStore, error) {
	f := a.Config.Feed
	if f == nil {
		return nil, &domain.ConfigError{Section: sectionFeed, Err: errors.New("section required")}
	}
	return remote.NewFeedStore(f.ChangelistURL, f.APIKey, http.DefaultClient), nil
}

// Invoker returns the helper-command runner.
func (a *App) Invoker() domain.Invoker {
	return &shell.Runner{Log: a.Log}
}
