package app

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/ini.v1"

	"versync/internal/domain"
)

// Section names with fixed meaning; every other section is a fetch family.
const (
	sectionFTP    = "FTP"
	sectionSFTP   = "SFTP"
	sectionSMTP   = "SMTPServer"
	sectionFeed   = "Feed"
	sectionUpload = "Upload"
)

// Config is the parsed job configuration. Collaborator sections are nil
// when absent; each subcommand checks for the ones it needs.
type Config struct {
	FTP      *FTPSection
	SFTP     *SFTPSection
	SMTP     *SMTPSection
	Feed     *FeedSection
	Upload   *UploadSection
	Families []FamilySection
}

// FTPSection configures the update download server.
type FTPSection struct {
	Host     string // host:port
	Username string
	Password string
}

// SFTPSection configures the bundle upload server.
type SFTPSection struct {
	Host       string // host:port
	Username   string
	Keyfile    string
	KnownHosts string // optional
}

// SMTPSection configures the notification mailer.
type SMTPSection struct {
	Address   string
	Port      int
	Username  string
	Password  string
	Sender    string
	Recipient string
}

// FeedSection configures the change-feed import job.
type FeedSection struct {
	ChangelistURL   string
	APIKey          string
	LocalDirectory  string
	FilenamePattern string
	ImportCommand   string // optional; run per downloaded changefile
	BackfillGaps    bool   // plan individually missing artifacts below the contiguous point
}

// UploadSection configures the bundle push job.
type UploadSection struct {
	LocalDirectory  string
	RemoteDirectory string
	BackupDirectory string
	FilenamePattern string
	TransferCommand string // optional; delegates the bulk upload when set
}

// FamilySection is one artifact family for the fetch job: a filename
// pattern plus where it lives remotely and locally.
type FamilySection struct {
	Name            string
	FilenamePattern string
	RemoteDirectory string
	LocalDirectory  string
}

// LoadConfig parses the INI file at path. Key-level problems are
// ConfigErrors naming section and key, so a bad cron deployment shows up
// precisely in the failure mail.
func LoadConfig(path string) (*Config, error) {
	f, err := ini.Load(path)
	if err != nil {
		return nil, &domain.ConfigError{Section: path, Err: err}
	}

	cfg := &Config{}
	for _, sec := range f.Sections() {
		switch sec.Name() {
		case ini.DefaultSection:
			// Top-level keys are not used.
		case sectionFTP:
			cfg.FTP, err = loadFTP(sec)
		case sectionSFTP:
			cfg.SFTP, err = loadSFTP(sec)
		case sectionSMTP:
			cfg.SMTP, err = loadSMTP(sec)
		case sectionFeed:
			cfg.Feed, err = loadFeed(sec)
		case sectionUpload:
			cfg.Upload, err = loadUpload(sec)
		default:
			var fam FamilySection
			fam, err = loadFamily(sec)
			cfg.Families = append(cfg.Families, fam)
		}
		if err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func required(sec *ini.Section, key string) (string, error) {
	v := sec.Key(key).String()
	if v == "" {
		return "", &domain.ConfigError{Section: sec.Name(), Key: key, Err: errors.New("missing")}
	}
	return v, nil
}

// collect resolves a list of required keys in one pass, reporting the first
// missing one.
func collect(sec *ini.Section, keys ...string) ([]string, error) {
	out := make([]string, len(keys))
	for i, k := range keys {
		v, err := required(sec, k)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func loadFTP(sec *ini.Section) (*FTPSection, error) {
	v, err := collect(sec, "host", "username", "password")
	if err != nil {
		return nil, err
	}
	return &FTPSection{Host: withDefaultPort(v[0], "21"), Username: v[1], Password: v[2]}, nil
}

func loadSFTP(sec *ini.Section) (*SFTPSection, error) {
	v, err := collect(sec, "host", "username", "keyfile")
	if err != nil {
		return nil, err
	}
	return &SFTPSection{
		Host:       withDefaultPort(v[0], "22"),
		Username:   v[1],
		Keyfile:    v[2],
		KnownHosts: sec.Key("known_hosts").String(),
	}, nil
}

func loadSMTP(sec *ini.Section) (*SMTPSection, error) {
	v, err := collect(sec, "server_address", "server_user", "server_password", "sender", "recipient")
	if err != nil {
		return nil, err
	}
	port, err := sec.Key("server_port").Int()
	if err != nil || port <= 0 {
		port = 25
	}
	return &SMTPSection{Address: v[0], Port: port, Username: v[1], Password: v[2], Sender: v[3], Recipient: v[4]}, nil
}

func loadFeed(sec *ini.Section) (*FeedSection, error) {
	v, err := collect(sec, "changelist_url", "local_directory", "filename_pattern")
	if err != nil {
		return nil, err
	}
	return &FeedSection{
		ChangelistURL:   v[0],
		LocalDirectory:  v[1],
		FilenamePattern: v[2],
		APIKey:          sec.Key("api_key").String(),
		ImportCommand:   sec.Key("import_command").String(),
		BackfillGaps:    sec.Key("backfill_gaps").MustBool(false),
	}, nil
}

func loadUpload(sec *ini.Section) (*UploadSection, error) {
	v, err := collect(sec, "local_directory", "directory_on_sftp_server", "backup_directory")
	if err != nil {
		return nil, err
	}
	pattern := sec.Key("filename_pattern").String()
	if pattern == "" {
		pattern = `(.*)\.7z`
	}
	return &UploadSection{
		LocalDirectory:  v[0],
		RemoteDirectory: v[1],
		BackupDirectory: v[2],
		FilenamePattern: pattern,
		TransferCommand: sec.Key("transfer_command").String(),
	}, nil
}

func loadFamily(sec *ini.Section) (FamilySection, error) {
	v, err := collect(sec, "filename_pattern", "directory_on_ftp_server", "local_directory")
	if err != nil {
		return FamilySection{}, err
	}
	return FamilySection{
		Name:            sec.Name(),
		FilenamePattern: v[0],
		RemoteDirectory: v[1],
		LocalDirectory:  v[2],
	}, nil
}

// withDefaultPort appends :port when addr has none.
func withDefaultPort(addr, port string) string {
	if strings.Contains(addr, ":") {
		return addr
	}
	return fmt.Sprintf("%s:%s", addr, port)
}
