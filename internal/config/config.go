// Package config loads the form service configuration.
//
// Configuration comes from an optional YAML file, named by the --config flag
// or the FORMFLOW_CONFIG environment variable, layered over built-in defaults.
// FORMFLOW_* environment variables are applied last so a Lambda deployment can
// run without a file at all.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	validatorv10 "github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/imrishuroy/go-formflow/internal/catalog"
	"github.com/imrishuroy/go-formflow/internal/guard"
	"github.com/imrishuroy/go-formflow/internal/mail"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "FORMFLOW_"

// Mail transports.
const (
	TransportSendmail = "sendmail"
	TransportSMTP     = "smtp"
	TransportLog      = "log"
)

// ErrInvalid is returned when the merged configuration fails validation.
var ErrInvalid = errors.New("invalid configuration")

// Config is the complete service configuration.
type Config struct {
	AdminTo  string `yaml:"admin_to" validate:"required,email"`
	Bcc      string `yaml:"bcc" validate:"omitempty,email"`
	From     string `yaml:"from" validate:"required,email"`
	SiteName string `yaml:"site_name" validate:"required"`
	BaseURL  string `yaml:"base_url" validate:"required,url"`

	StorageDir string `yaml:"storage_dir" validate:"required"`
	// DocRoot enables the on-disk check for catalog files. Empty disables it.
	DocRoot string `yaml:"doc_root"`
	LogFile string `yaml:"log_file"`

	TimeTrap  time.Duration            `yaml:"time_trap" validate:"gte=0"`
	Resources map[string]catalog.Entry `yaml:"resources"`

	Mail MailConfig `yaml:"mail"`

	SessionsTable    string        `yaml:"sessions_table"`
	SessionTTL       time.Duration `yaml:"session_ttl" validate:"gt=0"`
	CookieSecure     bool          `yaml:"cookie_secure"`
	LeadsQueueURL    string        `yaml:"leads_queue_url" validate:"omitempty,url"`
	MetricsNamespace string        `yaml:"metrics_namespace"`

	// TrustedProxies lists proxy IPs or CIDRs whose X-Forwarded-For is
	// believed. Empty means the client IP is always the socket peer.
	TrustedProxies []string `yaml:"trusted_proxies" validate:"omitempty,dive,ip|cidr"`
}

// MailConfig selects and configures the mail transport.
type MailConfig struct {
	Transport    string `yaml:"transport" validate:"oneof=sendmail smtp log"`
	SendmailPath string `yaml:"sendmail_path"`
	SMTPAddr     string `yaml:"smtp_addr" validate:"required_if=Transport smtp"`
	SMTPUsername string `yaml:"smtp_username"`
	SMTPPassword string `yaml:"smtp_password"`
}

// Default returns the configuration used before any file or environment
// override is applied.
func Default() *Config {
	return &Config{
		SiteName:   "Website",
		StorageDir: "storage",
		TimeTrap:   guard.DefaultMinElapsed,
		SessionTTL: 24 * time.Hour,
		Mail: MailConfig{
			Transport:    TransportSendmail,
			SendmailPath: "/usr/sbin/sendmail",
		},
	}
}

// Load reads path (or FORMFLOW_CONFIG when path is empty), applies environment
// overrides and validates the result. With neither set only defaults and the
// environment are used.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvPrefix + "CONFIG")
	}

	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	return readYAML(path, c)
}

// readYAML decodes path into out. Keys out does not declare are ignored, so
// the API and the worker can share one file.
func readYAML(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// applyEnv overrides fields from FORMFLOW_<UPPER_YAML_NAME> variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"ADMIN_TO":           &c.AdminTo,
		"BCC":                &c.Bcc,
		"FROM":               &c.From,
		"SITE_NAME":          &c.SiteName,
		"BASE_URL":           &c.BaseURL,
		"STORAGE_DIR":        &c.StorageDir,
		"DOC_ROOT":           &c.DocRoot,
		"LOG_FILE":           &c.LogFile,
		"MAIL_TRANSPORT":     &c.Mail.Transport,
		"MAIL_SENDMAIL_PATH": &c.Mail.SendmailPath,
		"MAIL_SMTP_ADDR":     &c.Mail.SMTPAddr,
		"MAIL_SMTP_USERNAME": &c.Mail.SMTPUsername,
		"MAIL_SMTP_PASSWORD": &c.Mail.SMTPPassword,
		"SESSIONS_TABLE":     &c.SessionsTable,
		"LEADS_QUEUE_URL":    &c.LeadsQueueURL,
		"METRICS_NAMESPACE":  &c.MetricsNamespace,
	}
	for name, dst := range strs {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"TIME_TRAP":   &c.TimeTrap,
		"SESSION_TTL": &c.SessionTTL,
	}
	for name, dst := range durations {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = d
	}

	if v, ok := lookup(EnvPrefix + "TRUSTED_PROXIES"); ok {
		c.TrustedProxies = splitList(v)
	}

	if v, ok := lookup(EnvPrefix + "COOKIE_SECURE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sCOOKIE_SECURE: %w", EnvPrefix, err)
		}
		c.CookieSecure = b
	}
	return nil
}

// splitList parses a comma separated list, dropping blanks.
func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Validate checks the merged configuration.
func (c *Config) Validate() error {
	return validateStruct(c)
}

func validateStruct(v any) error {
	if err := validatorv10.New().Struct(v); err != nil {
		var ve validatorv10.ValidationErrors
		if errors.As(err, &ve) {
			return fmt.Errorf("%w: %s", ErrInvalid, ve.Error())
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// WorkerConfig is the lead mirror worker's view of the configuration file.
type WorkerConfig struct {
	LeadsTable string `yaml:"leads_table" validate:"required"`
}

// LoadWorker reads path (or FORMFLOW_CONFIG) and applies FORMFLOW_LEADS_TABLE.
// The result is not validated so callers can apply flag overrides first.
func LoadWorker(path string) (*WorkerConfig, error) {
	if path == "" {
		path = os.Getenv(EnvPrefix + "CONFIG")
	}
	cfg := &WorkerConfig{}
	if path != "" {
		if err := readYAML(path, cfg); err != nil {
			return nil, err
		}
	}
	if v, ok := os.LookupEnv(EnvPrefix + "LEADS_TABLE"); ok {
		cfg.LeadsTable = v
	}
	return cfg, nil
}

// Validate checks the worker configuration.
func (w *WorkerConfig) Validate() error {
	return validateStruct(w)
}

// Catalog returns the configured resource catalog, or the embedded default
// when no resources are configured.
func (c *Config) Catalog() (*catalog.Catalog, error) {
	if len(c.Resources) == 0 {
		return catalog.Default()
	}
	for key, e := range c.Resources {
		if e.Title == "" || e.Path == "" || e.Path[0] != '/' {
			return nil, fmt.Errorf("%w: resource %q needs a title and an absolute path", ErrInvalid, key)
		}
	}
	return catalog.New(c.Resources), nil
}

// MailSender builds the configured transport.
func (c *Config) MailSender(logger *log.Logger) mail.Sender {
	switch c.Mail.Transport {
	case TransportSMTP:
		return mail.SMTPSender{
			Addr:     c.Mail.SMTPAddr,
			Username: c.Mail.SMTPUsername,
			Password: c.Mail.SMTPPassword,
		}
	case TransportLog:
		return mail.LogSender{Logger: logger}
	default:
		return mail.SendmailSender{Path: c.Mail.SendmailPath}
	}
}
