// Package config loads service configuration from defaults, an optional YAML file, and the
// environment.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/breathscript/Deccanbridgecareers/internal/storage/local"
)

// Storage backends.
const (
	BackendLocal  = "local"
	BackendGCS    = "gcs"
	BackendMemory = "memory"
)

// Config is the root configuration object.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Odoo    OdooConfig    `mapstructure:"odoo"`
	Upload  UploadConfig  `mapstructure:"upload"`
	Storage StorageConfig `mapstructure:"storage"`
	PubSub  PubSubConfig  `mapstructure:"pubsub"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port                     int    `mapstructure:"port"`
	StaticDir                string `mapstructure:"static_dir"`
	ReadHeaderTimeoutSeconds int    `mapstructure:"read_header_timeout_seconds"`
	ShutdownTimeoutSeconds   int    `mapstructure:"shutdown_timeout_seconds"`

	// RateLimitRPS limits form submissions per client IP. Zero disables limiting.
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`

	// TrustProxyHeaders takes the client IP from X-Real-IP / X-Forwarded-For. Enable only
	// behind a reverse proxy that overwrites those headers.
	TrustProxyHeaders bool `mapstructure:"trust_proxy_headers"`
}

// OdooConfig holds the CRM endpoint, credentials, and per-call timeouts.
type OdooConfig struct {
	Domain                   string `mapstructure:"domain"`
	Database                 string `mapstructure:"database"`
	Username                 string `mapstructure:"username"`
	Password                 string `mapstructure:"password"`
	APIKey                   string `mapstructure:"api_key"`
	LeadModel                string `mapstructure:"lead_model"`
	CustomFieldPrefix        string `mapstructure:"custom_field_prefix"`
	AuthTimeoutSeconds       int    `mapstructure:"auth_timeout_seconds"`
	CreateTimeoutSeconds     int    `mapstructure:"create_timeout_seconds"`
	AttachmentTimeoutSeconds int    `mapstructure:"attachment_timeout_seconds"`
	DiscoveryTimeoutSeconds  int    `mapstructure:"discovery_timeout_seconds"`
}

// UploadConfig limits resume uploads.
type UploadConfig struct {
	MaxBytes         int64    `mapstructure:"max_bytes"`
	AllowedMIMETypes []string `mapstructure:"allowed_mime_types"`
}

// StorageConfig selects the blob store holding fallback logs and uploads.
type StorageConfig struct {
	Backend      string       `mapstructure:"backend"`
	Bucket       string       `mapstructure:"bucket"`
	LogPrefix    string       `mapstructure:"log_prefix"`
	UploadPrefix string       `mapstructure:"upload_prefix"`
	Local        local.Config `mapstructure:"local"`
}

// PubSubConfig configures review notices. An empty topic disables Pub/Sub.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// legacyEnv maps config keys to the environment names used by earlier deployments.
var legacyEnv = map[string]string{
	"server.port":       "PORT",
	"odoo.domain":       "ODOO_DOMAIN",
	"odoo.database":     "ODOO_DB_NAME",
	"odoo.username":     "ODOO_USERNAME",
	"odoo.password":     "ODOO_PASSWORD",
	"odoo.api_key":      "ODOO_API_KEY",
	"pubsub.project_id": "GOOGLE_CLOUD_PROJECT",
}

// Load reads configuration from the optional file at path and from CAREERS_* environment
// variables, then validates it.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CAREERS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	for key, legacy := range legacyEnv {
		prefixed := "CAREERS_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return Config{}, fmt.Errorf("bind env %s: %w", legacy, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Odoo.Domain = strings.TrimRight(strings.TrimSpace(cfg.Odoo.Domain), "/")

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3001)
	v.SetDefault("server.static_dir", "")
	v.SetDefault("server.read_header_timeout_seconds", 5)
	v.SetDefault("server.shutdown_timeout_seconds", 10)
	v.SetDefault("server.rate_limit_rps", 0)
	v.SetDefault("server.rate_limit_burst", 5)
	v.SetDefault("server.trust_proxy_headers", false)
	v.SetDefault("odoo.domain", "")
	v.SetDefault("odoo.database", "")
	v.SetDefault("odoo.username", "")
	v.SetDefault("odoo.password", "")
	v.SetDefault("odoo.api_key", "")
	v.SetDefault("odoo.lead_model", "crm.lead")
	v.SetDefault("odoo.custom_field_prefix", "x_studio_")
	v.SetDefault("odoo.auth_timeout_seconds", 10)
	v.SetDefault("odoo.create_timeout_seconds", 30)
	v.SetDefault("odoo.attachment_timeout_seconds", 30)
	v.SetDefault("odoo.discovery_timeout_seconds", 10)
	v.SetDefault("upload.max_bytes", 5<<20)
	v.SetDefault("upload.allowed_mime_types", []string{
		"application/pdf",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	})
	v.SetDefault("storage.backend", BackendLocal)
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.log_prefix", "application-logs")
	v.SetDefault("storage.upload_prefix", "uploads")
	v.SetDefault("storage.local.base_dir", "data")
	v.SetDefault("pubsub.project_id", "")
	v.SetDefault("pubsub.topic_name", "")
	v.SetDefault("logging.development", false)
	v.SetDefault("logging.level", "info")
}

// Validate enforces basic invariants.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Server.ReadHeaderTimeoutSeconds <= 0 {
		return fmt.Errorf("server.read_header_timeout_seconds must be > 0")
	}
	if c.Server.RateLimitRPS < 0 || c.Server.RateLimitBurst < 0 {
		return fmt.Errorf("server.rate_limit_rps and server.rate_limit_burst must be >= 0")
	}
	if c.Odoo.AuthTimeoutSeconds <= 0 || c.Odoo.CreateTimeoutSeconds <= 0 ||
		c.Odoo.AttachmentTimeoutSeconds <= 0 || c.Odoo.DiscoveryTimeoutSeconds <= 0 {
		return fmt.Errorf("odoo timeouts must be > 0")
	}
	if c.Odoo.LeadModel == "" {
		return fmt.Errorf("odoo.lead_model must be set")
	}
	if c.Odoo.Domain != "" {
		if u, err := url.Parse(c.Odoo.Domain); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("odoo.domain must be an absolute URL, got %q", c.Odoo.Domain)
		}
	}
	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("upload.max_bytes must be > 0")
	}
	if len(c.Upload.AllowedMIMETypes) == 0 {
		return fmt.Errorf("upload.allowed_mime_types must not be empty")
	}
	switch c.Storage.Backend {
	case BackendLocal:
		if c.Storage.Local.BaseDir == "" {
			return fmt.Errorf("storage.local.base_dir must be set for the local backend")
		}
	case BackendGCS:
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage.bucket must be set for the gcs backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("storage.backend must be one of local, gcs, memory; got %q", c.Storage.Backend)
	}
	if c.PubSub.TopicName != "" && c.PubSub.ProjectID == "" {
		return fmt.Errorf("pubsub.project_id must be set when pubsub.topic_name is set")
	}
	return nil
}

// Enabled reports whether a CRM endpoint is configured at all.
func (o OdooConfig) Enabled() bool {
	return o.Domain != ""
}

// DatabaseName returns the configured database or, failing that, the first label of the
// domain's host ("acme" for https://acme.odoo.com).
func (o OdooConfig) DatabaseName() string {
	if o.Database != "" {
		return o.Database
	}
	u, err := url.Parse(o.Domain)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	label, _, _ := strings.Cut(u.Hostname(), ".")
	return label
}

// Login returns the username, falling back to the API key.
func (o OdooConfig) Login() string {
	if o.Username != "" {
		return o.Username
	}
	return o.APIKey
}

// Secret returns the password, falling back to the API key.
func (o OdooConfig) Secret() string {
	if o.Password != "" {
		return o.Password
	}
	return o.APIKey
}

// AuthTimeout returns the authentication call timeout.
func (o OdooConfig) AuthTimeout() time.Duration {
	return time.Duration(o.AuthTimeoutSeconds) * time.Second
}

// CreateTimeout returns the record creation timeout.
func (o OdooConfig) CreateTimeout() time.Duration {
	return time.Duration(o.CreateTimeoutSeconds) * time.Second
}

// AttachmentTimeout returns the attachment creation timeout.
func (o OdooConfig) AttachmentTimeout() time.Duration {
	return time.Duration(o.AttachmentTimeoutSeconds) * time.Second
}

// DiscoveryTimeout bounds a custom-field lookup.
func (o OdooConfig) DiscoveryTimeout() time.Duration {
	return time.Duration(o.DiscoveryTimeoutSeconds) * time.Second
}

// Allows reports whether mimeType is on the upload allow-list.
func (u UploadConfig) Allows(mimeType string) bool {
	for _, allowed := range u.AllowedMIMETypes {
		if strings.EqualFold(allowed, mimeType) {
			return true
		}
	}
	return false
}
