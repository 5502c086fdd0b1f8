package odoo

import (
	"net/http"
	"strings"
	"time"

	"github.com/breathscript/Deccanbridgecareers/internal/submission"
)

const (
	defaultAuthTimeout       = 10 * time.Second
	defaultCreateTimeout     = 30 * time.Second
	defaultAttachmentTimeout = 30 * time.Second

	attachmentModel = "ir.attachment"
)

// Config holds the CRM endpoint and credentials.
type Config struct {
	BaseURL  string
	Database string
	Login    string
	Password string
	APIKey   string

	AuthTimeout       time.Duration
	CreateTimeout     time.Duration
	AttachmentTimeout time.Duration

	// HTTPClient is used for JSON-RPC calls and as the transport source for XML-RPC.
	// Defaults to a client without a global timeout; every call sets its own deadline.
	HTTPClient *http.Client
}

func (c Config) withDefaults() Config {
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.AuthTimeout <= 0 {
		c.AuthTimeout = defaultAuthTimeout
	}
	if c.CreateTimeout <= 0 {
		c.CreateTimeout = defaultCreateTimeout
	}
	if c.AttachmentTimeout <= 0 {
		c.AttachmentTimeout = defaultAttachmentTimeout
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{}
	}
	return c
}

// HasPasswordAuth reports whether the login based transports can be used.
func (c Config) HasPasswordAuth() bool {
	return c.BaseURL != "" && c.Database != "" && c.Login != "" && c.Password != ""
}

// HasTokenAuth reports whether the API key transports can be used.
func (c Config) HasTokenAuth() bool {
	return c.BaseURL != "" && c.APIKey != ""
}

// NewStrategies returns the configured strategies in fallback order.
func NewStrategies(cfg Config) []submission.Strategy {
	cfg = cfg.withDefaults()
	var strategies []submission.Strategy
	if cfg.HasPasswordAuth() {
		strategies = append(strategies, NewXMLRPCStrategy(cfg), NewSessionStrategy(cfg))
	}
	if cfg.HasTokenAuth() {
		strategies = append(strategies, NewRESTStrategy(cfg), NewCallKWStrategy(cfg))
	}
	return strategies
}

// attachmentValues is the ir.attachment record linking a file to the created record.
func attachmentValues(att *submission.EncodedAttachment, model string, resID submission.RecordID) map[string]any {
	return map[string]any{
		"name":      att.Filename,
		"type":      "binary",
		"datas":     att.Data,
		"res_model": model,
		"res_id":    int64(resID),
		"mimetype":  att.MIMEType,
	}
}
