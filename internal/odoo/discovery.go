package odoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/breathscript/Deccanbridgecareers/internal/submission"
)

const defaultDiscoveryTimeout = 10 * time.Second

var discoveredFields = []string{"name", "field_description", "ttype", "required", "readonly", "help"}

// Discovery lists the custom fields a CRM model exposes.
type Discovery struct {
	client  *sessionClient
	timeout time.Duration
	logger  *zap.Logger
}

// NewDiscovery builds a Discovery using session authentication. timeout bounds a whole lookup.
func NewDiscovery(cfg Config, timeout time.Duration, logger *zap.Logger) *Discovery {
	if timeout <= 0 {
		timeout = defaultDiscoveryTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Discovery{
		client:  &sessionClient{cfg: cfg.withDefaults()},
		timeout: timeout,
		logger:  logger,
	}
}

// fieldRecord is an ir.model.fields row. Odoo sends false for unset text columns.
type fieldRecord struct {
	Name             odooString `json:"name"`
	FieldDescription odooString `json:"field_description"`
	TType            odooString `json:"ttype"`
	Required         bool       `json:"required"`
	Readonly         bool       `json:"readonly"`
	Help             odooString `json:"help"`
}

type odooString string

func (s *odooString) UnmarshalJSON(data []byte) error {
	if string(data) == "false" || string(data) == "null" {
		*s = ""
		return nil
	}
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = odooString(v)
	return nil
}

// Fetch returns the fields of model whose technical name contains prefix, sorted by name.
func (d *Discovery) Fetch(ctx context.Context, model, prefix string) ([]submission.CustomFieldDescriptor, error) {
	if !d.client.cfg.HasPasswordAuth() {
		return nil, errors.New("crm credentials not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	sess, err := d.client.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	domain := []any{
		[]any{"model", "=", model},
		[]any{"name", "like", prefix},
	}
	raw, err := d.client.callKW(ctx, sess, "ir.model.fields", "search_read",
		[]any{domain}, map[string]any{"fields": discoveredFields}, d.timeout)
	if err != nil {
		return nil, err
	}

	var records []fieldRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decode field list: %w", err)
	}
	fields := make([]submission.CustomFieldDescriptor, 0, len(records))
	for _, r := range records {
		if r.Name == "" {
			continue
		}
		fields = append(fields, submission.CustomFieldDescriptor{
			Name:     string(r.Name),
			Label:    string(r.FieldDescription),
			Type:     string(r.TType),
			Required: r.Required,
			Readonly: r.Readonly,
			Help:     string(r.Help),
		})
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].Name < fields[j].Name })
	return fields, nil
}

// FetchCustomFields is Fetch keyed by field name. Failures yield an empty map so payload
// building can continue with standard fields only.
func (d *Discovery) FetchCustomFields(ctx context.Context, model, prefix string) map[string]submission.CustomFieldDescriptor {
	fields, err := d.Fetch(ctx, model, prefix)
	if err != nil {
		d.logger.Warn("custom field discovery failed; using standard fields only",
			zap.String("model", model), zap.Error(err))
		return map[string]submission.CustomFieldDescriptor{}
	}
	out := make(map[string]submission.CustomFieldDescriptor, len(fields))
	for _, f := range fields {
		out[f.Name] = f
	}
	return out
}
