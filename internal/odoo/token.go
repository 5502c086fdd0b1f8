package odoo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/breathscript/Deccanbridgecareers/internal/submission"
)

// RESTStrategy posts to the /api/v1/<model> endpoint with the API key.
type RESTStrategy struct {
	cfg Config
}

// NewRESTStrategy builds a RESTStrategy.
func NewRESTStrategy(cfg Config) *RESTStrategy {
	return &RESTStrategy{cfg: cfg.withDefaults()}
}

// Name implements submission.Strategy.
func (s *RESTStrategy) Name() string { return "rest" }

type restParams struct {
	Model  string         `json:"model"`
	Fields map[string]any `json:"fields"`
}

// Attempt implements submission.Strategy.
func (s *RESTStrategy) Attempt(ctx context.Context, req submission.Request) (submission.Result, error) {
	id, err := s.create(ctx, req.Model, req.Payload, s.cfg.CreateTimeout)
	if err != nil {
		return submission.Result{}, err
	}
	if id.IsZero() {
		return submission.Result{}, fmt.Errorf("%w: rest create returned no id", submission.ErrNoRecord)
	}

	res := submission.Result{RecordID: id}
	if req.Attachment != nil {
		attID, err := s.create(ctx, attachmentModel, attachmentValues(req.Attachment, req.Model, id), s.cfg.AttachmentTimeout)
		switch {
		case err != nil:
			res.AttachmentErr = fmt.Errorf("%w: %w", submission.ErrAttachment, err)
		case attID.IsZero():
			res.AttachmentErr = fmt.Errorf("%w: rest create returned no id", submission.ErrAttachment)
		default:
			res.AttachmentID = attID
		}
	}
	return res, nil
}

func (s *RESTStrategy) create(ctx context.Context, model string, fields map[string]any, timeout time.Duration) (submission.RecordID, error) {
	resp, _, err := post(ctx, s.cfg.HTTPClient, s.cfg.BaseURL, rpcCall{
		path:    "/api/v1/" + model,
		body:    newRPCRequest("create", restParams{Model: model, Fields: fields}),
		header:  tokenHeader(s.cfg.APIKey),
		timeout: timeout,
	})
	if err != nil {
		return 0, err
	}
	if id := decodeRecordID(resp.Result); !id.IsZero() {
		return id, nil
	}
	// A plain REST body carries the record id as "id"; in a JSON-RPC envelope "id" only echoes
	// the request.
	if resp.JSONRPC == "" && isNull(resp.Result) {
		return decodeRecordID(resp.ID), nil
	}
	return 0, nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

// CallKWStrategy posts to /web/dataset/call_kw with the API key instead of a session.
type CallKWStrategy struct {
	cfg Config
}

// NewCallKWStrategy builds a CallKWStrategy.
func NewCallKWStrategy(cfg Config) *CallKWStrategy {
	return &CallKWStrategy{cfg: cfg.withDefaults()}
}

// Name implements submission.Strategy.
func (s *CallKWStrategy) Name() string { return "call_kw" }

// Attempt implements submission.Strategy.
func (s *CallKWStrategy) Attempt(ctx context.Context, req submission.Request) (submission.Result, error) {
	raw, err := s.create(ctx, req.Model, req.Payload, s.cfg.CreateTimeout)
	if err != nil {
		return submission.Result{}, err
	}
	id := decodeRecordID(raw)
	if id.IsZero() {
		return submission.Result{}, fmt.Errorf("%w: call_kw create returned %s", submission.ErrNoRecord, raw)
	}

	res := submission.Result{RecordID: id}
	if req.Attachment != nil {
		raw, err := s.create(ctx, attachmentModel, attachmentValues(req.Attachment, req.Model, id), s.cfg.AttachmentTimeout)
		res.AttachmentID, res.AttachmentErr = attachmentResult(raw, err)
	}
	return res, nil
}

func (s *CallKWStrategy) create(ctx context.Context, model string, values map[string]any, timeout time.Duration) (json.RawMessage, error) {
	resp, _, err := post(ctx, s.cfg.HTTPClient, s.cfg.BaseURL, rpcCall{
		path: callKWPath(model, "create"),
		body: newRPCRequest("call", callKWParams{
			Model:  model,
			Method: "create",
			Args:   []any{values},
			KWArgs: map[string]any{},
		}),
		header:  tokenHeader(s.cfg.APIKey),
		timeout: timeout,
	})
	if err != nil {
		return nil, err
	}
	return resp.Result, nil
}
