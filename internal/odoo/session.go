package odoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/breathscript/Deccanbridgecareers/internal/submission"
)

const sessionAuthPath = "/web/session/authenticate"

// session is an authenticated web session.
type session struct {
	uid     int64
	cookies []*http.Cookie
}

// sessionClient performs JSON-RPC calls with a web session cookie.
type sessionClient struct {
	cfg Config
}

func (c *sessionClient) authenticate(ctx context.Context) (session, error) {
	body := newRPCRequest("", map[string]any{
		"db":       c.cfg.Database,
		"login":    c.cfg.Login,
		"password": c.cfg.Password,
	})
	resp, cookies, err := post(ctx, c.cfg.HTTPClient, c.cfg.BaseURL, rpcCall{
		path:    sessionAuthPath,
		body:    body,
		timeout: c.cfg.AuthTimeout,
	})
	if err != nil {
		return session{}, fmt.Errorf("%w: %w", submission.ErrAuthentication, err)
	}

	var result struct {
		UID json.RawMessage `json:"uid"`
	}
	if len(resp.Result) > 0 {
		if err := json.Unmarshal(resp.Result, &result); err != nil {
			return session{}, fmt.Errorf("%w: decode session result: %w", submission.ErrAuthentication, err)
		}
	}
	uid := decodeRecordID(result.UID)
	if uid.IsZero() {
		return session{}, fmt.Errorf("%w: session authenticate returned no uid", submission.ErrAuthentication)
	}
	if len(cookies) == 0 {
		return session{}, fmt.Errorf("%w: session authenticate returned no cookie", submission.ErrAuthentication)
	}
	return session{uid: int64(uid), cookies: cookies}, nil
}

func (c *sessionClient) callKW(ctx context.Context, s session, model, method string, args []any, kwargs map[string]any, timeout time.Duration) (json.RawMessage, error) {
	if kwargs == nil {
		kwargs = map[string]any{}
	}
	resp, _, err := post(ctx, c.cfg.HTTPClient, c.cfg.BaseURL, rpcCall{
		path: callKWPath(model, method),
		body: newRPCRequest("call", callKWParams{
			Model:  model,
			Method: method,
			Args:   args,
			KWArgs: kwargs,
		}),
		cookies: s.cookies,
		timeout: timeout,
	})
	if err != nil {
		return nil, err
	}
	return resp.Result, nil
}

// SessionStrategy authenticates a web session and creates the record through call_kw.
type SessionStrategy struct {
	client *sessionClient
}

// NewSessionStrategy builds a SessionStrategy.
func NewSessionStrategy(cfg Config) *SessionStrategy {
	return &SessionStrategy{client: &sessionClient{cfg: cfg.withDefaults()}}
}

// Name implements submission.Strategy.
func (s *SessionStrategy) Name() string { return "session" }

// Attempt implements submission.Strategy.
func (s *SessionStrategy) Attempt(ctx context.Context, req submission.Request) (submission.Result, error) {
	sess, err := s.client.authenticate(ctx)
	if err != nil {
		return submission.Result{}, err
	}

	raw, err := s.client.callKW(ctx, sess, req.Model, "create", []any{map[string]any(req.Payload)}, nil, s.client.cfg.CreateTimeout)
	if err != nil {
		return submission.Result{}, err
	}
	id := decodeRecordID(raw)
	if id.IsZero() {
		return submission.Result{}, fmt.Errorf("%w: session create returned %s", submission.ErrNoRecord, raw)
	}

	res := submission.Result{RecordID: id}
	if req.Attachment != nil {
		raw, err := s.client.callKW(ctx, sess, attachmentModel, "create",
			[]any{attachmentValues(req.Attachment, req.Model, id)}, nil, s.client.cfg.AttachmentTimeout)
		res.AttachmentID, res.AttachmentErr = attachmentResult(raw, err)
	}
	return res, nil
}

func attachmentResult(raw json.RawMessage, err error) (submission.RecordID, error) {
	if err != nil {
		return 0, fmt.Errorf("%w: %w", submission.ErrAttachment, err)
	}
	id := decodeRecordID(raw)
	if id.IsZero() {
		return 0, fmt.Errorf("%w: create returned %s", submission.ErrAttachment, raw)
	}
	return id, nil
}
