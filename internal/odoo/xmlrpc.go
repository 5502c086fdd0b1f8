package odoo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/rpc"
	"time"

	"github.com/kolo/xmlrpc"

	"github.com/breathscript/Deccanbridgecareers/internal/submission"
)

const (
	xmlrpcCommonPath = "/xmlrpc/2/common"
	xmlrpcObjectPath = "/xmlrpc/2/object"
)

// XMLRPCStrategy authenticates with login/password over XML-RPC and creates the record with
// execute_kw.
type XMLRPCStrategy struct {
	cfg Config
}

// NewXMLRPCStrategy builds an XMLRPCStrategy.
func NewXMLRPCStrategy(cfg Config) *XMLRPCStrategy {
	return &XMLRPCStrategy{cfg: cfg.withDefaults()}
}

// Name implements submission.Strategy.
func (s *XMLRPCStrategy) Name() string { return "xmlrpc" }

// Attempt implements submission.Strategy.
func (s *XMLRPCStrategy) Attempt(ctx context.Context, req submission.Request) (submission.Result, error) {
	var uidReply any
	err := s.call(ctx, xmlrpcCommonPath, s.cfg.AuthTimeout, "authenticate",
		[]any{s.cfg.Database, s.cfg.Login, s.cfg.Password, map[string]any{}}, &uidReply)
	if err != nil {
		return submission.Result{}, fmt.Errorf("%w: %w", submission.ErrAuthentication, err)
	}
	uid := xmlrpcRecordID(uidReply)
	if uid.IsZero() {
		return submission.Result{}, fmt.Errorf("%w: xmlrpc authenticate returned %v", submission.ErrAuthentication, uidReply)
	}

	var idReply any
	err = s.call(ctx, xmlrpcObjectPath, s.cfg.CreateTimeout, "execute_kw",
		s.executeArgs(uid, req.Model, map[string]any(req.Payload)), &idReply)
	if err != nil {
		return submission.Result{}, err
	}
	id := xmlrpcRecordID(idReply)
	if id.IsZero() {
		return submission.Result{}, fmt.Errorf("%w: xmlrpc create returned %v", submission.ErrNoRecord, idReply)
	}

	res := submission.Result{RecordID: id}
	if req.Attachment != nil {
		var attReply any
		err := s.call(ctx, xmlrpcObjectPath, s.cfg.AttachmentTimeout, "execute_kw",
			s.executeArgs(uid, attachmentModel, attachmentValues(req.Attachment, req.Model, id)), &attReply)
		switch attID := xmlrpcRecordID(attReply); {
		case err != nil:
			res.AttachmentErr = fmt.Errorf("%w: %w", submission.ErrAttachment, err)
		case attID.IsZero():
			res.AttachmentErr = fmt.Errorf("%w: xmlrpc create returned %v", submission.ErrAttachment, attReply)
		default:
			res.AttachmentID = attID
		}
	}
	return res, nil
}

func (s *XMLRPCStrategy) executeArgs(uid submission.RecordID, model string, values map[string]any) []any {
	return []any{s.cfg.Database, int64(uid), s.cfg.Password, model, "create", []any{values}}
}

// call runs one XML-RPC method against path. The HTTP exchange is bounded by timeout and by
// ctx through the client's transport.
func (s *XMLRPCStrategy) call(ctx context.Context, path string, timeout time.Duration, method string, args []any, reply any) error {
	client, err := xmlrpc.NewClient(s.cfg.BaseURL+path, &deadlineTransport{
		ctx:     ctx,
		timeout: timeout,
		base:    s.transport(),
	})
	if err != nil {
		return fmt.Errorf("%w: xmlrpc client for %s: %w", submission.ErrTransport, path, err)
	}
	defer func() { _ = client.Close() }()

	if err := client.Call(method, args, reply); err != nil {
		var fault rpc.ServerError
		if errors.As(err, &fault) {
			return fmt.Errorf("%w: xmlrpc %s: %w", submission.ErrRemote, method, err)
		}
		return fmt.Errorf("%w: xmlrpc %s: %w", submission.ErrTransport, method, err)
	}
	return nil
}

func (s *XMLRPCStrategy) transport() http.RoundTripper {
	if s.cfg.HTTPClient != nil && s.cfg.HTTPClient.Transport != nil {
		return s.cfg.HTTPClient.Transport
	}
	return http.DefaultTransport
}

// xmlrpcRecordID converts a decoded XML-RPC reply into a record id. Odoo answers false for a
// failed login and may wrap created ids in a list.
func xmlrpcRecordID(v any) submission.RecordID {
	switch id := v.(type) {
	case int64:
		return submission.RecordID(id)
	case int:
		return submission.RecordID(id)
	case []any:
		if len(id) > 0 {
			return xmlrpcRecordID(id[0])
		}
	}
	return 0
}

// deadlineTransport binds every request to a parent context and a timeout. The XML-RPC client
// builds requests without a context, so this is the only place both can be applied.
type deadlineTransport struct {
	ctx     context.Context
	timeout time.Duration
	base    http.RoundTripper
}

func (t *deadlineTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx, cancel := context.WithTimeout(t.ctx, t.timeout)
	resp, err := t.base.RoundTrip(req.WithContext(ctx))
	if err != nil {
		cancel()
		return nil, err
	}
	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}
