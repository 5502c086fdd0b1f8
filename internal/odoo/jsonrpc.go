package odoo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/breathscript/Deccanbridgecareers/internal/submission"
)

const maxResponseBytes = 4 << 20

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method,omitempty"`
	Params  any    `json:"params"`
	ID      int    `json:"id"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	ID      json.RawMessage `json:"id"`
	Error   *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Name    string `json:"name"`
		Message string `json:"message"`
	} `json:"data"`
}

func (e *rpcError) Error() string {
	if e.Data.Message != "" {
		return fmt.Sprintf("%s (code %d): %s", e.Message, e.Code, e.Data.Message)
	}
	return fmt.Sprintf("%s (code %d)", e.Message, e.Code)
}

type callKWParams struct {
	Model  string         `json:"model"`
	Method string         `json:"method"`
	Args   []any          `json:"args"`
	KWArgs map[string]any `json:"kwargs"`
}

func newRPCRequest(method string, params any) rpcRequest {
	return rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      rand.Intn(1_000_000),
	}
}

// rpcCall describes one JSON-RPC POST.
type rpcCall struct {
	path    string
	body    rpcRequest
	header  http.Header
	cookies []*http.Cookie
	timeout time.Duration
}

// post sends a JSON-RPC request and returns the decoded envelope plus any cookies set by the
// server. A JSON-RPC error object is reported as ErrRemote.
func post(ctx context.Context, client *http.Client, baseURL string, call rpcCall) (rpcResponse, []*http.Cookie, error) {
	ctx, cancel := context.WithTimeout(ctx, call.timeout)
	defer cancel()

	buf, err := json.Marshal(call.body)
	if err != nil {
		return rpcResponse{}, nil, fmt.Errorf("marshal %s request: %w", call.path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+call.path, bytes.NewReader(buf))
	if err != nil {
		return rpcResponse{}, nil, fmt.Errorf("build %s request: %w", call.path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for key, values := range call.header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	for _, c := range call.cookies {
		req.AddCookie(c)
	}

	resp, err := client.Do(req)
	if err != nil {
		return rpcResponse{}, nil, fmt.Errorf("%w: post %s: %w", submission.ErrTransport, call.path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return rpcResponse{}, nil, fmt.Errorf("%w: read %s response: %w", submission.ErrTransport, call.path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return rpcResponse{}, nil, fmt.Errorf("%w: %s returned status %d", submission.ErrTransport, call.path, resp.StatusCode)
	}

	var out rpcResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return rpcResponse{}, nil, fmt.Errorf("%w: decode %s response: %w", submission.ErrTransport, call.path, err)
	}
	if out.Error != nil {
		return out, resp.Cookies(), fmt.Errorf("%w: %s: %w", submission.ErrRemote, call.path, out.Error)
	}
	return out, resp.Cookies(), nil
}

// decodeRecordID accepts the shapes Odoo uses for create results: a number, a single-element
// list of numbers, an object with an "id" member, or false.
func decodeRecordID(raw json.RawMessage) submission.RecordID {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0
	}
	if raw[0] == '{' {
		var record struct {
			ID json.RawMessage `json:"id"`
		}
		if err := json.Unmarshal(raw, &record); err != nil {
			return 0
		}
		return decodeRecordID(record.ID)
	}
	if raw[0] == '[' {
		var ids []json.RawMessage
		if err := json.Unmarshal(raw, &ids); err != nil || len(ids) == 0 {
			return 0
		}
		return decodeRecordID(ids[0])
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0
		}
		raw = []byte(s)
	}
	id, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0
	}
	return submission.RecordID(id)
}

// tokenHeader carries the API key the way the token endpoints expect it.
func tokenHeader(apiKey string) http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+apiKey)
	h.Set("X-API-Key", apiKey)
	return h
}

func callKWPath(model, method string) string {
	return "/web/dataset/call_kw/" + model + "/" + method
}
