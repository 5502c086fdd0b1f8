package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/breathscript/Deccanbridgecareers/internal/config"
	"github.com/breathscript/Deccanbridgecareers/internal/submission"
)

const pdfMIME = "application/pdf"

type submitCall struct {
	sub     submission.Submission
	payload submission.Payload
}

type fakeSubmitter struct {
	mu      sync.Mutex
	outcome submission.Outcome
	panics  bool
	calls   []submitCall
}

func (f *fakeSubmitter) Submit(_ context.Context, sub submission.Submission, payload submission.Payload) submission.Outcome {
	if f.panics {
		panic("router exploded")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, submitCall{sub: sub, payload: payload})
	return f.outcome
}

func (f *fakeSubmitter) Strategies() []string { return []string{"xmlrpc", "session"} }

func (f *fakeSubmitter) submitted() []submitCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]submitCall(nil), f.calls...)
}

type fakeFields struct {
	custom map[string]submission.CustomFieldDescriptor
	list   []submission.CustomFieldDescriptor
	err    error
}

func (f *fakeFields) FetchCustomFields(context.Context, string, string) map[string]submission.CustomFieldDescriptor {
	return f.custom
}

func (f *fakeFields) Fetch(context.Context, string, string) ([]submission.CustomFieldDescriptor, error) {
	return f.list, f.err
}

type fakeFallback struct {
	mu      sync.Mutex
	entries []submission.LogEntry
}

func (f *fakeFallback) Log(_ context.Context, entry submission.LogEntry) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
	return fmt.Sprintf("memory://application-logs/%d.json", len(f.entries)), nil
}

type seqIDs struct {
	mu sync.Mutex
	n  int
}

func (s *seqIDs) NewID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("id-%d", s.n), nil
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

var testNow = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

func testConfig() config.Config {
	return config.Config{
		Odoo: config.OdooConfig{LeadModel: "crm.lead", CustomFieldPrefix: "x_studio_"},
		Upload: config.UploadConfig{
			MaxBytes: 5 << 20,
			AllowedMIMETypes: []string{
				pdfMIME,
				"application/msword",
				"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
			},
		},
		Storage: config.StorageConfig{UploadPrefix: "uploads", LogPrefix: "application-logs"},
	}
}

func newTestServer(deps Dependencies, cfg config.Config) *Server {
	if deps.IDs == nil {
		deps.IDs = &seqIDs{}
	}
	if deps.Clock == nil {
		deps.Clock = fixedClock{now: testNow}
	}
	return NewServer(deps, cfg, zap.NewNop())
}

type testFile struct {
	name     string
	mimeType string
	content  []byte
}

func newApplicationRequest(t *testing.T, fields map[string]string, file *testFile) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if file != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="resume"; filename=%q`, file.name))
		h.Set("Content-Type", file.mimeType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(file.content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/submit-application", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func validApplicationFields() map[string]string {
	return map[string]string{
		"jobId":            "JOB-7",
		"jobTitle":         "Backend Engineer",
		"personalInfo":     `{"fullName":"Asha Rao","email":"asha@example.com","phone":"98450 00000","currentLocation":"Pune, Maharashtra"}`,
		"professionalInfo": `{"totalExperience":6,"currentCompany":"Acme","currentDesignation":"SRE"}`,
		"jobQuestions":     `{"question-notice-period":"30 days","question-stack":["Go","SQL"]}`,
	}
}

type apiResponse struct {
	Success        bool            `json:"success"`
	Message        string          `json:"message"`
	Error          string          `json:"error"`
	Note           string          `json:"note"`
	OdooID         int64           `json:"odooId"`
	ResumeAttached *bool           `json:"resumeAttached"`
	ResumeSaved    *bool           `json:"resumeSaved"`
	Details        json.RawMessage `json:"details"`
	Fields         json.RawMessage `json:"fields"`
}

func serve(t *testing.T, s *Server, req *http.Request) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	var resp apiResponse
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	}
	return rec, resp
}
