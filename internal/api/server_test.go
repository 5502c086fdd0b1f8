package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/breathscript/Deccanbridgecareers/internal/submission"
)

func TestHealthAndReadiness(t *testing.T) {
	t.Parallel()

	s := newTestServer(Dependencies{Router: &fakeSubmitter{}, Fallback: &fakeFallback{}}, testConfig())

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ready","strategies":["xmlrpc","session"]}`, rec.Body.String())
}

func TestReadinessWithoutFallback(t *testing.T) {
	t.Parallel()

	s := newTestServer(Dependencies{Router: &fakeSubmitter{}}, testConfig())
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	s := newTestServer(Dependencies{Router: &fakeSubmitter{}, Fallback: &fakeFallback{}}, testConfig())
	s.Handler().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestRequestIDMiddlewareSetsHeader(t *testing.T) {
	t.Parallel()

	deps := Dependencies{Router: &fakeSubmitter{}, Fallback: &fakeFallback{}, RequestID: func() string { return "req-1" }}
	s := newTestServer(deps, testConfig())
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, "req-1", rec.Header().Get("X-Request-ID"))
}

func TestRecoverMiddleware(t *testing.T) {
	t.Parallel()

	s := newTestServer(Dependencies{Router: &fakeSubmitter{panics: true}, Fallback: &fakeFallback{}}, testConfig())

	rec, resp := serve(t, s, contactRequest(
		`{"name":"Ravi","email":"ravi@example.com","subject":"Hiring","message":"Call me"}`))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal server error", resp.Error)
}

func TestStaticDirIsServed(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Jobs.html"), []byte("<h1>Jobs</h1>"), 0o600))
	cfg := testConfig()
	cfg.Server.StaticDir = dir
	s := newTestServer(Dependencies{Router: &fakeSubmitter{}, Fallback: &fakeFallback{}}, cfg)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/Jobs.html", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<h1>Jobs</h1>")
}

func TestOdooFields(t *testing.T) {
	t.Parallel()

	t.Run("not configured", func(t *testing.T) {
		t.Parallel()
		s := newTestServer(Dependencies{Router: &fakeSubmitter{}, Fallback: &fakeFallback{}}, testConfig())
		rec, resp := serve(t, s, httptest.NewRequest(http.MethodGet, "/api/odoo-fields", nil))
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.False(t, resp.Success)
		assert.JSONEq(t, `[]`, string(resp.Fields))
	})

	t.Run("lookup fails", func(t *testing.T) {
		t.Parallel()
		fields := &fakeFields{err: errors.New("crm authentication failed")}
		s := newTestServer(Dependencies{Router: &fakeSubmitter{}, Fallback: &fakeFallback{}, Fields: fields}, testConfig())
		rec, resp := serve(t, s, httptest.NewRequest(http.MethodGet, "/api/odoo-fields", nil))
		require.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Equal(t, "crm authentication failed", resp.Error)
		assert.JSONEq(t, `[]`, string(resp.Fields))
	})

	t.Run("lists fields", func(t *testing.T) {
		t.Parallel()
		fields := &fakeFields{list: []submission.CustomFieldDescriptor{
			{Name: "x_studio_job_id", Label: "Job ID", Type: "char"},
		}}
		s := newTestServer(Dependencies{Router: &fakeSubmitter{}, Fallback: &fakeFallback{}, Fields: fields}, testConfig())
		rec, resp := serve(t, s, httptest.NewRequest(http.MethodGet, "/api/odoo-fields", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, resp.Success)
		assert.JSONEq(t,
			`[{"name":"x_studio_job_id","label":"Job ID","type":"char","required":false,"readonly":false}]`,
			string(resp.Fields))
	})
}

type denyAfter struct {
	allowed int
	keys    []string
}

func (d *denyAfter) Allow(key string) bool {
	d.keys = append(d.keys, key)
	return len(d.keys) <= d.allowed
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Parallel()

	limiter := &denyAfter{allowed: 1}
	router := &fakeSubmitter{outcome: submission.Outcome{Status: submission.OutcomeLoggedLocally}}
	s := newTestServer(Dependencies{Router: router, Fallback: &fakeFallback{}, Limiter: limiter}, testConfig())
	body := `{"name":"Ravi","email":"ravi@example.com","subject":"Hiring","message":"Call me"}`

	rec, _ := serve(t, s, contactRequest(body))
	require.Equal(t, http.StatusOK, rec.Code)

	// A forged forwarding header does not buy a fresh bucket.
	second := contactRequest(body)
	second.Header.Set("X-Forwarded-For", "203.0.113.7")
	rec, resp := serve(t, s, second)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.False(t, resp.Success)
	assert.Len(t, router.submitted(), 1)
	assert.Equal(t, []string{"192.0.2.1", "192.0.2.1"}, limiter.keys)

	// Field discovery is not throttled.
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/odoo-fields", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Len(t, limiter.keys, 2)
}

func TestRateLimitKeyBehindTrustedProxy(t *testing.T) {
	t.Parallel()

	limiter := &denyAfter{allowed: 10}
	router := &fakeSubmitter{outcome: submission.Outcome{Status: submission.OutcomeLoggedLocally}}
	cfg := testConfig()
	cfg.Server.TrustProxyHeaders = true
	s := newTestServer(Dependencies{Router: router, Fallback: &fakeFallback{}, Limiter: limiter}, cfg)
	body := `{"name":"Ravi","email":"ravi@example.com","subject":"Hiring","message":"Call me"}`

	forwarded := contactRequest(body)
	forwarded.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	rec, _ := serve(t, s, forwarded)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = serve(t, s, contactRequest(body))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, []string{"203.0.113.7", "192.0.2.1"}, limiter.keys)
}
