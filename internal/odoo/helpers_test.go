package odoo

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/breathscript/Deccanbridgecareers/internal/submission"
)

func testConfig(baseURL string) Config {
	return Config{
		BaseURL:           baseURL + "/",
		Database:          "deccan",
		Login:             "bot@example.com",
		Password:          "secret",
		APIKey:            "key-123",
		AuthTimeout:       2 * time.Second,
		CreateTimeout:     2 * time.Second,
		AttachmentTimeout: 2 * time.Second,
	}
}

func testRequest(withAttachment bool) submission.Request {
	req := submission.Request{
		Model:   "crm.lead",
		Payload: submission.Payload{"name": "Asha Rao - Application for Engineer", "type": "opportunity"},
	}
	if withAttachment {
		req.Attachment = &submission.EncodedAttachment{Filename: "cv.pdf", MIMEType: "application/pdf", Data: "cGRm"}
	}
	return req
}

// jsonRPCBody decodes an incoming JSON-RPC request into a generic map.
func jsonRPCBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var body map[string]any
	assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
	return body
}

func writeResult(w http.ResponseWriter, result any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": 1, "result": result})
}

func writeRPCError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"error": map[string]any{
			"code":    200,
			"message": "Odoo Server Error",
			"data":    map[string]any{"name": "odoo.exceptions.AccessError", "message": message},
		},
	})
}

func readBody(t *testing.T, r *http.Request) string {
	t.Helper()
	data, err := io.ReadAll(r.Body)
	assert.NoError(t, err)
	return string(data)
}

func writeXMLRPCValue(w http.ResponseWriter, value string) {
	w.Header().Set("Content-Type", "text/xml")
	_, _ = fmt.Fprintf(w, `<?xml version="1.0"?><methodResponse><params><param><value>%s</value></param></params></methodResponse>`, value)
}

func writeXMLRPCFault(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "text/xml")
	_, _ = fmt.Fprintf(w, `<?xml version="1.0"?><methodResponse><fault><value><struct>`+
		`<member><name>faultCode</name><value><int>1</int></value></member>`+
		`<member><name>faultString</name><value><string>%s</string></value></member>`+
		`</struct></value></fault></methodResponse>`, message)
}
