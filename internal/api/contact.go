package api

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"github.com/breathscript/Deccanbridgecareers/internal/mapper"
	"github.com/breathscript/Deccanbridgecareers/internal/submission"
)

const (
	msgMissingContactFields = "Missing required fields: name, email, subject, and message are required"
	msgInvalidJSON          = "Request body must be a JSON object."
	msgContactCreated       = "Contact form submitted successfully"
	msgContactLogged        = "Contact form submitted successfully (CRM sync may require manual review)"
	msgContactFailed        = "Failed to submit contact form. Please try again later."

	maxContactBytes = 64 << 10
)

//go:embed schemas/contact.schema.json
var contactSchemaJSON []byte

var contactSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(contactSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("load contact schema: %w", err)
	}
	return schema, nil
})

// validateContact checks body against the contact schema and returns the schema violations.
func validateContact(body []byte) ([]string, error) {
	schema, err := contactSchema()
	if err != nil {
		return nil, err
	}
	res, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", submission.ErrValidation, err)
	}
	if res.Valid() {
		return nil, nil
	}
	violations := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		violations = append(violations, e.String())
	}
	return violations, nil
}

func (s *Server) submitContact(w http.ResponseWriter, r *http.Request) {
	logger := s.logger.With(zap.String("request_id", RequestIDFromContext(r.Context())))

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxContactBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request body too large.")
			return
		}
		writeError(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}

	violations, err := validateContact(body)
	if err != nil {
		if errors.Is(err, submission.ErrValidation) {
			writeError(w, http.StatusBadRequest, msgInvalidJSON)
			return
		}
		logger.Error("contact schema unavailable", zap.Error(err))
		writeError(w, http.StatusInternalServerError, msgContactFailed)
		return
	}
	if len(violations) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   msgMissingContactFields,
			"details": violations,
		})
		return
	}

	var contact submission.Contact
	if err := json.Unmarshal(body, &contact); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}
	contact = trimContact(contact)
	if contact.Name == "" || contact.Email == "" || contact.Subject == "" || contact.Message == "" {
		writeError(w, http.StatusBadRequest, msgMissingContactFields)
		return
	}

	sub := submission.Submission{
		Kind:        submission.KindContact,
		SubmittedAt: s.now(),
		Contact:     &contact,
	}
	s.routeContact(r.Context(), logger, w, sub)
}

func (s *Server) routeContact(ctx context.Context, logger *zap.Logger, w http.ResponseWriter, sub submission.Submission) {
	payload, err := mapper.Build(sub, s.customFields(ctx))
	if err != nil {
		logger.Error("contact payload not built", zap.Error(err))
		writeError(w, http.StatusInternalServerError, msgContactFailed)
		return
	}

	outcome := s.deps.Router.Submit(ctx, sub, payload)
	if outcome.Created() {
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": msgContactCreated,
			"odooId":  int64(outcome.RemoteID),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": msgContactLogged,
	})
}

func trimContact(c submission.Contact) submission.Contact {
	return submission.Contact{
		Name:    strings.TrimSpace(c.Name),
		Email:   strings.TrimSpace(c.Email),
		Phone:   strings.TrimSpace(c.Phone),
		Subject: strings.TrimSpace(c.Subject),
		Message: strings.TrimSpace(c.Message),
	}
}
