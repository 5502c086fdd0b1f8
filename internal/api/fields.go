package api

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/breathscript/Deccanbridgecareers/internal/submission"
)

func (s *Server) odooFields(w http.ResponseWriter, r *http.Request) {
	if s.deps.Fields == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"success": false,
			"error":   "Odoo credentials not configured",
			"fields":  []any{},
		})
		return
	}

	fields, err := s.deps.Fields.Fetch(r.Context(), s.cfg.Odoo.LeadModel, s.cfg.Odoo.CustomFieldPrefix)
	if err != nil {
		s.logger.Warn("custom field lookup failed",
			zap.String("request_id", RequestIDFromContext(r.Context())),
			zap.Error(err))
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"success": false,
			"error":   err.Error(),
			"fields":  []any{},
		})
		return
	}
	if fields == nil {
		fields = []submission.CustomFieldDescriptor{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"fields":  fields,
	})
}
