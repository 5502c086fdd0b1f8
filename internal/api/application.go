package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/breathscript/Deccanbridgecareers/internal/mapper"
	"github.com/breathscript/Deccanbridgecareers/internal/submission"
)

// Client-facing messages for the application endpoint.
const (
	msgInvalidFileType     = "Invalid file type. Only PDF, DOC, and DOCX files are allowed."
	msgFileTooLarge        = "File too large. Maximum size is 5MB."
	msgInvalidForm         = "Invalid form submission."
	msgMissingAppFields    = "Missing required fields: jobId, jobTitle, fullName, and email are required"
	msgApplicationCreated  = "Application submitted successfully"
	msgApplicationReceived = "Application received. We will review and get back to you soon."
	msgApplicationNote     = "Application saved. CRM sync may require manual review."
	msgUnexpected          = "An unexpected error occurred. Please try again or contact us directly."
	msgSavedForReview      = "Your application data has been saved for manual review."
)

const (
	resumeField = "resume"
	// formOverhead is the room left for the non-file form fields on top of the upload limit.
	formOverhead = 1 << 20
	// multipartMemory is how much of the form is kept in memory before spilling to temp files.
	multipartMemory = 1 << 20
)

func (s *Server) submitApplication(w http.ResponseWriter, r *http.Request) {
	logger := s.logger.With(zap.String("request_id", RequestIDFromContext(r.Context())))

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxBytes+formOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusBadRequest, msgFileTooLarge)
			return
		}
		logger.Info("rejecting malformed application form", zap.Error(err))
		writeError(w, http.StatusBadRequest, msgInvalidForm)
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			logger.Warn("temporary upload files not removed", zap.Error(err))
		}
	}()
	form := r.MultipartForm

	file := firstFile(form, resumeField)
	var mimeType string
	if file != nil {
		mimeType = partMIMEType(file)
		if !s.cfg.Upload.Allows(mimeType) {
			writeError(w, http.StatusBadRequest, msgInvalidFileType)
			return
		}
		if file.Size > s.cfg.Upload.MaxBytes {
			writeError(w, http.StatusBadRequest, msgFileTooLarge)
			return
		}
	}

	sub := s.parseApplication(form)
	app := sub.Application
	details := map[string]bool{
		"jobId":    app.JobID != "",
		"jobTitle": app.JobTitle != "",
		"fullName": app.Personal.FullName != "",
		"email":    app.Personal.Email != "",
	}
	for _, ok := range details {
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"success": false,
				"error":   msgMissingAppFields,
				"details": details,
			})
			return
		}
	}

	if file != nil {
		att, err := readAttachment(file, mimeType)
		sub.Attachment = att
		if err != nil {
			s.unexpectedApplicationError(r.Context(), logger, w, sub, fmt.Errorf("read resume: %w", err))
			return
		}
		att.StoredAt = s.saveUpload(r.Context(), logger, att)
	}

	s.routeApplication(r.Context(), logger, w, sub)
}

func (s *Server) routeApplication(ctx context.Context, logger *zap.Logger, w http.ResponseWriter, sub submission.Submission) {
	custom := s.customFields(ctx)
	payload, err := mapper.Build(sub, custom)
	if err != nil {
		s.unexpectedApplicationError(ctx, logger, w, sub, err)
		return
	}

	outcome := s.deps.Router.Submit(ctx, sub, payload)
	if outcome.Created() {
		writeJSON(w, http.StatusOK, map[string]any{
			"success":        true,
			"message":        msgApplicationCreated,
			"odooId":         int64(outcome.RemoteID),
			"resumeAttached": outcome.AttachmentAttached,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"message":     msgApplicationReceived,
		"note":        msgApplicationNote,
		"resumeSaved": sub.Attachment != nil && sub.Attachment.StoredAt != "",
	})
}

// unexpectedApplicationError records the submission as an error entry and answers 500.
func (s *Server) unexpectedApplicationError(
	ctx context.Context,
	logger *zap.Logger,
	w http.ResponseWriter,
	sub submission.Submission,
	cause error,
) {
	logger.Error("unexpected error in application submission", zap.Error(cause))
	if s.deps.Fallback != nil {
		entry := submission.LogEntry{Submission: sub, Err: cause, Unexpected: true}
		if uri, err := s.deps.Fallback.Log(context.WithoutCancel(ctx), entry); err != nil {
			logger.Error("error record not saved", zap.Error(err))
		} else {
			logger.Info("error record saved", zap.String("uri", uri))
		}
	}
	writeJSON(w, http.StatusInternalServerError, map[string]any{
		"success": false,
		"error":   msgUnexpected,
		"message": msgSavedForReview,
	})
}

// parseApplication reads the text fields. Sections that are not valid JSON are recorded in
// ParseErrors and left empty.
func (s *Server) parseApplication(form *multipart.Form) submission.Submission {
	app := &submission.Application{
		JobID:    strings.TrimSpace(formValue(form, "jobId")),
		JobTitle: strings.TrimSpace(formValue(form, "jobTitle")),
	}
	parseErrors := map[string]string{}
	decodeSection(form, "personalInfo", &app.Personal, parseErrors)
	decodeSection(form, "professionalInfo", &app.Professional, parseErrors)
	decodeSection(form, "jobQuestions", &app.Questions, parseErrors)
	if len(parseErrors) == 0 {
		parseErrors = nil
	}

	return submission.Submission{
		Kind:        submission.KindApplication,
		SubmittedAt: s.now(),
		Application: app,
		ParseErrors: parseErrors,
	}
}

func decodeSection(form *multipart.Form, field string, dst any, parseErrors map[string]string) {
	raw := strings.TrimSpace(formValue(form, field))
	if raw == "" {
		return
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		parseErrors[field] = err.Error()
	}
}

func (s *Server) customFields(ctx context.Context) map[string]submission.CustomFieldDescriptor {
	if s.deps.Fields == nil {
		return nil
	}
	return s.deps.Fields.FetchCustomFields(ctx, s.cfg.Odoo.LeadModel, s.cfg.Odoo.CustomFieldPrefix)
}

// saveUpload keeps a copy of the resume and returns its URI, or "" when it could not be saved.
func (s *Server) saveUpload(ctx context.Context, logger *zap.Logger, att *submission.Attachment) string {
	if s.deps.Uploads == nil || s.deps.IDs == nil {
		return ""
	}
	id, err := s.deps.IDs.NewID()
	if err != nil {
		logger.Warn("resume not saved", zap.Error(err))
		return ""
	}
	name := path.Join(s.cfg.Storage.UploadPrefix, "resume-"+id+uploadExt(att.Filename))
	uri, err := s.deps.Uploads.PutObject(ctx, name, att.MIMEType, bytes.NewReader(att.Content))
	if err != nil {
		logger.Warn("resume not saved", zap.String("path", name), zap.Error(err))
		return ""
	}
	return uri
}

func (s *Server) now() time.Time {
	if s.deps.Clock == nil {
		return time.Now().UTC()
	}
	return s.deps.Clock.Now()
}

// readAttachment reads the uploaded part exactly once. The returned attachment carries the
// metadata even when reading fails.
func readAttachment(fh *multipart.FileHeader, mimeType string) (*submission.Attachment, error) {
	att := &submission.Attachment{
		Filename:  filepath.Base(fh.Filename),
		MIMEType:  mimeType,
		SizeBytes: fh.Size,
	}
	f, err := fh.Open()
	if err != nil {
		return att, err
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		return att, err
	}
	att.Content = content
	att.SizeBytes = int64(len(content))
	return att, nil
}

func firstFile(form *multipart.Form, field string) *multipart.FileHeader {
	files := form.File[field]
	if len(files) == 0 {
		return nil
	}
	return files[0]
}

func formValue(form *multipart.Form, field string) string {
	values := form.Value[field]
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func partMIMEType(fh *multipart.FileHeader) string {
	raw := fh.Header.Get("Content-Type")
	mediaType, _, err := mime.ParseMediaType(raw)
	if err != nil {
		return strings.TrimSpace(raw)
	}
	return mediaType
}

// uploadExt keeps short alphanumeric extensions only.
func uploadExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if len(ext) < 2 || len(ext) > 6 {
		return ""
	}
	for _, c := range ext[1:] {
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') {
			return ""
		}
	}
	return ext
}
