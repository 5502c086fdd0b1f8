// Package fallback persists submissions that could not be synced to the CRM. Each submission is
// written as its own JSON document under a log prefix of a blob store, and operators are told
// about it through a review notice.
package fallback

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/breathscript/Deccanbridgecareers/internal/hash/sha256"
	"github.com/breathscript/Deccanbridgecareers/internal/metrics"
	"github.com/breathscript/Deccanbridgecareers/internal/submission"
)

const (
	// DefaultPrefix is the directory (or object prefix) holding fallback records.
	DefaultPrefix = "application-logs"

	// NoticeEvent is the event name carried by review notices.
	NoticeEvent = "submission.logged_locally"

	timestampLayout = "20060102T150405.000Z"
)

// Config controls where records go and which topic receives notices.
type Config struct {
	Prefix string
	// Topic is the review notice topic. Empty disables notices.
	Topic string
}

// Logger implements submission.FallbackLogger.
type Logger struct {
	store     submission.BlobStore
	publisher submission.Publisher
	ids       submission.IDGenerator
	clock     submission.Clock
	cfg       Config
	logger    *zap.Logger
}

// New builds a Logger. publisher may be nil.
func New(
	store submission.BlobStore,
	publisher submission.Publisher,
	ids submission.IDGenerator,
	clock submission.Clock,
	cfg Config,
	logger *zap.Logger,
) (*Logger, error) {
	if store == nil {
		return nil, errors.New("fallback: blob store is required")
	}
	if ids == nil {
		return nil, errors.New("fallback: id generator is required")
	}
	if clock == nil {
		return nil, errors.New("fallback: clock is required")
	}
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultPrefix
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Logger{
		store:     store,
		publisher: publisher,
		ids:       ids,
		clock:     clock,
		cfg:       cfg,
		logger:    logger,
	}, nil
}

// Record is the JSON document written for each unsynced submission.
type Record struct {
	Timestamp        time.Time                    `json:"timestamp"`
	Kind             submission.Kind              `json:"kind"`
	Status           string                       `json:"status"`
	Error            string                       `json:"error,omitempty"`
	SubmittedAt      time.Time                    `json:"submittedAt,omitzero"`
	JobID            string                       `json:"jobId,omitempty"`
	JobTitle         string                       `json:"jobTitle,omitempty"`
	PersonalInfo     *submission.PersonalInfo     `json:"personalInfo,omitempty"`
	ProfessionalInfo *submission.ProfessionalInfo `json:"professionalInfo,omitempty"`
	JobQuestions     submission.Questions         `json:"jobQuestions,omitempty"`
	Contact          *submission.Contact          `json:"contact,omitempty"`
	Payload          submission.Payload           `json:"odooData,omitempty"`
	ResumeFile       *ResumeFile                  `json:"resumeFile"`
	ParseErrors      map[string]string            `json:"parseErrors,omitempty"`
}

// ResumeFile is attachment metadata. The file content is never logged.
type ResumeFile struct {
	Path      string `json:"path,omitempty"`
	Name      string `json:"originalName"`
	SizeBytes int64  `json:"size"`
	MIMEType  string `json:"mimetype"`
	SHA256    string `json:"sha256,omitempty"`
}

// Notice is published after a record is written.
type Notice struct {
	Event    string          `json:"event"`
	Kind     submission.Kind `json:"kind"`
	Path     string          `json:"path"`
	Error    string          `json:"error,omitempty"`
	LoggedAt time.Time       `json:"loggedAt"`
}

// Log writes the entry and returns the URI of the new record. Two calls never share a file name.
func (l *Logger) Log(ctx context.Context, entry submission.LogEntry) (string, error) {
	now := l.clock.Now().UTC()
	id, err := l.ids.NewID()
	if err != nil {
		metrics.ObserveFallbackWrite(err)
		return "", fmt.Errorf("%w: %w", submission.ErrPersistence, err)
	}

	data, err := json.MarshalIndent(NewRecord(entry, now), "", "  ")
	if err != nil {
		metrics.ObserveFallbackWrite(err)
		return "", fmt.Errorf("%w: encode record: %w", submission.ErrPersistence, err)
	}

	objectPath := path.Join(l.cfg.Prefix, FileName(entry, now, id))
	uri, err := l.store.PutObject(ctx, objectPath, "application/json", bytes.NewReader(data))
	metrics.ObserveFallbackWrite(err)
	if err != nil {
		return "", fmt.Errorf("%w: %w", submission.ErrPersistence, err)
	}

	l.logger.Info("fallback record written",
		zap.String("kind", string(entry.Submission.Kind)),
		zap.String("uri", uri))
	l.notify(ctx, entry, uri, now)
	return uri, nil
}

func (l *Logger) notify(ctx context.Context, entry submission.LogEntry, uri string, now time.Time) {
	if l.publisher == nil || l.cfg.Topic == "" {
		return
	}
	notice := Notice{
		Event:    NoticeEvent,
		Kind:     entry.Submission.Kind,
		Path:     uri,
		LoggedAt: now,
	}
	if entry.Err != nil {
		notice.Error = entry.Err.Error()
	}
	if _, err := l.publisher.Publish(ctx, l.cfg.Topic, notice); err != nil {
		l.logger.Warn("review notice not published", zap.String("uri", uri), zap.Error(err))
	}
}

// FileName builds "<kind>-<timestamp>-<id>.json", prefixed with "error-" for entries written
// from an internal error path.
func FileName(entry submission.LogEntry, now time.Time, id string) string {
	kind := string(entry.Submission.Kind)
	if kind == "" {
		kind = "submission"
	}
	if entry.Unexpected {
		kind = "error-" + kind
	}
	stamp := strings.ReplaceAll(now.UTC().Format(timestampLayout), ".", "")
	return fmt.Sprintf("%s-%s-%s.json", kind, stamp, id)
}

// NewRecord flattens a log entry into its persisted form.
func NewRecord(entry submission.LogEntry, now time.Time) Record {
	sub := entry.Submission
	rec := Record{
		Timestamp:   now,
		Kind:        sub.Kind,
		Status:      "unsynced",
		SubmittedAt: sub.SubmittedAt,
		Payload:     entry.Payload,
		ParseErrors: sub.ParseErrors,
	}
	if entry.Unexpected {
		rec.Status = "error"
	}
	if entry.Err != nil {
		rec.Error = entry.Err.Error()
	}
	if app := sub.Application; app != nil {
		personal := app.Personal
		prof := app.Professional
		rec.JobID = app.JobID
		rec.JobTitle = app.JobTitle
		rec.PersonalInfo = &personal
		rec.ProfessionalInfo = &prof
		rec.JobQuestions = app.Questions
	}
	if c := sub.Contact; c != nil {
		contact := *c
		rec.Contact = &contact
	}
	if att := sub.Attachment; att != nil {
		rec.ResumeFile = &ResumeFile{
			Path:      att.StoredAt,
			Name:      att.Filename,
			SizeBytes: att.SizeBytes,
			MIMEType:  att.MIMEType,
			SHA256:    sha256.Hex(att.Content),
		}
	}
	return rec
}
