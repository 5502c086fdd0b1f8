package submission

import (
	"context"
	"io"
	"time"
)

// Request is what a Strategy receives. Attachment is already encoded and shared between
// strategies.
type Request struct {
	Model      string
	Payload    Payload
	Attachment *EncodedAttachment
}

// Result is a successful record creation. AttachmentErr is set when the record was created but
// the attachment could not be linked to it.
type Result struct {
	RecordID      RecordID
	AttachmentID  RecordID
	AttachmentErr error
}

// Strategy creates a CRM record over one transport/auth mechanism.
type Strategy interface {
	Name() string
	Attempt(ctx context.Context, req Request) (Result, error)
}

// LogEntry is handed to the fallback logger.
type LogEntry struct {
	Submission Submission
	Payload    Payload
	Err        error
	// Unexpected marks entries written from an internal error path rather than after the
	// strategies were exhausted.
	Unexpected bool
}

// FallbackLogger persists submissions that could not be synced.
type FallbackLogger interface {
	Log(ctx context.Context, entry LogEntry) (string, error)
}

// FieldDiscoverer reports which custom fields the CRM schema exposes.
type FieldDiscoverer interface {
	FetchCustomFields(ctx context.Context, model, prefix string) map[string]CustomFieldDescriptor
	Fetch(ctx context.Context, model, prefix string) ([]CustomFieldDescriptor, error)
}

// BlobStore writes named objects and never overwrites an existing one.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data io.Reader) (string, error)
}

// Publisher emits small notices (e.g. to Pub/Sub).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces unique ids for file names and request ids.
type IDGenerator interface {
	NewID() (string, error)
}
