package submission

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Kind identifies which form produced a submission.
type Kind string

const (
	// KindApplication is a job application with an optional resume.
	KindApplication Kind = "application"
	// KindContact is a contact-form message.
	KindContact Kind = "contact"
)

// RecordID is the numeric id of a record created in the CRM. Zero means "not created".
type RecordID int64

// IsZero reports whether the id refers to no record.
func (id RecordID) IsZero() bool {
	return id <= 0
}

// Text is a string field that also accepts JSON numbers and booleans, since browser forms
// are not consistent about quoting values such as years of experience.
type Text string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*t = ""
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode text: %w", err)
		}
		*t = Text(s)
	case bytes.Equal(data, []byte("true")) || bytes.Equal(data, []byte("false")):
		*t = Text(data)
	default:
		if _, err := strconv.ParseFloat(string(data), 64); err != nil {
			return fmt.Errorf("decode text: unsupported value %s", data)
		}
		*t = Text(data)
	}
	return nil
}

// String returns the plain string value.
func (t Text) String() string {
	return string(t)
}

// PersonalInfo is the "personalInfo" section of the application form.
type PersonalInfo struct {
	FullName        Text `json:"fullName"`
	Email           Text `json:"email"`
	Phone           Text `json:"phone,omitempty"`
	CurrentLocation Text `json:"currentLocation,omitempty"`
	State           Text `json:"state,omitempty"`
	City            Text `json:"city,omitempty"`
}

// ProfessionalInfo is the "professionalInfo" section of the application form.
type ProfessionalInfo struct {
	TotalExperience    Text `json:"totalExperience,omitempty"`
	CurrentCompany     Text `json:"currentCompany,omitempty"`
	CurrentDesignation Text `json:"currentDesignation,omitempty"`
	CoverLetter        Text `json:"coverLetter,omitempty"`
}

// Question is one answered job question. Value is kept as raw JSON because answers may be
// strings, numbers, or arrays of checkbox values.
type Question struct {
	Key   string
	Value json.RawMessage
}

// Questions preserves the order in which the client sent the answers.
type Questions []Question

// UnmarshalJSON decodes a JSON object while keeping its key order.
func (q *Questions) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("decode questions: %w", err)
	}
	if tok == nil {
		*q = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("decode questions: expected a JSON object")
	}
	var out Questions
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("decode questions: %w", err)
		}
		key, _ := keyTok.(string)
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("decode question %q: %w", key, err)
		}
		out = append(out, Question{Key: key, Value: raw})
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("decode questions: %w", err)
	}
	*q = out
	return nil
}

// MarshalJSON encodes the questions as a JSON object in their original order.
func (q Questions) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, item := range q {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(item.Key)
		if err != nil {
			return nil, fmt.Errorf("encode question key: %w", err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		if len(item.Value) == 0 {
			buf.WriteString("null")
			continue
		}
		buf.Write(item.Value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Application carries the job metadata and parsed form sections.
type Application struct {
	JobID        string
	JobTitle     string
	Personal     PersonalInfo
	Professional ProfessionalInfo
	Questions    Questions
}

// Contact carries a contact-form message.
type Contact struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// Attachment is an uploaded file. Content is read from the request exactly once.
type Attachment struct {
	Filename  string
	MIMEType  string
	SizeBytes int64
	Content   []byte
	// StoredAt is the URI of the saved upload, empty when it could not be saved.
	StoredAt string
}

// EncodedAttachment is the base64 form sent to the CRM, computed once per submission.
type EncodedAttachment struct {
	Filename string
	MIMEType string
	Data     string
}

// Encode returns the CRM-ready encoding, or nil when there is no attachment.
func (a *Attachment) Encode() *EncodedAttachment {
	if a == nil || len(a.Content) == 0 {
		return nil
	}
	return &EncodedAttachment{
		Filename: a.Filename,
		MIMEType: a.MIMEType,
		Data:     base64.StdEncoding.EncodeToString(a.Content),
	}
}

// Submission is one validated request. Handlers build it and never mutate it afterwards.
type Submission struct {
	Kind        Kind
	SubmittedAt time.Time
	Application *Application
	Contact     *Contact
	Attachment  *Attachment
	// ParseErrors records form sections that could not be decoded, keyed by field name.
	ParseErrors map[string]string
}

// Payload is the CRM field map for a lead/opportunity.
type Payload map[string]any

// Compact returns a copy without nil or empty-string values.
func (p Payload) Compact() Payload {
	out := make(Payload, len(p))
	for k, v := range p {
		if isEmpty(v) {
			continue
		}
		out[k] = v
	}
	return out
}

func isEmpty(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case Text:
		return val == ""
	default:
		return false
	}
}

// CustomFieldDescriptor describes a per-deployment CRM field.
type CustomFieldDescriptor struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
	Readonly bool   `json:"readonly"`
	Help     string `json:"help,omitempty"`
}

// OutcomeStatus tags an Outcome.
type OutcomeStatus string

const (
	// OutcomeCreated means a CRM record exists for the submission.
	OutcomeCreated OutcomeStatus = "created"
	// OutcomeLoggedLocally means every strategy failed and the submission went to the fallback log.
	OutcomeLoggedLocally OutcomeStatus = "logged_locally"
)

// Outcome is the single result of routing a submission.
type Outcome struct {
	Status OutcomeStatus
	// Created fields.
	RemoteID           RecordID
	Strategy           string
	AttachmentAttached bool
	// LoggedLocally fields.
	LogPath    string
	Cause      error
	PersistErr error
}

// Created reports whether the submission reached the CRM.
func (o Outcome) Created() bool {
	return o.Status == OutcomeCreated
}
