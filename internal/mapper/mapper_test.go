package mapper

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/breathscript/Deccanbridgecareers/internal/submission"
)

func application(t *testing.T) submission.Submission {
	t.Helper()
	var questions submission.Questions
	require.NoError(t, json.Unmarshal([]byte(`{"question-notice-period":"30 days","question-skills":["Go","SQL"]}`), &questions))
	return submission.Submission{
		Kind: submission.KindApplication,
		Application: &submission.Application{
			JobID:    "J1",
			JobTitle: "Engineer",
			Personal: submission.PersonalInfo{
				FullName:        "Asha Rao",
				Email:           "a@x.com",
				CurrentLocation: "Hyderabad, Telangana",
			},
			Professional: submission.ProfessionalInfo{
				TotalExperience:    "3 years",
				CurrentCompany:     "Acme",
				CurrentDesignation: "Developer",
			},
			Questions: questions,
		},
		Attachment: &submission.Attachment{Filename: "cv.pdf", MIMEType: "application/pdf", SizeBytes: 2048},
	}
}

func TestBuildApplicationStandardFields(t *testing.T) {
	payload := BuildApplication(application(t), nil)

	assert.Equal(t, "Asha Rao - Application for Engineer", payload["name"])
	assert.Equal(t, "opportunity", payload["type"])
	assert.Equal(t, "Asha Rao", payload["contact_name"])
	assert.Equal(t, "Acme", payload["partner_name"])
	assert.Equal(t, "a@x.com", payload["email_from"])
	assert.Equal(t, "Developer", payload["function"])
	assert.Equal(t, "Hyderabad", payload["city"])
	assert.NotContains(t, payload, "phone", "empty values are stripped")
	assert.NotContains(t, payload, "x_studio_job_id", "custom fields need discovery")
}

func TestBuildApplicationNeverContainsEmptyValues(t *testing.T) {
	sub := application(t)
	sub.Application.Professional = submission.ProfessionalInfo{}
	sub.Application.Personal.CurrentLocation = ""
	custom := map[string]submission.CustomFieldDescriptor{
		"x_studio_cover_letter": {Name: "x_studio_cover_letter"},
		"x_studio_state":        {Name: "x_studio_state"},
	}

	payload := BuildApplication(sub, custom)

	for key, value := range payload {
		assert.NotEmpty(t, value, "field %s", key)
	}
	assert.NotContains(t, payload, "x_studio_cover_letter")
	assert.NotContains(t, payload, "x_studio_state")
}

func TestBuildApplicationCustomFields(t *testing.T) {
	custom := map[string]submission.CustomFieldDescriptor{
		"x_studio_job_id":                {Name: "x_studio_job_id"},
		"x_studio_state":                 {Name: "x_studio_state"},
		"x_studio_application_questions": {Name: "x_studio_application_questions"},
		"x_studio_unrelated":             {Name: "x_studio_unrelated"},
	}

	payload := BuildApplication(application(t), custom)

	assert.Equal(t, "J1", payload["x_studio_job_id"])
	assert.Equal(t, "Telangana", payload["x_studio_state"])
	assert.Equal(t, "notice period: 30 days\nskills: Go, SQL", payload["x_studio_application_questions"])
	assert.NotContains(t, payload, "x_studio_unrelated")
	assert.NotContains(t, payload, "x_studio_job_title")
}

func TestApplicationDescription(t *testing.T) {
	desc := ApplicationDescription(application(t))

	headers := []string{"JOB APPLICATION DETAILS", "PERSONAL INFORMATION", "PROFESSIONAL INFORMATION", "RESUME", "APPLICATION QUESTIONS"}
	last := -1
	for _, h := range headers {
		idx := strings.Index(desc, h)
		require.GreaterOrEqual(t, idx, 0, h)
		assert.Greater(t, idx, last, "%s out of order", h)
		last = idx
	}
	assert.Contains(t, desc, "Phone: Not provided")
	assert.Contains(t, desc, "Cover Letter: Not provided")
	assert.Contains(t, desc, "File Name: cv.pdf")
	assert.Contains(t, desc, "File Size: 2.00 KB")
	assert.True(t, strings.HasSuffix(desc, "notice period: 30 days\nskills: Go, SQL"))
}

func TestApplicationDescriptionWithoutResume(t *testing.T) {
	sub := application(t)
	sub.Attachment = nil
	sub.Application.Questions = nil

	desc := ApplicationDescription(sub)

	assert.Contains(t, desc, "File Name: Not provided\nFile Size: Not provided")
	assert.True(t, strings.HasSuffix(desc, "No questions answered."))
}

func TestBuildContact(t *testing.T) {
	sub := submission.Submission{
		Kind:    submission.KindContact,
		Contact: &submission.Contact{Name: "A", Email: "a@x.com", Subject: "Hi", Message: "Hello"},
	}

	payload := BuildContact(sub, nil)

	assert.Equal(t, "[Contact Info] A - Hi", payload["name"])
	assert.Equal(t, "A", payload["contact_name"])
	assert.NotContains(t, payload, "phone")
	assert.Equal(t, "CONTACT FORM SUBMISSION\n=====================\nName: A\nEmail: a@x.com\nPhone: Not provided\nSubject: Hi\n\nMESSAGE\n-------\nHello", payload["description"])
}

func TestBuildContactMarker(t *testing.T) {
	sub := submission.Submission{Kind: submission.KindContact, Contact: &submission.Contact{Name: "A", Subject: "S"}}

	both := BuildContact(sub, map[string]submission.CustomFieldDescriptor{
		"x_studio_contact_type":     {},
		"x_studio_opportunity_type": {},
	})
	assert.Equal(t, ContactFormMarker, both["x_studio_contact_type"])
	assert.NotContains(t, both, "x_studio_opportunity_type")

	onlyOpportunity := BuildContact(sub, map[string]submission.CustomFieldDescriptor{"x_studio_opportunity_type": {}})
	assert.Equal(t, ContactFormMarker, onlyOpportunity["x_studio_opportunity_type"])
}

func TestBuildDispatch(t *testing.T) {
	_, err := Build(submission.Submission{Kind: submission.KindContact}, nil)
	assert.ErrorIs(t, err, submission.ErrValidation)

	_, err = Build(submission.Submission{Kind: "newsletter"}, nil)
	assert.ErrorIs(t, err, submission.ErrValidation)

	payload, err := Build(application(t), nil)
	require.NoError(t, err)
	assert.Equal(t, "opportunity", payload["type"])
}

func TestBuildIsDeterministic(t *testing.T) {
	sub := application(t)
	custom := map[string]submission.CustomFieldDescriptor{"x_studio_application_questions": {}}
	assert.Equal(t, BuildApplication(sub, custom), BuildApplication(sub, custom))
}
