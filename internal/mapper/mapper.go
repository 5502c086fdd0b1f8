package mapper

import (
	"fmt"
	"strings"

	"github.com/breathscript/Deccanbridgecareers/internal/submission"
)

const (
	// OpportunityType is written to the CRM "type" field.
	OpportunityType = "opportunity"
	// ContactFormMarker tags opportunities created from the contact form.
	ContactFormMarker = "Contact Form"

	notProvided = "Not provided"
)

// Build dispatches on the submission kind.
func Build(sub submission.Submission, custom map[string]submission.CustomFieldDescriptor) (submission.Payload, error) {
	switch sub.Kind {
	case submission.KindApplication:
		if sub.Application == nil {
			return nil, fmt.Errorf("%w: application submission without application data", submission.ErrValidation)
		}
		return BuildApplication(sub, custom), nil
	case submission.KindContact:
		if sub.Contact == nil {
			return nil, fmt.Errorf("%w: contact submission without contact data", submission.ErrValidation)
		}
		return BuildContact(sub, custom), nil
	default:
		return nil, fmt.Errorf("%w: unknown submission kind %q", submission.ErrValidation, sub.Kind)
	}
}

// BuildApplication maps a job application to a compacted opportunity payload.
func BuildApplication(sub submission.Submission, custom map[string]submission.CustomFieldDescriptor) submission.Payload {
	app := sub.Application
	personal := app.Personal
	prof := app.Professional
	loc := ParseLocation(personal.CurrentLocation.String(), personal.State.String(), personal.City.String())

	payload := submission.Payload{
		"name":         fmt.Sprintf("%s - Application for %s", personal.FullName, app.JobTitle),
		"type":         OpportunityType,
		"contact_name": personal.FullName.String(),
		"partner_name": prof.CurrentCompany.String(),
		"email_from":   personal.Email.String(),
		"phone":        personal.Phone.String(),
		"function":     prof.CurrentDesignation.String(),
		"city":         firstNonEmpty(personal.City.String(), loc.City),
		"description":  ApplicationDescription(sub),
	}

	questions := FormatQuestions(app.Questions)
	candidates := []struct {
		name  string
		value string
	}{
		{"x_studio_job_id", app.JobID},
		{"x_studio_job_title", app.JobTitle},
		{"x_studio_total_experience", prof.TotalExperience.String()},
		{"x_studio_state", firstNonEmpty(personal.State.String(), loc.State)},
		{"x_studio_city", firstNonEmpty(personal.City.String(), loc.City)},
		{"x_studio_cover_letter", prof.CoverLetter.String()},
		{"x_studio_application_questions", questions},
	}
	for _, c := range candidates {
		if _, ok := custom[c.name]; ok && c.value != "" {
			payload[c.name] = c.value
		}
	}

	return payload.Compact()
}

// BuildContact maps a contact-form message to a compacted opportunity payload.
func BuildContact(sub submission.Submission, custom map[string]submission.CustomFieldDescriptor) submission.Payload {
	c := sub.Contact
	payload := submission.Payload{
		"name":         fmt.Sprintf("[Contact Info] %s - %s", c.Name, c.Subject),
		"type":         OpportunityType,
		"contact_name": c.Name,
		"email_from":   c.Email,
		"phone":        c.Phone,
		"description":  ContactDescription(*c),
	}
	for _, field := range []string{"x_studio_contact_type", "x_studio_opportunity_type"} {
		if _, ok := custom[field]; ok {
			payload[field] = ContactFormMarker
			break
		}
	}
	return payload.Compact()
}

// ApplicationDescription renders the plain-text description block for an application.
func ApplicationDescription(sub submission.Submission) string {
	app := sub.Application
	personal := app.Personal
	prof := app.Professional

	fileName, fileSize := notProvided, notProvided
	if att := sub.Attachment; att != nil {
		fileName = orNotProvided(att.Filename)
		if att.SizeBytes > 0 {
			fileSize = fmt.Sprintf("%.2f KB", float64(att.SizeBytes)/1024)
		}
	}

	lines := []string{
		"JOB APPLICATION DETAILS",
		"======================",
		"Job ID: " + app.JobID,
		"Job Title: " + app.JobTitle,
		"",
		"PERSONAL INFORMATION",
		"-------------------",
		"Full Name: " + personal.FullName.String(),
		"Email: " + personal.Email.String(),
		"Phone: " + orNotProvided(personal.Phone.String()),
		"Current Location: " + orNotProvided(personal.CurrentLocation.String()),
		"",
		"PROFESSIONAL INFORMATION",
		"----------------------",
		"Total Experience: " + orNotProvided(prof.TotalExperience.String()),
		"Current Company: " + orNotProvided(prof.CurrentCompany.String()),
		"Current Designation: " + orNotProvided(prof.CurrentDesignation.String()),
		"Cover Letter: " + orNotProvided(prof.CoverLetter.String()),
		"",
		"RESUME",
		"-----",
		"File Name: " + fileName,
		"File Size: " + fileSize,
		"",
		"APPLICATION QUESTIONS",
		"-------------------",
		FormatQuestions(app.Questions),
	}
	return strings.Join(lines, "\n")
}

// ContactDescription renders the plain-text description block for a contact message.
func ContactDescription(c submission.Contact) string {
	lines := []string{
		"CONTACT FORM SUBMISSION",
		"=====================",
		"Name: " + c.Name,
		"Email: " + c.Email,
		"Phone: " + orNotProvided(c.Phone),
		"Subject: " + c.Subject,
		"",
		"MESSAGE",
		"-------",
		c.Message,
	}
	return strings.Join(lines, "\n")
}

func orNotProvided(s string) string {
	if s == "" {
		return notProvided
	}
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
