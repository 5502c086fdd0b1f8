package submission

import "errors"

// Error taxonomy shared by handlers, strategies, and the fallback logger.
var (
	ErrValidation          = errors.New("validation failed")
	ErrAuthentication      = errors.New("crm authentication failed")
	ErrTransport           = errors.New("crm transport error")
	ErrRemote              = errors.New("crm rejected the call")
	ErrNoRecord            = errors.New("crm returned no record id")
	ErrAttachment          = errors.New("attachment upload failed")
	ErrStrategiesExhausted = errors.New("all crm strategies failed")
	ErrPersistence         = errors.New("fallback write failed")
)
