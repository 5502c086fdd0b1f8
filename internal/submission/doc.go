// Package submission holds the intake domain: submissions, CRM payloads, outcomes, and the
// Router that walks the ordered list of CRM strategies before handing a submission to the
// local fallback logger. Nothing in this package talks to the network directly; transports
// live in internal/odoo and persistence in internal/fallback.
package submission
