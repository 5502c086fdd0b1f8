// Package api hosts the HTTP server, middleware, and form handlers. Notable routes:
//   - POST /api/submit-application for multipart job applications with an optional resume.
//   - POST /api/submit-contact for JSON contact-form messages.
//   - GET /api/odoo-fields to inspect the CRM's custom lead fields.
//   - GET /healthz / readyz for probes and GET /metrics for Prometheus scraping.
//
// When a static directory is configured, the careers site is served from it at "/".
package api
