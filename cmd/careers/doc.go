// Package main hosts the careers intake service entrypoint.
//
// Architecture overview:
//   - HTTP API: internal/api.Server accepts job applications (multipart, with an optional resume) and
//     contact-form messages (JSON), validates them, and lists the CRM's custom lead fields.
//   - Mapping: internal/mapper turns a submission into an Odoo crm.lead payload, including any x_studio_*
//     custom fields that internal/odoo.Discovery finds on the deployment.
//   - Routing: internal/submission.Router tries the configured CRM strategies strictly in order (XML-RPC,
//     web session, REST with an API key, call_kw with an API key) and stops at the first created record.
//     Attachment failures are logged and never cause another strategy to run.
//   - Fallback: when every strategy fails, internal/fallback writes one JSON record per submission to the
//     configured blob store (local disk, GCS, or memory) and publishes a review notice to Pub/Sub when a
//     topic is configured. The client still gets a success response.
//   - Configuration & plumbing: Viper populates config from env/files; zap provides structured logging;
//     Prometheus metrics are exported via the metrics middleware and /metrics handler.
//
// Quick checklist:
//   - Configure env vars: CAREERS_ODOO_DOMAIN (or ODOO_DOMAIN), ODOO_USERNAME/ODOO_PASSWORD and/or
//     ODOO_API_KEY, ODOO_DB_NAME when the database is not the first label of the domain, PORT, and
//     CAREERS_STORAGE_BACKEND with CAREERS_STORAGE_BUCKET or CAREERS_STORAGE_LOCAL_BASE_DIR.
//   - Run locally: go run ./cmd/careers -config config.yaml (or rely solely on env overrides).
//   - Set CAREERS_SERVER_STATIC_DIR to serve the careers site from the same process.
package main
