// Package odoo implements the CRM strategies used by the submission router and the custom-field
// discovery that feeds the mapper.
//
// Four transports are supported, each as a submission.Strategy:
//
//   - XMLRPCStrategy: password auth on /xmlrpc/2/common, create on /xmlrpc/2/object.
//   - SessionStrategy: JSON-RPC web session auth, then call_kw with the session cookies.
//   - RESTStrategy: bearer/API key POST to /api/v1/<model>.
//   - CallKWStrategy: bearer/API key POST to /web/dataset/call_kw/<model>/create.
//
// NewStrategies returns them in that order, skipping transports whose credentials are absent.
package odoo
