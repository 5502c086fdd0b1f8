// Package mapper turns validated submissions into CRM lead/opportunity payloads.
//
// Every function here is pure: the same submission and discovered field set always produce the
// same payload. Custom fields are only written when the CRM reported them during discovery, so a
// deployment without Studio fields still receives a valid record.
package mapper
