// Package security keeps secrets out of logs and guards the gateway.
//
// The Redactor scrubs bot tokens and gateway credentials from strings,
// RedactingHandler applies it to every slog record, AuditLogger writes
// security-relevant gateway events as JSONL and RateLimiter bounds how
// often remote callers may start deliveries or probes.
package security
