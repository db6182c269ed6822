// Package middleware provides ready-made unistore middleware: logging,
// expression filters, OpenTelemetry tracing, a transition journal and a
// channel publisher.
//
// Every constructor returns a pointer so a registration can later be
// removed with Store.RemoveMiddleware.
package middleware
