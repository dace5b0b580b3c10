// Package logging provides structured logging for the traffic-light controller.
//
// It wraps log/slog with JSON or text output, level filtering and default
// service fields. The state machine engine never logs; its consumers do.
package logging
