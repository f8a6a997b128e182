// Package logging defines a minimal structured-logging interface used across
// the project, with slog and zap backends.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
)

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key-value pairs, e.g.:
//
//	log.Info(ctx, "session restored", "user_id", id, "role", role)
type Logger interface {
	// Debug logs verbose diagnostics.
	Debug(ctx context.Context, msg string, args ...any)

	// Info logs an informational message.
	Info(ctx context.Context, msg string, args ...any)

	// Warn logs a warning message for unusual but non-fatal conditions.
	Warn(ctx context.Context, msg string, args ...any)

	// Error logs an error message for failures.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key-value pairs.
	With(args ...any) Logger
}

// Backend names accepted by New.
const (
	BackendSlog = "slog"
	BackendZap  = "zap"
)

// Options selects the logger backend, level and output format ("text" or "json").
type Options struct {
	Backend string
	Level   string
	Format  string
}

// New builds a Logger writing to w according to opts.
func New(w io.Writer, opts Options) (Logger, error) {
	switch strings.ToLower(opts.Backend) {
	case "", BackendSlog:
		return newSlogFromOptions(w, opts), nil
	case BackendZap:
		return newZapFromOptions(w, opts), nil
	default:
		return nil, fmt.Errorf("unknown log backend %q", opts.Backend)
	}
}

// redacted replaces the value of any argument whose key names a secret.
const redacted = "[REDACTED]"

var sensitiveKeys = map[string]struct{}{
	"token":         {},
	"password":      {},
	"authorization": {},
}

// redact masks the values of credential-bearing keys. args is left untouched;
// a copy is returned when something had to be masked.
func redact(args []any) []any {
	var out []any
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		if _, secret := sensitiveKeys[strings.ToLower(key)]; !secret {
			continue
		}
		if out == nil {
			out = slices.Clone(args)
		}
		out[i+1] = redacted
	}
	if out == nil {
		return args
	}
	return out
}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}
