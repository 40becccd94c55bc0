package log

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"strings"
)

// sensitiveKeys contains attribute keys that are always masked.
// These commonly carry credential material for remote-network accounts.
var sensitiveKeys = map[string]bool{
	// Remote-network account credentials
	"session":        true,
	"session_string": true,
	"api_id":         true,
	"api_hash":       true,
	"phone":          true,
	"phone_number":   true,
	"bot_token":      true,
	"two_fa":         true,
	"2fa":            true,

	// Generic authentication
	"password":     true,
	"passwd":       true,
	"secret":       true,
	"token":        true,
	"access_token": true,
	"api_key":      true,
	"apikey":       true,
	"api-key":      true,
	"private_key":  true,
	"secret_key":   true,
	"credential":   true,
	"credentials":  true,
	"auth":         true,

	// HTTP
	"authorization": true,
	"cookie":        true,
	"set-cookie":    true,
	"x-api-key":     true,
}

// sensitivePatterns contains regexes that indicate credential-shaped
// values. Values matching any pattern are masked regardless of key name.
var sensitivePatterns = []*regexp.Regexp{
	// Serialized session strings (long base64-ish blobs)
	regexp.MustCompile(`^[A-Za-z0-9+/_-]{64,}={0,2}$`),

	// JWT tokens
	regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`),

	// Bearer / basic auth headers
	regexp.MustCompile(`(?i)^bearer\s+.+`),
	regexp.MustCompile(`(?i)^basic\s+[A-Za-z0-9+/=]+$`),

	// Bot tokens (numeric id, colon, secret)
	regexp.MustCompile(`^\d{6,}:[A-Za-z0-9_-]{30,}$`),

	// International phone numbers
	regexp.MustCompile(`^\+\d{7,15}$`),

	// Private key markers
	regexp.MustCompile(`(?i)-----BEGIN.*(PRIVATE|SECRET).*KEY-----`),
}

// MaskValue is the string used to replace masked values.
const MaskValue = "***REDACTED***"

// SecureHandler wraps an slog.Handler to mask credential material.
// It intercepts log records and masks attribute values that match
// sensitive key names or value shapes before the underlying handler
// formats them.
//
// Design decision: a handler wrapper rather than a custom logger type,
// so it composes with any underlying handler (text, JSON) and with every
// component that accepts a plain *slog.Logger.
type SecureHandler struct {
	// handler is the underlying slog handler receiving masked records.
	handler slog.Handler
}

// NewSecureHandler creates a SecureHandler wrapping the given handler.
// If handler is nil, slog.Default().Handler() is used.
func NewSecureHandler(handler slog.Handler) *SecureHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &SecureHandler{handler: handler}
}

// Enabled reports whether the handler handles records at the given level.
func (h *SecureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle masks the record's attributes and passes it on.
func (h *SecureHandler) Handle(ctx context.Context, r slog.Record) error {
	masked := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)

	r.Attrs(func(a slog.Attr) bool {
		masked.AddAttrs(h.maskAttr(a))
		return true
	})

	return h.handler.Handle(ctx, masked)
}

// WithAttrs returns a new handler with the given attributes added,
// masked first.
func (h *SecureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	maskedAttrs := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		maskedAttrs[i] = h.maskAttr(a)
	}
	return &SecureHandler{handler: h.handler.WithAttrs(maskedAttrs)}
}

// WithGroup returns a new handler with the given group name.
func (h *SecureHandler) WithGroup(name string) slog.Handler {
	return &SecureHandler{handler: h.handler.WithGroup(name)}
}

// maskAttr masks a single attribute, recursively handling groups.
func (h *SecureHandler) maskAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		maskedAttrs := make([]slog.Attr, len(attrs))
		for i, groupAttr := range attrs {
			maskedAttrs[i] = h.maskAttr(groupAttr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(maskedAttrs...)}
	}

	keyLower := strings.ToLower(a.Key)
	if sensitiveKeys[keyLower] || containsSensitiveKeyword(keyLower) {
		return slog.String(a.Key, MaskValue)
	}

	if a.Value.Kind() == slog.KindString {
		if isSensitiveValue(a.Value.String()) {
			return slog.String(a.Key, MaskValue)
		}
	}

	return a
}

// containsSensitiveKeyword checks if the key contains credential keywords.
// The bare "key" keyword is deliberately excluded: it causes false
// positives ("entity_key", "keyboard"). Key-specific composites like
// "api_key" are covered by the sensitiveKeys map.
func containsSensitiveKeyword(key string) bool {
	keywords := []string{
		"password", "passwd", "secret", "token", "auth",
		"credential", "private", "session", "phone",
	}

	for _, kw := range keywords {
		if strings.Contains(key, kw) {
			return true
		}
	}
	return false
}

// isSensitiveValue checks if a value matches a credential shape.
func isSensitiveValue(value string) bool {
	for _, pattern := range sensitivePatterns {
		if pattern.MatchString(value) {
			return true
		}
	}
	return false
}

// NewSecureLogger creates a *slog.Logger with credential masking and text
// output. verbose selects Debug level, otherwise Warn.
func NewSecureLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	return slog.New(NewSecureHandler(slog.NewTextHandler(w, opts)))
}

// NewSecureJSONLogger creates a *slog.Logger with credential masking and
// JSON output, for structured log aggregation.
func NewSecureJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	return slog.New(NewSecureHandler(slog.NewJSONHandler(w, opts)))
}
