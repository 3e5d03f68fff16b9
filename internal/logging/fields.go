package logging

import "log/slog"

// Common field names for consistent logging across the service.
const (
	FieldService  = "service"
	FieldClientID = "client_id"
	FieldMethod   = "method"
	FieldPath     = "path"
	FieldStatus   = "status"
	FieldError    = "error"
	FieldSink     = "sink"
	FieldRule     = "rule"
	FieldSource   = "source"
	FieldBatch    = "batch_size"
)

// Service returns a slog attribute for the service name.
func Service(name string) slog.Attr {
	return slog.String(FieldService, name)
}

// ClientID returns a slog attribute for the authenticated client ID.
func ClientID(id string) slog.Attr {
	return slog.String(FieldClientID, id)
}

// Method returns a slog attribute for the HTTP method.
func Method(method string) slog.Attr {
	return slog.String(FieldMethod, method)
}

// Path returns a slog attribute for the HTTP path.
func Path(path string) slog.Attr {
	return slog.String(FieldPath, path)
}

// Status returns a slog attribute for the HTTP status code.
func Status(code int) slog.Attr {
	return slog.Int(FieldStatus, code)
}

// Error returns a slog attribute for an error.
func Error(err error) slog.Attr {
	return slog.String(FieldError, err.Error())
}

// SinkName returns a slog attribute for a sink name.
func SinkName(name string) slog.Attr {
	return slog.String(FieldSink, name)
}

// Rule returns a slog attribute for a subscription rule name.
func Rule(name string) slog.Attr {
	return slog.String(FieldRule, name)
}

// Source returns a slog attribute for an envelope source.
func Source(source string) slog.Attr {
	return slog.String(FieldSource, source)
}

// BatchSize returns a slog attribute for an archive batch size.
func BatchSize(n int) slog.Attr {
	return slog.Int(FieldBatch, n)
}
