// Package logging provides structured logging for the SmartThings exporter.
//
// It wraps log/slog with configuration-driven level, format, and output
// selection, and stamps every record with the service name and version.
//
// Usage:
//
//	log := logging.New(cfg.Logging, version)
//	log.Info("poll cycle complete", "devices", 12)
//
// Components that need a scoped logger should derive one with With:
//
//	apiLog := log.With("component", "api")
package logging
