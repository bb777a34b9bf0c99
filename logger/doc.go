// Package logger provides structured logging built on zerolog.
//
// It wraps zerolog with a small component-oriented API and a console
// format suitable for development:
//
//	log := logger.New(&logger.Config{Level: "debug"}, "restclient")
//	log.Debug("request sent", logger.Fields("method", "GET", "url", u))
//
// Use Nop() to silence logging entirely (the default for library code
// unless a logger is injected).
package logger
