package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
)

// SentryKit is a wrapper around sentry-go SDK that owns the client lifecycle of the app.
type SentryKit struct {
	log     *slog.Logger
	enabled bool
}

// NewSentryKit initialises the global Sentry client. An empty DSN keeps Sentry disabled,
// the hubs used by the jobs then drop every event.
func NewSentryKit(dsn, release string, log *slog.Logger) (*SentryKit, error) {
	if dsn == "" {
		log.Info("Sentry is disabled")
		return &SentryKit{log: log}, nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Release:          release,
		EnableTracing:    true,
		TracesSampleRate: 0.2,
	})
	if err != nil {
		return nil, fmt.Errorf("sentry.Init: %w", err)
	}

	return &SentryKit{log: log, enabled: true}, nil
}

// CaptureFatal reports an error that stops the app.
func (s *SentryKit) CaptureFatal(category, m string, err error) {
	s.log.Error(m, "error", err)

	hub := sentry.CurrentHub().Clone()
	hub.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetLevel(sentry.LevelFatal)
	})
	hub.AddBreadcrumb(&sentry.Breadcrumb{
		Category: category,
		Message:  m,
		Level:    sentry.LevelFatal,
	}, nil)
	hub.CaptureException(err)
}

// Flush waits for buffered events to be sent.
func (s *SentryKit) Flush() {
	if !s.enabled {
		return
	}
	if !sentry.Flush(2 * time.Second) {
		s.log.Warn("Sentry flush timed out")
	}
}
