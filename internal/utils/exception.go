package utils

import (
	"github.com/getsentry/sentry-go"
	"github.com/samgozman/fin-buddy/pkg/errlvl"
)

type sentryHub interface {
	CaptureException(exception error) *sentry.EventID
	WithScope(callback func(scope *sentry.Scope))
}

// CaptureSentryException captures err under the given exception name.
// In Sentry the exception type is always the Go type of the error (*errors.errorString and friends),
// so it is rewritten to name. Tags (symbol, provider, loop) are attached to the scope.
func CaptureSentryException(name string, hub sentryHub, err error, tags map[string]string) {
	if err == nil {
		return
	}

	lvl := errorsLevelMatcher(err)
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		scope.AddEventProcessor(func(e *sentry.Event, hint *sentry.EventHint) *sentry.Event {
			// e.Exception[0] is the bottom of the chain, the last one is what Sentry shows as the title.
			if n := len(e.Exception); n > 0 {
				e.Exception[n-1].Type = name
			}
			e.Level = lvl
			return e
		})
		hub.CaptureException(err)
	})
}

// errorsLevelMatcher returns the Sentry level for the errlvl level of err.
func errorsLevelMatcher(err error) sentry.Level {
	switch errlvl.Of(err) {
	case errlvl.FATAL:
		return sentry.LevelFatal
	case errlvl.ERROR:
		return sentry.LevelError
	case errlvl.WARN:
		return sentry.LevelWarning
	case errlvl.INFO:
		return sentry.LevelInfo
	default:
		return sentry.LevelDebug
	}
}
