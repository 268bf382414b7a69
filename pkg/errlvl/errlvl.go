package errlvl

import (
	"errors"
	"fmt"
	"log/slog"
)

type Lvl uint8

const (
	DEBUG Lvl = iota + 1
	INFO
	WARN
	ERROR
	FATAL
)

// ErrorLevel is a type that represents the severity of an error in the application.
//
// Fetchers, the archive and the jobs use these levels to decide how loud a failure should be:
// a rate limited provider is a WARN, a broken archive connection is an ERROR.
type ErrorLevel error

var (
	ErrDebug ErrorLevel = errors.New("[DEBUG]")
	ErrInfo  ErrorLevel = errors.New("[INFO]")
	ErrWarn  ErrorLevel = errors.New("[WARN]")
	ErrError ErrorLevel = errors.New("[ERROR]")
	ErrFatal ErrorLevel = errors.New("[FATAL]")
)

// Wrap wraps the given error with the given level. Errors that already carry a level are returned as is.
func Wrap(err error, level Lvl) error {
	if err == nil {
		return nil
	}
	if hasLevel(err) {
		return err
	}

	return fmt.Errorf("%w %w", sentinel(level), err)
}

// Of returns the level attached to err. Errors without a level are treated as ERROR.
func Of(err error) Lvl {
	switch {
	case err == nil:
		return DEBUG
	case errors.Is(err, ErrFatal):
		return FATAL
	case errors.Is(err, ErrError):
		return ERROR
	case errors.Is(err, ErrWarn):
		return WARN
	case errors.Is(err, ErrInfo):
		return INFO
	case errors.Is(err, ErrDebug):
		return DEBUG
	default:
		return ERROR
	}
}

// SlogLevel maps the level of err to a slog level so that jobs can log a failure with the severity it was created with.
func SlogLevel(err error) slog.Level {
	switch Of(err) {
	case DEBUG:
		return slog.LevelDebug
	case INFO:
		return slog.LevelInfo
	case WARN:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

func sentinel(level Lvl) ErrorLevel {
	switch level {
	case DEBUG:
		return ErrDebug
	case INFO:
		return ErrInfo
	case WARN:
		return ErrWarn
	case FATAL:
		return ErrFatal
	default:
		return ErrError
	}
}

// hasLevel checks if the given error has a level set already.
func hasLevel(err error) bool {
	return errors.Is(err, ErrDebug) || errors.Is(err, ErrInfo) || errors.Is(err, ErrWarn) || errors.Is(err, ErrError) || errors.Is(err, ErrFatal)
}
