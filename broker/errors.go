package broker

import (
	"errors"
	"fmt"

	"github.com/samgozman/fin-buddy/pkg/errlvl"
)

var (
	ErrRateLimited         = errors.New("provider rate limited the request")
	ErrNotFound            = errors.New("symbol not found")
	ErrMalformed           = errors.New("malformed provider response")
	ErrTransient           = errors.New("transient provider failure")
	ErrAllSourcesExhausted = errors.New("all quote sources exhausted")
)

// Outcome classifies a single provider call.
type Outcome uint8

const (
	Success Outcome = iota + 1
	RateLimited
	NotFound
	Malformed
	Transient
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case RateLimited:
		return "rate_limited"
	case NotFound:
		return "not_found"
	case Malformed:
		return "malformed"
	case Transient:
		return "transient"
	default:
		return "unknown"
	}
}

// Result is what every provider call returns. Quote is set only when Outcome is Success,
// Err only when it is not.
type Result struct {
	Outcome Outcome
	Quote   Quote
	Err     error
}

func succeeded(q Quote) Result {
	return Result{Outcome: Success, Quote: q}
}

// failed builds a failed Result whose Err wraps the sentinel of o, so the outcome survives
// being passed around as a plain error.
func failed(o Outcome, provider string, err error) Result {
	var sentinel error
	lvl := errlvl.WARN
	switch o {
	case RateLimited:
		sentinel = ErrRateLimited
	case NotFound:
		sentinel, lvl = ErrNotFound, errlvl.INFO
	case Malformed:
		sentinel = ErrMalformed
	default:
		o, sentinel = Transient, ErrTransient
	}

	if err == nil {
		err = sentinel
	} else {
		err = fmt.Errorf("%w: %w", sentinel, err)
	}

	return Result{Outcome: o, Err: errlvl.Wrap(fmt.Errorf("provider %s: %w", provider, err), lvl)}
}

// outcomeOf recovers the Outcome from an error produced by failed.
func outcomeOf(err error) Outcome {
	switch {
	case err == nil:
		return Success
	case errors.Is(err, ErrRateLimited):
		return RateLimited
	case errors.Is(err, ErrNotFound):
		return NotFound
	case errors.Is(err, ErrMalformed):
		return Malformed
	default:
		return Transient
	}
}
