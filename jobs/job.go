package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/samgozman/fin-buddy/internal/utils"
	"github.com/samgozman/fin-buddy/pkg/errlvl"
)

// JobFunc is a function that will be executed by the scheduler.
type JobFunc func()

// StepFunc handles one symbol of a pass.
type StepFunc func(ctx context.Context, symbol string) error

// PassLoop walks over the symbols one by one, waiting SymbolDelay between two symbols and
// PassDelay after the last one, until ctx is done.
type PassLoop struct {
	Name        string        // name of the loop, used in logs and Sentry
	Symbols     []string      // symbols visited in order on every pass
	SymbolDelay time.Duration // wait between two symbols, none after the last
	PassDelay   time.Duration // wait after a full pass
	logger      *slog.Logger
	sleep       func(ctx context.Context, d time.Duration) error
}

// NewPassLoop creates a PassLoop with the given delays.
func NewPassLoop(name string, symbols []string, symbolDelay, passDelay time.Duration) *PassLoop {
	return &PassLoop{
		Name:        name,
		Symbols:     symbols,
		SymbolDelay: symbolDelay,
		PassDelay:   passDelay,
		logger:      slog.Default(),
		sleep:       sleepContext,
	}
}

func (l *PassLoop) WithLogger(logger *slog.Logger) *PassLoop {
	l.logger = logger
	return l
}

// Run executes passes until ctx is done and returns ctx.Err().
// A failing or panicking step is logged and reported, the pass goes on with the next symbol.
func (l *PassLoop) Run(ctx context.Context, step StepFunc) error {
	for {
		if err := l.Pass(ctx, step); err != nil {
			return err
		}
		if err := l.sleep(ctx, l.PassDelay); err != nil {
			return err
		}
	}
}

// Pass visits every symbol once. It returns early with ctx.Err() when ctx is done.
func (l *PassLoop) Pass(ctx context.Context, step StepFunc) error {
	runID := uuid.NewString()
	tx := sentry.StartTransaction(ctx, fmt.Sprintf("Job.%s", l.Name))
	tx.Op = "job"
	tx.SetTag("run_id", runID)

	// Sentry performance monitoring
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub().Clone()
		ctx = sentry.SetHubOnContext(ctx, hub)
	}

	defer func() {
		tx.Finish()
		hub.Flush(2 * time.Second)
	}()

	var failed int
	for i, symbol := range l.Symbols {
		if err := ctx.Err(); err != nil {
			return err
		}

		span := tx.StartChild(symbol)
		err := l.step(ctx, step, symbol)
		span.Finish()
		if err != nil && ctx.Err() == nil {
			failed++
			l.logger.Log(ctx, errlvl.SlogLevel(err), fmt.Sprintf("[%s][%s]", l.Name, symbol),
				"run_id", runID, "error", err)
			utils.CaptureSentryException(fmt.Sprintf("%s.step", l.Name), hub, err, map[string]string{
				"loop":   l.Name,
				"symbol": symbol,
			})
		}

		if i < len(l.Symbols)-1 {
			if err := l.sleep(ctx, l.SymbolDelay); err != nil {
				return err
			}
		}
	}

	hub.AddBreadcrumb(&sentry.Breadcrumb{
		Category: "successful",
		Message:  fmt.Sprintf("%s pass finished with %d failed symbols", l.Name, failed),
		Level:    sentry.LevelInfo,
	}, nil)
	l.logger.Debug(fmt.Sprintf("[%s] pass finished", l.Name), "run_id", runID, "symbols", len(l.Symbols), "failed", failed)

	return ctx.Err()
}

// step runs one step and turns a panic into an error.
func (l *PassLoop) step(ctx context.Context, step StepFunc, symbol string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errlvl.Wrap(fmt.Errorf("%w: %v", errPanicStep, r), errlvl.ERROR)
		}
	}()

	return step(ctx, symbol)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
