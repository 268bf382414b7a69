package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/samgozman/fin-buddy/broker"
	"github.com/samgozman/fin-buddy/pkg/errlvl"
)

const (
	DefaultQuoteSymbolDelay = 60 * time.Second
	DefaultQuotePassDelay   = 30 * time.Minute
)

// QuoteFetcher is implemented by broker.Broker.
type QuoteFetcher interface {
	Fetch(ctx context.Context, symbol string) (broker.Quote, bool)
}

// QuoteSink is implemented by archivist.Archivist.
type QuoteSink interface {
	PutQuote(q broker.Quote) error
}

// QuoteJob keeps the cached quotes fresh. An unavailable quote leaves the cache untouched.
type QuoteJob struct {
	fetcher QuoteFetcher
	sink    QuoteSink
	loop    *PassLoop
	logger  *slog.Logger
}

func NewQuoteJob(fetcher QuoteFetcher, sink QuoteSink, loop *PassLoop) *QuoteJob {
	return &QuoteJob{
		fetcher: fetcher,
		sink:    sink,
		loop:    loop,
		logger:  slog.Default(),
	}
}

func (j *QuoteJob) WithLogger(l *slog.Logger) *QuoteJob {
	j.logger = l
	j.loop.WithLogger(l)
	return j
}

// Run blocks until ctx is done.
func (j *QuoteJob) Run(ctx context.Context) error {
	return j.loop.Run(ctx, j.step)
}

func (j *QuoteJob) step(ctx context.Context, symbol string) error {
	q, ok := j.fetcher.Fetch(ctx, symbol)
	if !ok {
		j.logger.Debug("[QuoteJob] quote unavailable", "symbol", symbol)
		return nil
	}

	if err := j.sink.PutQuote(q); err != nil {
		return errlvl.Wrap(errors.Join(errStoreQuote, err), errlvl.ERROR)
	}
	j.logger.Info("[QuoteJob] quote updated", "symbol", symbol, "price", q.Price, "provider", q.Provider)
	return nil
}
