package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/samgozman/fin-buddy/journalist"
	"github.com/samgozman/fin-buddy/pkg/errlvl"
)

const (
	DefaultNewsSymbolDelay = 30 * time.Second
	DefaultNewsPassDelay   = time.Hour
)

// NewsFetcher is implemented by journalist.Journalist.
type NewsFetcher interface {
	GetLatestNews(ctx context.Context, symbol string) journalist.NewsList
}

// NewsSink is implemented by archivist.Archivist.
type NewsSink interface {
	PutNews(symbol string, news journalist.NewsList) error
}

// NewsJob replaces the cached news of every symbol on each pass, an empty list included.
type NewsJob struct {
	fetcher NewsFetcher
	sink    NewsSink
	loop    *PassLoop
	logger  *slog.Logger
}

func NewNewsJob(fetcher NewsFetcher, sink NewsSink, loop *PassLoop) *NewsJob {
	return &NewsJob{
		fetcher: fetcher,
		sink:    sink,
		loop:    loop,
		logger:  slog.Default(),
	}
}

func (j *NewsJob) WithLogger(l *slog.Logger) *NewsJob {
	j.logger = l
	j.loop.WithLogger(l)
	return j
}

// Run blocks until ctx is done.
func (j *NewsJob) Run(ctx context.Context) error {
	return j.loop.Run(ctx, j.step)
}

func (j *NewsJob) step(ctx context.Context, symbol string) error {
	news := j.fetcher.GetLatestNews(ctx, symbol)
	// Providers were cut short, the list is incomplete.
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := j.sink.PutNews(symbol, news); err != nil {
		return errlvl.Wrap(errors.Join(errStoreNews, err), errlvl.ERROR)
	}
	j.logger.Info("[NewsJob] news updated", "symbol", symbol, "count", len(news))
	return nil
}
