package main

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"net/http"
	"time"

	"github.com/samgozman/fin-buddy/api"
	"github.com/samgozman/fin-buddy/archivist"
	"github.com/samgozman/fin-buddy/broker"
	"github.com/samgozman/fin-buddy/desk"
	"github.com/samgozman/fin-buddy/jobs"
	"github.com/samgozman/fin-buddy/journalist"
	"github.com/samgozman/fin-buddy/metrics"
	"github.com/samgozman/fin-buddy/pkg/cooldown"
	"golang.org/x/sync/errgroup"
)

const finalFlushTimeout = 10 * time.Second

// App holds every long running part of fin-buddy.
type App struct {
	desk        *desk.Desk
	quoteJob    *jobs.QuoteJob
	newsJob     *jobs.NewsJob
	maintenance *jobs.Maintenance
	server      *api.Server
	logger      *slog.Logger
}

// NewApp wires the providers, the shared desk, the jobs and the read API from env.
// It connects to the archive store when one is configured.
func NewApp(ctx context.Context, env *Env, logger *slog.Logger) (*App, error) {
	symbols := env.Symbols()
	recorder := metrics.New()
	tracker := cooldown.NewTracker()

	var rnd *rand.Rand
	if env.RandomSeed != 0 {
		rnd = rand.New(rand.NewSource(env.RandomSeed))
	}

	client := broker.NewClient(env.RequestTimeout)
	var fallbacks []broker.Provider
	if key := env.AlphaVantageQuoteKey(); key != "" {
		fallbacks = append(fallbacks, broker.NewAlphaVantage(client, "", key))
	}
	if token := env.IEXQuoteToken(); token != "" {
		fallbacks = append(fallbacks, broker.NewIEX(client, "", token))
	}
	quoteBroker := broker.NewBroker(broker.NewYahoo(client, ""), fallbacks, tracker, env.BrokerConfig(), rnd).
		WithLogger(logger).
		WithObserver(recorder)

	newsClient := &http.Client{Timeout: env.RequestTimeout}
	newsProviders := journalist.DefaultProviders(newsClient, journalist.Keys{
		NewsAPI:      env.NewsAPIKey,
		Finnhub:      env.FinnhubKey,
		AlphaVantage: env.AlphaVantageKey,
	}, desk.CompanyNames)
	newsJournalist := journalist.NewJournalist("SymbolNews", newsProviders).
		WithTimeout(env.RequestTimeout).
		WithLogger(logger).
		WithObserver(recorder)

	store, err := archivist.OpenStore(ctx, env.ArchiveBackend, env.PostgresDSN, env.RedisAddr, logger)
	if err != nil {
		return nil, err
	}
	archive := archivist.NewArchivist(symbols, store).WithLogger(logger)

	d := desk.New(quoteBroker, newsJournalist, archive, tracker)
	recorder.WatchDesk(d)

	var flusher jobs.Flusher
	if archive.HasStore() {
		flusher = archive
	}
	maintenance, err := jobs.NewMaintenance(tracker, flusher, jobs.DefaultSweepInterval, env.ArchiveFlushInterval, logger)
	if err != nil {
		_ = archive.Close()
		return nil, err
	}

	logger.Info("providers configured",
		"quote_fallbacks", len(fallbacks),
		"news_providers", len(newsProviders),
		"archive", env.ArchiveBackend,
	)

	return &App{
		desk: d,
		quoteJob: jobs.NewQuoteJob(quoteBroker, archive,
			jobs.NewPassLoop("QuoteJob", symbols, env.QuoteSymbolDelay, env.QuotePassDelay)).
			WithLogger(logger),
		newsJob: jobs.NewNewsJob(newsJournalist, archive,
			jobs.NewPassLoop("NewsJob", symbols, env.NewsSymbolDelay, env.NewsPassDelay)).
			WithLogger(logger),
		maintenance: maintenance,
		server:      api.NewServer(env.HTTPAddr, api.NewHandler(d), recorder.Handler(), logger),
		logger:      logger,
	}, nil
}

// Run restores the archived snapshot and runs the jobs and the server until ctx is done
// or one of them fails. The snapshot is flushed one last time on the way out.
func (a *App) Run(ctx context.Context) error {
	if _, err := a.desk.Archivist.Warm(ctx); err != nil {
		a.logger.Warn("archive not restored, starting empty", "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.quoteJob.Run(gctx) })
	g.Go(func() error { return a.newsJob.Run(gctx) })
	g.Go(func() error { return a.maintenance.Run(gctx) })
	g.Go(func() error { return a.server.Run(gctx) })
	err := g.Wait()

	flushCtx, cancel := context.WithTimeout(context.Background(), finalFlushTimeout)
	defer cancel()
	if ferr := a.desk.Archivist.Flush(flushCtx); ferr != nil {
		a.logger.Error("final archive flush", "error", ferr)
	}
	if cerr := a.desk.Archivist.Close(); cerr != nil {
		a.logger.Error("archive close", "error", cerr)
	}

	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return nil
	}
	return err
}
