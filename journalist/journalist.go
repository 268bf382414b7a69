package journalist

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/samgozman/fin-buddy/pkg/errlvl"
	"github.com/samgozman/fin-buddy/sentiment"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultPerProvider = 3
	DefaultLimit       = 5
	DefaultTimeout     = 15 * time.Second
)

// Observer receives the result of every provider call. The metrics recorder implements it.
type Observer interface {
	ObserveNewsFetch(provider string, items int, err error)
}

// Journalist gathers recent news for a symbol from several providers and merges them into one
// short, deduplicated, newest-first list.
type Journalist struct {
	Name        string
	providers   []NewsProvider
	perProvider int
	limit       int
	timeout     time.Duration
	sentiment   sentiment.Func
	logger      *slog.Logger
	observer    Observer
}

// NewJournalist creates a Journalist. Providers are queried in parallel but merged in the given order.
func NewJournalist(name string, providers []NewsProvider) *Journalist {
	return &Journalist{
		Name:        name,
		providers:   providers,
		perProvider: DefaultPerProvider,
		limit:       DefaultLimit,
		timeout:     DefaultTimeout,
		sentiment:   sentiment.Score,
		logger:      slog.Default(),
	}
}

// Limit sets the maximum number of news returned by GetLatestNews.
func (j *Journalist) Limit(n int) *Journalist {
	j.limit = n
	return j
}

// PerProvider sets how many items each provider contributes at most.
func (j *Journalist) PerProvider(n int) *Journalist {
	j.perProvider = n
	return j
}

// WithSentiment replaces the scoring function.
func (j *Journalist) WithSentiment(fn sentiment.Func) *Journalist {
	j.sentiment = fn
	return j
}

// WithTimeout bounds every provider call.
func (j *Journalist) WithTimeout(d time.Duration) *Journalist {
	j.timeout = d
	return j
}

func (j *Journalist) WithLogger(l *slog.Logger) *Journalist {
	j.logger = l
	return j
}

func (j *Journalist) WithObserver(o Observer) *Journalist {
	j.observer = o
	return j
}

// GetLatestNews returns at most Limit news for symbol, newest first, unique by title.
// A failing provider contributes nothing, the error is logged and never returned.
func (j *Journalist) GetLatestNews(ctx context.Context, symbol string) NewsList {
	results := make([][]*News, len(j.providers))

	var g errgroup.Group
	for i, p := range j.providers {
		i, p := i, p
		g.Go(func() error {
			news, err := j.fetch(ctx, p, symbol)
			if j.observer != nil {
				j.observer.ObserveNewsFetch(p.Name(), len(news), err)
			}
			if err != nil {
				j.logger.Log(ctx, errlvl.SlogLevel(err), "news provider failed",
					"journalist", j.Name, "provider", p.Name(), "symbol", symbol, "error", err)
				return nil
			}
			results[i] = news
			return nil
		})
	}
	_ = g.Wait()

	var merged NewsList
	for _, news := range results {
		for _, n := range NewsList(news).Take(j.perProvider) {
			n.Sentiment = j.sentiment(n.text())
			merged = append(merged, n)
		}
	}

	return merged.UniqueByTitle().SortByDate().Take(j.limit).Copy()
}

// fetch runs one provider with the timeout and turns a panic into an error.
func (j *Journalist) fetch(ctx context.Context, p NewsProvider, symbol string) (news []*News, err error) {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			news, err = nil, newError(errlvl.ERROR, errPanicFetch, fmt.Errorf("%v", r)).WithProvider(p.Name())
		}
	}()

	return p.Fetch(ctx, symbol)
}

// Keys holds the optional provider credentials.
type Keys struct {
	NewsAPI      string
	Finnhub      string
	AlphaVantage string
}

// DefaultProviders returns the Yahoo RSS feed followed by every credentialed provider that has a key.
// Providers without a key are left out, so they never issue a request.
func DefaultProviders(client *http.Client, keys Keys, companyNames map[string]string) []NewsProvider {
	providers := []NewsProvider{NewYahooRssProvider(client)}
	if keys.NewsAPI != "" {
		providers = append(providers, NewNewsAPIProvider(client, "", keys.NewsAPI, companyNames))
	}
	if keys.Finnhub != "" {
		providers = append(providers, NewFinnhubProvider(keys.Finnhub))
	}
	if keys.AlphaVantage != "" {
		providers = append(providers, NewAlphaVantageProvider(client, "", keys.AlphaVantage))
	}
	return providers
}
