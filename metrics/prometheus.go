package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samgozman/fin-buddy/desk"
)

// Recorder implements broker.Observer and journalist.Observer using Prometheus.
type Recorder struct {
	registry      *prometheus.Registry
	quoteAttempts *prometheus.CounterVec
	newsFetches   *prometheus.CounterVec
	newsItems     *prometheus.HistogramVec
}

// New creates a Recorder backed by its own registry, with the Go and process collectors.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		quoteAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finbuddy_quote_attempts_total",
				Help: "Total number of quote provider calls by outcome",
			},
			[]string{"provider", "outcome"},
		),
		newsFetches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finbuddy_news_fetches_total",
				Help: "Total number of news provider calls by result",
			},
			[]string{"provider", "result"},
		),
		newsItems: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "finbuddy_news_items",
				Help:    "Number of items returned by a news provider call",
				Buckets: []float64{0, 1, 3, 5, 10, 20, 50},
			},
			[]string{"provider"},
		),
	}
}

// ObserveQuoteAttempt records one quote provider call.
func (r *Recorder) ObserveQuoteAttempt(provider, outcome string) {
	r.quoteAttempts.WithLabelValues(provider, outcome).Inc()
}

// ObserveNewsFetch records one news provider call.
func (r *Recorder) ObserveNewsFetch(provider string, items int, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	r.newsFetches.WithLabelValues(provider, result).Inc()
	if err == nil {
		r.newsItems.WithLabelValues(provider).Observe(float64(items))
	}
}

// WatchDesk exports the desk health as gauges read at scrape time.
func (r *Recorder) WatchDesk(d *desk.Desk) {
	factory := promauto.With(r.registry)

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "finbuddy_providers_healthy",
		Help: "1 when the last primary quote call did not hit a rate limit or a malformed answer",
	}, func() float64 {
		if d.Health(time.Now()).ProvidersHealthy {
			return 1
		}
		return 0
	})
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "finbuddy_failing_symbols",
		Help: "Number of symbols in cooldown",
	}, func() float64 {
		return float64(d.Health(time.Now()).FailingSymbolCount)
	})
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "finbuddy_cached_symbols",
		Help: "Number of symbols with a cached quote",
	}, func() float64 {
		return float64(d.Health(time.Now()).CachedSymbolCount)
	})
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
