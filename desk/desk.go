// Package desk is the single object shared by the background jobs and the read API.
package desk

import (
	"time"

	"github.com/samgozman/fin-buddy/archivist"
	"github.com/samgozman/fin-buddy/broker"
	"github.com/samgozman/fin-buddy/journalist"
	"github.com/samgozman/fin-buddy/pkg/cooldown"
)

// CompanyNames are used to widen news searches beyond the bare ticker.
var CompanyNames = map[string]string{
	"TSLA":  "Tesla",
	"AAPL":  "Apple",
	"GOOGL": "Google",
	"MSFT":  "Microsoft",
	"AMZN":  "Amazon",
	"NVDA":  "NVIDIA",
}

// Guidance is the static text served instead of a quote when nothing is cached for a symbol.
var Guidance = map[string]string{
	"TSLA":  "Tesla is known for high volatility driven by EV market trends, production updates, and regulatory news.",
	"AAPL":  "Apple typically moves on product announcements, earnings, supply chain news, and broader tech sentiment.",
	"GOOGL": "Alphabet/Google responds to advertising market changes, AI developments, and regulatory concerns.",
	"MSFT":  "Microsoft is influenced by cloud computing growth, enterprise software adoption, and AI initiatives.",
	"AMZN":  "Amazon moves on e-commerce trends, AWS cloud performance, and logistics/shipping developments.",
	"NVDA":  "NVIDIA is highly sensitive to AI/GPU demand, gaming trends, and semiconductor market conditions.",
}

const defaultGuidance = " is an actively traded stock that responds to market sentiment and company-specific news."

// Health is the snapshot served by the status endpoint.
type Health struct {
	ProvidersHealthy   bool      `json:"api_healthy"`
	FailingSymbolCount int       `json:"failed_symbols"`
	CachedSymbolCount  int       `json:"cached_data"`
	AsOf               time.Time `json:"last_update"`
}

// HealthReporter is implemented by broker.Broker.
type HealthReporter interface {
	Healthy() bool
}

// Desk wires the shared state together. It is built once in main and passed to the jobs
// (which write through Archivist) and the API (which only reads).
type Desk struct {
	Broker     *broker.Broker
	Journalist *journalist.Journalist
	Archivist  *archivist.Archivist
	Tracker    *cooldown.Tracker

	health   HealthReporter
	guidance map[string]string
}

// New creates a Desk. health is usually the broker itself.
func New(b *broker.Broker, j *journalist.Journalist, a *archivist.Archivist, t *cooldown.Tracker) *Desk {
	d := &Desk{
		Broker:     b,
		Journalist: j,
		Archivist:  a,
		Tracker:    t,
		guidance:   Guidance,
	}
	if b != nil {
		d.health = b
	}
	return d
}

// WithHealth replaces the source of the providers health flag.
func (d *Desk) WithHealth(h HealthReporter) *Desk {
	d.health = h
	return d
}

// WithGuidance replaces the fallback texts.
func (d *Desk) WithGuidance(g map[string]string) *Desk {
	d.guidance = g
	return d
}

// Symbols is the configured universe.
func (d *Desk) Symbols() []string {
	return d.Archivist.Symbols()
}

// Quote returns the cached quote. It returns archivist.ErrNoData when the symbol has
// never been fetched and archivist.ErrUnknownSymbol for symbols outside the universe.
func (d *Desk) Quote(symbol string) (broker.Quote, error) {
	return d.Archivist.Quote(symbol)
}

// News returns the cached news list.
func (d *Desk) News(symbol string) (journalist.NewsList, error) {
	return d.Archivist.News(symbol)
}

// Health reports the providers flag, the number of symbols cooling down at now and the
// number of symbols with a cached quote.
func (d *Desk) Health(now time.Time) Health {
	h := Health{
		ProvidersHealthy:  true,
		CachedSymbolCount: d.Archivist.CachedCount(),
		AsOf:              now,
	}
	if d.health != nil {
		h.ProvidersHealthy = d.health.Healthy()
	}
	if d.Tracker != nil {
		h.FailingSymbolCount = d.Tracker.FailingCount(now)
	}
	return h
}

// Guidance is the static context served when no quote is available for symbol.
func (d *Desk) Guidance(symbol string) string {
	if g, ok := d.guidance[symbol]; ok {
		return g
	}
	return symbol + defaultGuidance
}
