// Package broker fetches price quotes with retries against a primary provider and a short
// fallback chain, and keeps the per-symbol cooldown bookkeeping up to date.
package broker

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/avast/retry-go"
	"github.com/samgozman/fin-buddy/pkg/cooldown"
	"github.com/samgozman/fin-buddy/pkg/errlvl"
)

// Config holds the retry tunables of the Broker. Attempts and Cooldown fall back to the defaults
// when not positive, zero delays are kept as they are.
type Config struct {
	Attempts       int           // tries against the primary provider
	DelayBase      time.Duration // delay before the first try
	DelayStep      time.Duration // added per try index
	JitterMax      time.Duration // upper bound of the random part, capped at DelayStep
	RateLimitUnit  time.Duration // backoff after a rate limited try is (index+1)*RateLimitUnit
	MalformedBase  time.Duration // backoff after a malformed try is MalformedBase + index*MalformedStep
	MalformedStep  time.Duration
	TransientDelay time.Duration // backoff after any other failure
	Cooldown       time.Duration // how long a symbol is skipped after all sources failed
	MinSpacing     time.Duration // minimum time between two fetches of one symbol
}

// DefaultConfig returns the production tunables.
func DefaultConfig() Config {
	return Config{
		Attempts:       5,
		DelayBase:      10 * time.Second,
		DelayStep:      5 * time.Second,
		JitterMax:      5 * time.Second,
		RateLimitUnit:  10 * time.Second,
		MalformedBase:  5 * time.Second,
		MalformedStep:  5 * time.Second,
		TransientDelay: 3 * time.Second,
		Cooldown:       cooldown.DefaultCooldown,
		MinSpacing:     cooldown.DefaultMinSpacing,
	}
}

// Observer receives one call per provider try. The metrics recorder implements it.
type Observer interface {
	ObserveQuoteAttempt(provider, outcome string)
}

type noopObserver struct{}

func (noopObserver) ObserveQuoteAttempt(string, string) {}

// Broker is the quote fetcher. It is meant to be driven by a single loop, one symbol at a time.
type Broker struct {
	primary    Provider
	fallbacks  []Provider
	methods    []Method
	userAgents []string
	tracker    *cooldown.Tracker
	config     Config
	logger     *slog.Logger
	observer   Observer
	healthy    atomic.Bool

	rndMu sync.Mutex
	rnd   *rand.Rand

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewBroker creates a Broker. rnd is the jitter source, pass a seeded one for reproducible delays.
func NewBroker(primary Provider, fallbacks []Provider, tracker *cooldown.Tracker, config Config, rnd *rand.Rand) *Broker {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	b := &Broker{
		primary:    primary,
		fallbacks:  fallbacks,
		methods:    DefaultMethods,
		userAgents: DefaultUserAgents,
		tracker:    tracker,
		config:     config.withDefaults(),
		logger:     slog.Default(),
		observer:   noopObserver{},
		rnd:        rnd,
		now:        time.Now,
		sleep:      sleepContext,
	}
	b.healthy.Store(true)
	return b
}

// WithMethods sets the ordered list of retrieval methods the tries rotate through.
func (b *Broker) WithMethods(methods ...Method) *Broker {
	if len(methods) > 0 {
		b.methods = methods
	}
	return b
}

// WithUserAgents sets the client identities the tries rotate through.
func (b *Broker) WithUserAgents(agents ...string) *Broker {
	if len(agents) > 0 {
		b.userAgents = agents
	}
	return b
}

func (b *Broker) WithLogger(l *slog.Logger) *Broker {
	b.logger = l
	return b
}

func (b *Broker) WithObserver(o Observer) *Broker {
	b.observer = o
	return b
}

// Healthy is false after a rate limited or malformed primary try, until the next primary success.
func (b *Broker) Healthy() bool {
	return b.healthy.Load()
}

// Fetch returns the freshest quote it can get for symbol. The bool is false when the symbol is
// cooling down or every source failed; errors are logged, never returned.
func (b *Broker) Fetch(ctx context.Context, symbol string) (Quote, bool) {
	now := b.now()
	if b.tracker.ShouldSkip(symbol, now) {
		b.logger.Debug("symbol is cooling down, skipping", "symbol", symbol)
		return Quote{}, false
	}

	if wait := b.tracker.Throttle(symbol, now, b.config.MinSpacing); wait > 0 {
		b.logger.Debug("throttling symbol", "symbol", symbol, "wait", wait)
		if err := b.sleep(ctx, wait); err != nil {
			return Quote{}, false
		}
	}

	q, err := b.fetchPrimary(ctx, symbol)
	if err == nil {
		b.tracker.Clear(symbol)
		return q, true
	}
	if ctx.Err() != nil {
		return Quote{}, false
	}
	b.logger.Log(ctx, errlvl.SlogLevel(err), "primary provider failed, trying fallbacks", "symbol", symbol, "error", err)

	for _, p := range b.fallbacks {
		r := b.call(ctx, p, Request{Symbol: symbol, UserAgent: b.userAgent(0)})
		if r.Outcome == Success {
			b.tracker.Clear(symbol)
			return r.Quote, true
		}
		b.logger.Log(ctx, errlvl.SlogLevel(r.Err), "fallback provider failed", "symbol", symbol, "provider", p.Name(), "error", r.Err)
		if ctx.Err() != nil {
			return Quote{}, false
		}
	}

	b.tracker.RecordFailure(symbol, b.now(), b.config.Cooldown)
	b.logger.Warn(ErrAllSourcesExhausted.Error(), "symbol", symbol, "cooldown", b.config.Cooldown)
	return Quote{}, false
}

// fetchPrimary runs the retry loop against the primary provider.
// Every try waits its pre-try delay first; the failure specific backoff runs between tries.
func (b *Broker) fetchPrimary(ctx context.Context, symbol string) (Quote, error) {
	var (
		quote   Quote
		attempt uint
	)

	err := retry.Do(
		func() error {
			i := attempt
			attempt++

			if err := b.sleep(ctx, b.preDelay(i)); err != nil {
				return retry.Unrecoverable(err)
			}

			r := b.call(ctx, b.primary, Request{
				Symbol:    symbol,
				Method:    b.methods[int(i)%len(b.methods)],
				UserAgent: b.userAgent(i),
			})

			switch r.Outcome {
			case Success:
				b.healthy.Store(true)
				quote = r.Quote
				return nil
			case NotFound:
				return retry.Unrecoverable(r.Err)
			case RateLimited, Malformed:
				b.healthy.Store(false)
			}
			return r.Err
		},
		retry.Context(ctx),
		retry.Attempts(uint(b.config.Attempts)),
		retry.DelayType(b.backoff),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			b.logger.Debug("primary try failed", "symbol", symbol, "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return Quote{}, err
	}

	return quote, nil
}

func (b *Broker) call(ctx context.Context, p Provider, r Request) Result {
	res := p.Quote(ctx, r)
	b.observer.ObserveQuoteAttempt(p.Name(), res.Outcome.String())
	return res
}

// backoff is the retry.DelayTypeFunc: the wait after a failed try depends on why it failed.
func (b *Broker) backoff(n uint, err error, _ *retry.Config) time.Duration {
	switch outcomeOf(err) {
	case RateLimited:
		return time.Duration(n+1) * b.config.RateLimitUnit
	case Malformed:
		return b.config.MalformedBase + time.Duration(n)*b.config.MalformedStep
	default:
		return b.config.TransientDelay
	}
}

// preDelay is base + i*step + uniform jitter in [0, JitterMax). With JitterMax <= step the
// sequence never decreases.
func (b *Broker) preDelay(i uint) time.Duration {
	d := b.config.DelayBase + time.Duration(i)*b.config.DelayStep
	if b.config.JitterMax <= 0 {
		return d
	}

	b.rndMu.Lock()
	defer b.rndMu.Unlock()
	return d + time.Duration(b.rnd.Int63n(int64(b.config.JitterMax)))
}

func (b *Broker) userAgent(i uint) string {
	if len(b.userAgents) == 0 {
		return ""
	}
	return b.userAgents[int(i)%len(b.userAgents)]
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Attempts <= 0 {
		c.Attempts = d.Attempts
	}
	if c.Cooldown <= 0 {
		c.Cooldown = d.Cooldown
	}
	if c.JitterMax > c.DelayStep {
		c.JitterMax = c.DelayStep
	}
	return c
}

// sleepContext waits for d or until ctx is done.
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
