package archivist

import (
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/samgozman/fin-buddy/broker"
	"github.com/samgozman/fin-buddy/journalist"
)

type entry struct {
	quote   *broker.Quote
	news    journalist.NewsList
	quoteAt time.Time
	newsAt  time.Time
}

// Cache holds the latest quote and news list of every symbol of a fixed universe.
// It is written by the background jobs and read by the HTTP handlers.
type Cache struct {
	mu      sync.RWMutex
	symbols []string
	entries map[string]*entry
	now     func() time.Time
}

// NewCache creates an empty cache for the given universe. Duplicates are dropped, order is kept.
func NewCache(symbols []string) *Cache {
	symbols = lo.Uniq(symbols)
	entries := make(map[string]*entry, len(symbols))
	for _, s := range symbols {
		entries[s] = &entry{}
	}

	return &Cache{
		symbols: symbols,
		entries: entries,
		now:     time.Now,
	}
}

// PutQuote replaces the quote of q.Symbol.
func (c *Cache) PutQuote(q broker.Quote) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[q.Symbol]
	if !ok {
		return ErrUnknownSymbol
	}
	e.quote = &q
	e.quoteAt = c.now()
	return nil
}

// PutNews replaces the news list of symbol. The stored list is unique by title,
// newest first and holds at most journalist.DefaultLimit items.
func (c *Cache) PutNews(symbol string, news journalist.NewsList) error {
	news = news.Copy().UniqueByTitle().SortByDate().Take(journalist.DefaultLimit).Copy()

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[symbol]
	if !ok {
		return ErrUnknownSymbol
	}
	e.news = news
	e.newsAt = c.now()
	return nil
}

// Quote returns the cached quote. ErrNoData means the symbol was never fetched successfully.
func (c *Cache) Quote(symbol string) (broker.Quote, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[symbol]
	if !ok {
		return broker.Quote{}, ErrUnknownSymbol
	}
	if e.quote == nil {
		return broker.Quote{}, ErrNoData
	}
	return *e.quote, nil
}

// News returns a copy of the cached news list, empty when nothing was fetched yet.
func (c *Cache) News(symbol string) (journalist.NewsList, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[symbol]
	if !ok {
		return nil, ErrUnknownSymbol
	}
	return e.news.Copy(), nil
}

// CachedCount is the number of symbols that have a quote.
func (c *Cache) CachedCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return lo.CountBy(lo.Values(c.entries), func(e *entry) bool {
		return e.quote != nil
	})
}

// Symbols returns the universe in configuration order.
func (c *Cache) Symbols() []string {
	return append([]string(nil), c.symbols...)
}

// Has reports whether symbol belongs to the universe.
func (c *Cache) Has(symbol string) bool {
	_, ok := c.entries[symbol]
	return ok
}

// Record is the serialisable state of one symbol.
type Record struct {
	Symbol  string              `json:"symbol"`
	Quote   *broker.Quote       `json:"quote,omitempty"`
	News    journalist.NewsList `json:"news"`
	QuoteAt time.Time           `json:"quote_at"`
	NewsAt  time.Time           `json:"news_at"`
}

// Snapshot returns the state of every symbol that holds a quote or news, in universe order.
func (c *Cache) Snapshot() []Record {
	c.mu.RLock()
	defer c.mu.RUnlock()

	records := make([]Record, 0, len(c.symbols))
	for _, s := range c.symbols {
		e := c.entries[s]
		if e.quote == nil && len(e.news) == 0 {
			continue
		}
		r := Record{
			Symbol:  s,
			News:    e.news.Copy(),
			QuoteAt: e.quoteAt,
			NewsAt:  e.newsAt,
		}
		if e.quote != nil {
			q := *e.quote
			r.Quote = &q
		}
		records = append(records, r)
	}
	return records
}

// Restore loads records into the cache. Records of symbols outside the universe are ignored.
// It returns the number of restored symbols.
func (c *Cache) Restore(records []Record) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	var n int
	for _, r := range records {
		e, ok := c.entries[r.Symbol]
		if !ok {
			continue
		}
		if r.Quote != nil {
			q := *r.Quote
			e.quote = &q
			e.quoteAt = r.QuoteAt
		}
		e.news = r.News.Copy().UniqueByTitle().SortByDate().Take(journalist.DefaultLimit).Copy()
		e.newsAt = r.NewsAt
		n++
	}
	return n
}
