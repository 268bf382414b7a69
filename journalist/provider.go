package journalist

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/samgozman/fin-buddy/pkg/errlvl"
	"github.com/samgozman/fin-buddy/utils"
)

// NewsProvider is the interface for the data fetcher (via RSS, API, etc.)
type NewsProvider interface {
	Name() string
	Fetch(ctx context.Context, symbol string) ([]*News, error)
}

const YahooRssURL = "https://feeds.finance.yahoo.com/rss/2.0/headline?s=%s&region=US&lang=en-US"

// RssProvider reads a per-symbol RSS feed. URL is a format string with one %s for the symbol.
type RssProvider struct {
	name   string
	URL    string
	client *http.Client
}

// NewRssProvider creates a new RssProvider instance
func NewRssProvider(name, url string, client *http.Client) *RssProvider {
	return &RssProvider{
		name:   name,
		URL:    url,
		client: client,
	}
}

// NewYahooRssProvider is the credential free Yahoo Finance headline feed.
func NewYahooRssProvider(client *http.Client) *RssProvider {
	return NewRssProvider("yahoo:rss", YahooRssURL, client)
}

func (r *RssProvider) Name() string {
	return r.name
}

// Fetch fetches the news from the RSS feed
func (r *RssProvider) Fetch(ctx context.Context, symbol string) ([]*News, error) {
	fp := gofeed.NewParser()
	if r.client != nil {
		fp.Client = r.client
	}
	feed, err := fp.ParseURLWithContext(fmt.Sprintf(r.URL, url.QueryEscape(symbol)), ctx)
	if err != nil {
		return nil, newError(errlvl.WARN, errFetchingNews, err).WithProvider(r.name)
	}

	var news []*News
	for _, item := range feed.Items {
		// PublishedParsed is nil when gofeed could not read the date.
		var published utils.Datable = item.Published
		if item.PublishedParsed != nil {
			published = *item.PublishedParsed
		}

		n, err := NewNews(item.Title, item.Description, item.Link, published, r.name, symbol)
		if err != nil {
			skipItem(r.name, symbol, item.Title, err)
			continue
		}
		news = append(news, n)
	}

	return news, nil
}

// skipItem logs a news item that could not be parsed. One bad item never drops the rest of a response.
func skipItem(provider, symbol, title string, err error) {
	slog.Warn("skipping news item", "provider", provider, "symbol", symbol, "title", title,
		"error", newError(errlvl.WARN, errParsingNews, err).WithProvider(provider))
}

// getJSON is the common GET + decode of the JSON news providers.
func getJSON(ctx context.Context, client *http.Client, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("error fetching %s: %w", req.URL.Host, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("invalid status code: %d", res.StatusCode)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("error reading response body: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("error unmarshalling response body: %w", err)
	}
	return nil
}

// endpoint trims the trailing slash of a configurable base URL or returns def.
func endpoint(u, def string) string {
	if u == "" {
		return def
	}
	return strings.TrimSuffix(u, "/")
}

// lastWeek is the [from, to] window the API providers ask for.
func lastWeek(now time.Time) (time.Time, time.Time) {
	return now.AddDate(0, 0, -7), now
}
