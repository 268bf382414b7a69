package journalist

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/samber/lo"
	"github.com/samgozman/fin-buddy/pkg/errlvl"
)

const AlphaVantageBaseURL = "https://www.alphavantage.co"

// AlphaVantageProvider reads the NEWS_SENTIMENT feed for one ticker.
type AlphaVantageProvider struct {
	client  *http.Client
	baseURL string
	apiKey  string
	now     func() time.Time
}

func NewAlphaVantageProvider(client *http.Client, baseURL, apiKey string) *AlphaVantageProvider {
	return &AlphaVantageProvider{
		client:  client,
		baseURL: endpoint(baseURL, AlphaVantageBaseURL),
		apiKey:  apiKey,
		now:     time.Now,
	}
}

func (p *AlphaVantageProvider) Name() string {
	return "alphavantage"
}

func (p *AlphaVantageProvider) Fetch(ctx context.Context, symbol string) ([]*News, error) {
	from, _ := lastWeek(p.now().UTC())

	q := url.Values{}
	q.Set("function", "NEWS_SENTIMENT")
	q.Set("tickers", symbol)
	q.Set("limit", "5")
	q.Set("time_from", from.Format("20060102T1504"))
	q.Set("apikey", p.apiKey)

	var res alphaVantageFeed
	if err := getJSON(ctx, p.client, p.baseURL+"/query?"+q.Encode(), &res); err != nil {
		return nil, newError(errlvl.WARN, errFetchingNews, err).WithProvider(p.Name())
	}
	// Throttling and bad keys come back as 200 with a message.
	if msg, ok := lo.Coalesce(res.Note, res.Information, res.ErrorMessage); ok {
		return nil, newError(errlvl.WARN, errProviderMessage, errors.New(msg)).WithProvider(p.Name())
	}

	var news []*News
	for _, a := range res.Feed {
		symbols := lo.Map(a.TickerSentiment, func(ts alphaVantageTickerSentiment, _ int) string {
			return ts.Ticker
		})
		n, err := NewNews(a.Title, a.Summary, a.URL, a.TimePublished, p.Name(), append([]string{symbol}, symbols...)...)
		if err != nil {
			skipItem(p.Name(), symbol, a.Title, err)
			continue
		}
		news = append(news, n)
	}

	return news, nil
}

type alphaVantageFeed struct {
	Feed []struct {
		Title           string                        `json:"title"`
		URL             string                        `json:"url"`
		Summary         string                        `json:"summary"`
		TimePublished   string                        `json:"time_published"`
		TickerSentiment []alphaVantageTickerSentiment `json:"ticker_sentiment"`
	} `json:"feed"`
	Note         string `json:"Note"`
	Information  string `json:"Information"`
	ErrorMessage string `json:"Error Message"`
}

type alphaVantageTickerSentiment struct {
	Ticker string `json:"ticker"`
}
