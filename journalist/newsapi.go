package journalist

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/samgozman/fin-buddy/pkg/errlvl"
)

const NewsAPIBaseURL = "https://newsapi.org"

// newsAPIDomains restricts NewsAPI results to financial outlets.
const newsAPIDomains = "reuters.com,bloomberg.com,cnbc.com,marketwatch.com,yahoo.com"

// NewsAPIProvider searches NewsAPI "everything" by ticker or company name.
type NewsAPIProvider struct {
	client       *http.Client
	baseURL      string
	apiKey       string
	companyNames map[string]string
}

func NewNewsAPIProvider(client *http.Client, baseURL, apiKey string, companyNames map[string]string) *NewsAPIProvider {
	return &NewsAPIProvider{
		client:       client,
		baseURL:      endpoint(baseURL, NewsAPIBaseURL),
		apiKey:       apiKey,
		companyNames: companyNames,
	}
}

func (p *NewsAPIProvider) Name() string {
	return "newsapi"
}

func (p *NewsAPIProvider) Fetch(ctx context.Context, symbol string) ([]*News, error) {
	company, ok := p.companyNames[symbol]
	if !ok {
		company = symbol
	}

	q := url.Values{}
	q.Set("q", symbol+" OR "+company)
	q.Set("sortBy", "publishedAt")
	q.Set("language", "en")
	q.Set("pageSize", strconv.Itoa(5))
	q.Set("domains", newsAPIDomains)
	q.Set("apiKey", p.apiKey)

	var res newsAPIResponse
	if err := getJSON(ctx, p.client, p.baseURL+"/v2/everything?"+q.Encode(), &res); err != nil {
		return nil, newError(errlvl.WARN, errFetchingNews, err).WithProvider(p.Name())
	}
	if res.Status == "error" {
		return nil, newError(errlvl.WARN, errProviderMessage, errors.New(res.Message)).WithProvider(p.Name())
	}

	var news []*News
	for _, a := range res.Articles {
		// Articles taken down by the publisher keep their slot with this title.
		if a.Title == "" || a.Title == "[Removed]" {
			continue
		}
		n, err := NewNews(a.Title, a.Description, a.URL, a.PublishedAt, p.Name(), symbol)
		if err != nil {
			skipItem(p.Name(), symbol, a.Title, err)
			continue
		}
		news = append(news, n)
	}

	return news, nil
}

type newsAPIResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Articles []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
	} `json:"articles"`
}
