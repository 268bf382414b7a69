package journalist

import (
	"context"
	"strings"
	"time"

	finnhub "github.com/Finnhub-Stock-API/finnhub-go/v2"
	"github.com/samber/lo"
	"github.com/samgozman/fin-buddy/pkg/errlvl"
)

// companyNewsFunc is the Finnhub company-news call. It is a field so tests can replace the SDK.
type companyNewsFunc func(ctx context.Context, symbol, from, to string) ([]finnhub.CompanyNews, error)

// FinnhubProvider reads the last week of company news from Finnhub.
type FinnhubProvider struct {
	companyNews companyNewsFunc
	now         func() time.Time
}

func NewFinnhubProvider(apiKey string) *FinnhubProvider {
	cfg := finnhub.NewConfiguration()
	cfg.AddDefaultHeader("X-Finnhub-Token", apiKey)
	client := finnhub.NewAPIClient(cfg).DefaultApi

	return &FinnhubProvider{
		companyNews: func(ctx context.Context, symbol, from, to string) ([]finnhub.CompanyNews, error) {
			res, _, err := client.CompanyNews(ctx).Symbol(symbol).From(from).To(to).Execute()
			return res, err
		},
		now: time.Now,
	}
}

func (p *FinnhubProvider) Name() string {
	return "finnhub"
}

func (p *FinnhubProvider) Fetch(ctx context.Context, symbol string) ([]*News, error) {
	from, to := lastWeek(p.now())
	res, err := p.companyNews(ctx, symbol, from.Format(time.DateOnly), to.Format(time.DateOnly))
	if err != nil {
		return nil, newError(errlvl.WARN, errFetchingNews, err).WithProvider(p.Name())
	}

	var news []*News
	for _, item := range res {
		var headline, summary, link string
		var datetime int64
		if item.Headline != nil {
			headline = *item.Headline
		}
		if item.Summary != nil {
			summary = *item.Summary
		}
		if item.Url != nil {
			link = *item.Url
		}
		if item.Datetime != nil {
			datetime = *item.Datetime
		}
		if headline == "" {
			continue
		}

		symbols := []string{symbol}
		if item.Related != nil && *item.Related != "" {
			related := lo.Map(strings.Split(*item.Related, ","), func(s string, _ int) string {
				return strings.TrimSpace(s)
			})
			symbols = append(symbols, lo.Compact(related)...)
		}

		n, err := NewNews(headline, summary, link, datetime, p.Name(), symbols...)
		if err != nil {
			skipItem(p.Name(), symbol, headline, err)
			continue
		}
		news = append(news, n)
	}

	return news, nil
}
