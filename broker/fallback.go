package broker

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/samgozman/fin-buddy/utils"
)

const (
	AlphaVantageBaseURL = "https://www.alphavantage.co"
	IEXBaseURL          = "https://cloud.iexapis.com"

	// Public demo credentials. They only work for a handful of symbols and are used
	// when demo keys are explicitly allowed.
	AlphaVantageDemoKey = "demo"
	IEXDemoToken        = "pk_demo"
)

// AlphaVantage reads the GLOBAL_QUOTE endpoint. It is used as a fallback only.
type AlphaVantage struct {
	client  *Client
	baseURL string
	apiKey  string
	now     func() time.Time
}

func NewAlphaVantage(client *Client, baseURL, apiKey string) *AlphaVantage {
	if baseURL == "" {
		baseURL = AlphaVantageBaseURL
	}
	return &AlphaVantage{client: client, baseURL: strings.TrimSuffix(baseURL, "/"), apiKey: apiKey, now: time.Now}
}

func (a *AlphaVantage) Name() string {
	return "alphavantage"
}

func (a *AlphaVantage) Quote(ctx context.Context, r Request) Result {
	q := url.Values{}
	q.Set("function", "GLOBAL_QUOTE")
	q.Set("symbol", r.Symbol)
	q.Set("apikey", a.apiKey)

	var res alphaVantageGlobalQuote
	outcome, err := a.client.getJSON(ctx, a.baseURL+"/query?"+q.Encode(), r.UserAgent, &res)
	if outcome != Success {
		return failed(outcome, a.Name(), err)
	}

	// Throttled and invalid key responses are 200 with a message instead of data.
	if res.Note != "" {
		return failed(RateLimited, a.Name(), errors.New(res.Note))
	}
	if res.Information != "" {
		return failed(RateLimited, a.Name(), errors.New(res.Information))
	}
	if res.ErrorMessage != "" {
		return failed(Malformed, a.Name(), errors.New(res.ErrorMessage))
	}
	if res.Quote.Symbol == "" {
		return failed(NotFound, a.Name(), fmt.Errorf("empty global quote for %s", r.Symbol))
	}

	price := utils.StrValueToFloat(res.Quote.Price)
	if price <= 0 {
		return failed(Malformed, a.Name(), fmt.Errorf("no positive price for %s", r.Symbol))
	}
	ref := utils.StrValueToFloat(res.Quote.PreviousClose)
	if ref <= 0 {
		ref = price - utils.StrValueToFloat(res.Quote.Change)
	}

	return succeeded(NewQuote(r.Symbol, price, ref, int64(utils.StrValueToFloat(res.Quote.Volume)), a.now(), a.Name()))
}

type alphaVantageGlobalQuote struct {
	Quote struct {
		Symbol        string `json:"01. symbol"`
		Price         string `json:"05. price"`
		Volume        string `json:"06. volume"`
		PreviousClose string `json:"08. previous close"`
		Change        string `json:"09. change"`
		ChangePercent string `json:"10. change percent"`
	} `json:"Global Quote"`
	Note         string `json:"Note"`
	Information  string `json:"Information"`
	ErrorMessage string `json:"Error Message"`
}

// IEX reads the IEX Cloud quote endpoint. It is used as a fallback only.
type IEX struct {
	client  *Client
	baseURL string
	token   string
	now     func() time.Time
}

func NewIEX(client *Client, baseURL, token string) *IEX {
	if baseURL == "" {
		baseURL = IEXBaseURL
	}
	return &IEX{client: client, baseURL: strings.TrimSuffix(baseURL, "/"), token: token, now: time.Now}
}

func (i *IEX) Name() string {
	return "iex"
}

func (i *IEX) Quote(ctx context.Context, r Request) Result {
	u := fmt.Sprintf("%s/stable/stock/%s/quote?token=%s", i.baseURL, url.PathEscape(r.Symbol), url.QueryEscape(i.token))

	var res iexQuote
	outcome, err := i.client.getJSON(ctx, u, r.UserAgent, &res)
	if outcome != Success {
		return failed(outcome, i.Name(), err)
	}
	if res.LatestPrice <= 0 {
		return failed(Malformed, i.Name(), fmt.Errorf("no positive price for %s", r.Symbol))
	}

	ref := res.PreviousClose
	if ref <= 0 {
		ref = res.LatestPrice - res.Change
	}

	return succeeded(NewQuote(r.Symbol, res.LatestPrice, ref, res.LatestVolume, i.now(), i.Name()))
}

type iexQuote struct {
	Symbol        string  `json:"symbol"`
	LatestPrice   float64 `json:"latestPrice"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
	PreviousClose float64 `json:"previousClose"`
	LatestVolume  int64   `json:"latestVolume"`
}
