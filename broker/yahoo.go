package broker

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

const YahooBaseURL = "https://query1.finance.yahoo.com"

// Yahoo is the primary quote provider. It reads the public chart endpoint in three flavours,
// see Method.
type Yahoo struct {
	client  *Client
	baseURL string
	now     func() time.Time
}

func NewYahoo(client *Client, baseURL string) *Yahoo {
	if baseURL == "" {
		baseURL = YahooBaseURL
	}
	return &Yahoo{client: client, baseURL: strings.TrimSuffix(baseURL, "/"), now: time.Now}
}

func (y *Yahoo) Name() string {
	return "yahoo"
}

func (y *Yahoo) Quote(ctx context.Context, r Request) Result {
	var rng, interval string
	switch r.Method {
	case MethodIntraday:
		rng, interval = "1d", "5m"
	case MethodDaily:
		rng, interval = "5d", "1d"
	default:
		rng, interval = "1d", "1d"
	}

	u := fmt.Sprintf("%s/v8/finance/chart/%s?range=%s&interval=%s", y.baseURL, url.PathEscape(r.Symbol), rng, interval)

	var res yahooChartResponse
	outcome, err := y.client.getJSON(ctx, u, r.UserAgent, &res)
	if outcome != Success {
		return failed(outcome, y.Name(), err)
	}

	if len(res.Chart.Result) == 0 {
		if res.Chart.Error != nil && strings.EqualFold(res.Chart.Error.Code, "Not Found") {
			return failed(NotFound, y.Name(), errors.New(res.Chart.Error.Description))
		}
		return failed(Malformed, y.Name(), errors.New("empty chart result"))
	}

	chart := res.Chart.Result[0]
	var (
		price, ref float64
		volume     int64
	)
	switch r.Method {
	case MethodIntraday:
		price, ref, volume = chart.intraday()
	case MethodDaily:
		price, ref, volume = chart.daily()
	default:
		price, ref, volume = chart.snapshot()
	}

	if price <= 0 {
		return failed(Malformed, y.Name(), fmt.Errorf("no positive price for %s via %s", r.Symbol, r.Method))
	}

	return succeeded(NewQuote(r.Symbol, price, ref, volume, y.now(), y.Name()))
}

type yahooChartResponse struct {
	Chart struct {
		Result []yahooChart `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type yahooChart struct {
	Meta struct {
		RegularMarketPrice  float64 `json:"regularMarketPrice"`
		RegularMarketVolume int64   `json:"regularMarketVolume"`
		ChartPreviousClose  float64 `json:"chartPreviousClose"`
		PreviousClose       float64 `json:"previousClose"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []yahooBars `json:"quote"`
	} `json:"indicators"`
}

// yahooBars holds OHLCV columns. Yahoo sends null for bars without trades.
type yahooBars struct {
	Open   []*float64 `json:"open"`
	Close  []*float64 `json:"close"`
	Volume []*int64   `json:"volume"`
}

// bar is a single row of yahooBars with the nulls removed.
type bar struct {
	open, close float64
	volume      int64
}

func (c yahooChart) bars() []bar {
	if len(c.Indicators.Quote) == 0 {
		return nil
	}
	q := c.Indicators.Quote[0]

	var bars []bar
	for i, cl := range q.Close {
		if cl == nil || *cl <= 0 {
			continue
		}
		b := bar{close: *cl}
		if i < len(q.Open) && q.Open[i] != nil {
			b.open = *q.Open[i]
		}
		if i < len(q.Volume) && q.Volume[i] != nil {
			b.volume = *q.Volume[i]
		}
		bars = append(bars, b)
	}
	return bars
}

func (c yahooChart) snapshot() (price, ref float64, volume int64) {
	price = c.Meta.RegularMarketPrice
	ref = c.Meta.PreviousClose
	if ref <= 0 {
		ref = c.Meta.ChartPreviousClose
	}
	if ref <= 0 {
		if bars := c.bars(); len(bars) > 0 {
			ref = bars[len(bars)-1].open
		}
	}
	return price, ref, c.Meta.RegularMarketVolume
}

func (c yahooChart) intraday() (price, ref float64, volume int64) {
	bars := c.bars()
	if len(bars) == 0 {
		return 0, 0, 0
	}
	for _, b := range bars {
		volume += b.volume
	}
	return bars[len(bars)-1].close, bars[0].open, volume
}

func (c yahooChart) daily() (price, ref float64, volume int64) {
	bars := c.bars()
	if len(bars) == 0 {
		return 0, 0, 0
	}
	last := bars[len(bars)-1]
	if len(bars) >= 2 {
		return last.close, bars[len(bars)-2].close, last.volume
	}
	return last.close, last.open, last.volume
}
