package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/samber/lo"
	"github.com/samgozman/fin-buddy/archivist"
	"github.com/samgozman/fin-buddy/broker"
	"github.com/samgozman/fin-buddy/desk"
	"github.com/samgozman/fin-buddy/journalist"
	"github.com/samgozman/fin-buddy/sentiment"
)

const (
	StatusHealthy  = "healthy"
	StatusDegraded = "degraded"
)

// ErrorResponse is the body of every non 2xx answer.
type ErrorResponse struct {
	Error    string `json:"error"`
	Symbol   string `json:"symbol,omitempty"`
	Fallback string `json:"fallback,omitempty"`
}

// QuoteResponse is a cached quote.
type QuoteResponse struct {
	broker.Quote
	APIStatus string `json:"api_status"`
}

// NewsItem is a cached news item with its sentiment label.
type NewsItem struct {
	*journalist.News
	SentimentLabel sentiment.Label `json:"sentiment_label"`
}

type NewsResponse struct {
	Symbol string     `json:"symbol"`
	News   []NewsItem `json:"news"`
}

type SymbolsResponse struct {
	Symbols []string `json:"symbols"`
}

// StatusResponse is the health of the acquisition layer.
type StatusResponse struct {
	desk.Health
	APIStatus string `json:"api_status"`
}

// Handler serves the cached data. It never triggers a provider call.
type Handler struct {
	desk *desk.Desk
	now  func() time.Time
}

func NewHandler(d *desk.Desk) *Handler {
	return &Handler{desk: d, now: time.Now}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/quotes/:symbol", h.Quote)
	g.GET("/news/:symbol", h.News)
	g.GET("/symbols", h.Symbols)
	e.GET("/status", h.Status)
}

// Quote answers 200 with the cached quote, 404 for unknown symbols and 503 with static
// guidance when nothing was fetched yet.
func (h *Handler) Quote(c echo.Context) error {
	symbol := normalizeSymbol(c.Param("symbol"))

	q, err := h.desk.Quote(symbol)
	switch {
	case errors.Is(err, archivist.ErrUnknownSymbol):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "unknown symbol", Symbol: symbol})
	case errors.Is(err, archivist.ErrNoData):
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error:    "data unavailable",
			Symbol:   symbol,
			Fallback: h.desk.Guidance(symbol),
		})
	case err != nil:
		return err
	}

	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return c.JSON(http.StatusOK, QuoteResponse{Quote: q, APIStatus: h.apiStatus()})
}

// News answers 200 with the cached list, possibly empty, and 404 for unknown symbols.
func (h *Handler) News(c echo.Context) error {
	symbol := normalizeSymbol(c.Param("symbol"))

	news, err := h.desk.News(symbol)
	if errors.Is(err, archivist.ErrUnknownSymbol) {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "unknown symbol", Symbol: symbol})
	}
	if err != nil {
		return err
	}

	items := lo.Map(news, func(n *journalist.News, _ int) NewsItem {
		return NewsItem{News: n, SentimentLabel: sentiment.LabelOf(n.Sentiment)}
	})
	return c.JSON(http.StatusOK, NewsResponse{Symbol: symbol, News: items})
}

func (h *Handler) Symbols(c echo.Context) error {
	return c.JSON(http.StatusOK, SymbolsResponse{Symbols: h.desk.Symbols()})
}

func (h *Handler) Status(c echo.Context) error {
	health := h.desk.Health(h.now())
	return c.JSON(http.StatusOK, StatusResponse{Health: health, APIStatus: statusOf(health)})
}

func (h *Handler) apiStatus() string {
	return statusOf(h.desk.Health(h.now()))
}

func statusOf(health desk.Health) string {
	if health.ProvidersHealthy {
		return StatusHealthy
	}
	return StatusDegraded
}

func normalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
