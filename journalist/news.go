package journalist

import (
	"crypto/md5"
	"encoding/hex"
	"html"
	"sort"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/samber/lo"
	"github.com/samgozman/fin-buddy/utils"
)

// summaryLength is the maximum number of runes kept from a provider summary.
const summaryLength = 200

var stripPolicy = bluemonday.StrictPolicy()

type News struct {
	ID           string    `json:"id"`           // ID is the md5 hash of link + date
	Title        string    `json:"title"`        // Title is the headline, also the dedup identity
	Summary      string    `json:"summary"`      // Summary is the plain text description, cut to 200 runes
	URL          string    `json:"url"`          // URL is the link to the article
	Sentiment    float64   `json:"sentiment"`    // Sentiment is in [-1, 1], set once by the Journalist
	PublishedAt  time.Time `json:"published_at"` // PublishedAt is the publication date in UTC
	Symbols      []string  `json:"symbols"`      // Symbols the article was fetched for
	ProviderName string    `json:"provider"`     // ProviderName is the name of the provider that fetched the news
}

// NewNews creates a News item. Summary HTML is stripped; an empty summary falls back to the title.
func NewNews(title, summary, link string, date utils.Datable, provider string, symbols ...string) (*News, error) {
	publishedAt, err := utils.ParseDate(date)
	if err != nil {
		return nil, err
	}

	title = strings.TrimSpace(html.UnescapeString(stripPolicy.Sanitize(title)))
	summary = strings.TrimSpace(html.UnescapeString(stripPolicy.Sanitize(summary)))
	if summary == "" {
		summary = title
	}

	hash := md5.Sum([]byte(link + publishedAt.String()))

	return &News{
		ID:           hex.EncodeToString(hash[:]),
		Title:        title,
		Summary:      utils.Truncate(summary, summaryLength),
		URL:          link,
		PublishedAt:  publishedAt,
		Symbols:      lo.Uniq(symbols),
		ProviderName: provider,
	}, nil
}

// text is what the sentiment function reads: the summary when there is one, else the title.
func (n *News) text() string {
	if n.Summary != "" {
		return n.Summary
	}
	return n.Title
}

type NewsList []*News

// UniqueByTitle drops items whose exact title was already seen. The first occurrence wins.
func (nl NewsList) UniqueByTitle() NewsList {
	return lo.UniqBy(nl, func(n *News) string {
		return n.Title
	})
}

// SortByDate sorts the list by PublishedAt, newest first. Items with equal dates keep their order.
func (nl NewsList) SortByDate() NewsList {
	sort.SliceStable(nl, func(i, j int) bool {
		return nl[i].PublishedAt.After(nl[j].PublishedAt)
	})
	return nl
}

// Take returns at most n first items.
func (nl NewsList) Take(n int) NewsList {
	if n < 0 || len(nl) <= n {
		return nl
	}
	return nl[:n]
}

// Copy returns a shallow copy of the list, so the caller can reorder it freely.
func (nl NewsList) Copy() NewsList {
	if nl == nil {
		return NewsList{}
	}
	c := make(NewsList, len(nl))
	copy(c, nl)
	return c
}
