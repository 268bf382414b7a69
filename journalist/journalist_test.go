package journalist

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	name  string
	news  []*News
	err   error
	panic bool
	delay time.Duration
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Fetch(ctx context.Context, _ string) ([]*News, error) {
	if s.panic {
		panic("boom")
	}
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.news, s.err
}

type fetchRecord struct {
	provider string
	items    int
	err      error
}

type recordingObserver struct {
	mu      sync.Mutex
	records []fetchRecord
}

func (o *recordingObserver) ObserveNewsFetch(provider string, items int, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.records = append(o.records, fetchRecord{provider, items, err})
}

var base = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func item(title string, age time.Duration, provider string) *News {
	return &News{
		ID:           title,
		Title:        title,
		Summary:      title,
		URL:          "https://example.com/" + title,
		PublishedAt:  base.Add(-age),
		ProviderName: provider,
	}
}

func titles(list NewsList) []string {
	out := make([]string, len(list))
	for i, n := range list {
		out[i] = n.Title
	}
	return out
}

func TestJournalist_GetLatestNews(t *testing.T) {
	tests := []struct {
		name       string
		providers  []NewsProvider
		wantTitles []string
	}{
		{
			name: "duplicate titles keep the first provider",
			providers: []NewsProvider{
				&stubProvider{name: "p1", news: []*News{item("A", time.Hour, "p1")}},
				&stubProvider{name: "p2", news: []*News{item("B", 2*time.Hour, "p2"), item("A", 0, "p2")}},
			},
			wantTitles: []string{"A", "B"},
		},
		{
			name: "at most three per provider and five overall, newest first",
			providers: []NewsProvider{
				&stubProvider{name: "p1", news: []*News{
					item("p1-1", 1*time.Hour, "p1"),
					item("p1-2", 2*time.Hour, "p1"),
					item("p1-3", 3*time.Hour, "p1"),
					item("p1-4", 0, "p1"),
				}},
				&stubProvider{name: "p2", news: []*News{
					item("p2-1", 90*time.Minute, "p2"),
					item("p2-2", 150*time.Minute, "p2"),
					item("p2-3", 4*time.Hour, "p2"),
				}},
			},
			wantTitles: []string{"p1-1", "p2-1", "p1-2", "p2-2", "p1-3"},
		},
		{
			name: "failing providers are ignored",
			providers: []NewsProvider{
				&stubProvider{name: "broken", err: errors.New("503")},
				&stubProvider{name: "panics", panic: true},
				&stubProvider{name: "ok", news: []*News{item("C", 0, "ok")}},
			},
			wantTitles: []string{"C"},
		},
		{
			name: "no news",
			providers: []NewsProvider{
				&stubProvider{name: "broken", err: errors.New("503")},
			},
			wantTitles: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j := NewJournalist("test", tt.providers)

			got := j.GetLatestNews(context.Background(), "AAPL")

			require.NotNil(t, got)
			assert.Equal(t, tt.wantTitles, titles(got))
			assert.LessOrEqual(t, len(got), DefaultLimit)
			for i := 1; i < len(got); i++ {
				assert.False(t, got[i].PublishedAt.After(got[i-1].PublishedAt), "news must be sorted newest first")
			}
		})
	}
}

func TestJournalist_GetLatestNews_firstOccurrenceKept(t *testing.T) {
	first := item("A", time.Hour, "p1")
	j := NewJournalist("test", []NewsProvider{
		&stubProvider{name: "p1", news: []*News{first, item("B", 2*time.Hour, "p1")}},
		&stubProvider{name: "p2", news: []*News{item("A", 0, "p2")}},
	})

	got := j.GetLatestNews(context.Background(), "AAPL")

	require.Len(t, got, 2)
	assert.Same(t, first, got[0])
	assert.Equal(t, "p1", got[0].ProviderName)
}

func TestJournalist_GetLatestNews_sentiment(t *testing.T) {
	var scored []string
	var mu sync.Mutex
	j := NewJournalist("test", []NewsProvider{
		&stubProvider{name: "p1", news: []*News{item("good", 0, "p1"), item("bad", time.Hour, "p1")}},
	}).WithSentiment(func(text string) float64 {
		mu.Lock()
		defer mu.Unlock()
		scored = append(scored, text)
		if text == "good" {
			return 0.8
		}
		return -0.5
	})

	got := j.GetLatestNews(context.Background(), "AAPL")

	require.Len(t, got, 2)
	assert.Equal(t, 0.8, got[0].Sentiment)
	assert.Equal(t, -0.5, got[1].Sentiment)
	assert.ElementsMatch(t, []string{"good", "bad"}, scored)
}

func TestJournalist_GetLatestNews_timeout(t *testing.T) {
	j := NewJournalist("test", []NewsProvider{
		&stubProvider{name: "slow", delay: time.Second, news: []*News{item("late", 0, "slow")}},
		&stubProvider{name: "fast", news: []*News{item("early", 0, "fast")}},
	}).WithTimeout(20 * time.Millisecond)

	start := time.Now()
	got := j.GetLatestNews(context.Background(), "AAPL")

	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, []string{"early"}, titles(got))
}

func TestJournalist_GetLatestNews_observer(t *testing.T) {
	obs := &recordingObserver{}
	j := NewJournalist("test", []NewsProvider{
		&stubProvider{name: "ok", news: []*News{item("A", 0, "ok"), item("B", 0, "ok")}},
		&stubProvider{name: "panics", panic: true},
	}).WithObserver(obs)

	j.GetLatestNews(context.Background(), "AAPL")

	require.Len(t, obs.records, 2)
	byName := map[string]fetchRecord{}
	for _, r := range obs.records {
		byName[r.provider] = r
	}
	assert.Equal(t, 2, byName["ok"].items)
	assert.NoError(t, byName["ok"].err)
	assert.ErrorIs(t, byName["panics"].err, errPanicFetch)
}

func TestJournalist_Limit(t *testing.T) {
	var news []*News
	for i := 0; i < 10; i++ {
		news = append(news, item(fmt.Sprintf("n%d", i), time.Duration(i)*time.Minute, "p"))
	}
	j := NewJournalist("test", []NewsProvider{&stubProvider{name: "p", news: news}}).
		PerProvider(10).
		Limit(7)

	assert.Len(t, j.GetLatestNews(context.Background(), "AAPL"), 7)
}

func TestDefaultProviders(t *testing.T) {
	tests := []struct {
		name string
		keys Keys
		want []string
	}{
		{
			name: "no keys",
			want: []string{"yahoo:rss"},
		},
		{
			name: "all keys",
			keys: Keys{NewsAPI: "a", Finnhub: "b", AlphaVantage: "c"},
			want: []string{"yahoo:rss", "newsapi", "finnhub", "alphavantage"},
		},
		{
			name: "finnhub only",
			keys: Keys{Finnhub: "b"},
			want: []string{"yahoo:rss", "finnhub"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			providers := DefaultProviders(http.DefaultClient, tt.keys, nil)
			names := make([]string, len(providers))
			for i, p := range providers {
				names[i] = p.Name()
			}
			assert.Equal(t, tt.want, names)
		})
	}
}
