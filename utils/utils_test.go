package utils

import (
	"reflect"
	"testing"
	"time"
)

func Test_ParseDate(t *testing.T) {
	tests := []struct {
		name       string
		dateString Datable
		want       time.Time
		wantErr    bool
	}{
		{
			name:       "RFC1123 from rss",
			dateString: "Tue, 14 Nov 2023 18:04:28 GMT",
			want:       time.Date(2023, 11, 14, 18, 4, 28, 0, time.UTC),
		},
		{
			name:       "RFC3339 from newsapi",
			dateString: "2023-11-13T12:58:48Z",
			want:       time.Date(2023, 11, 13, 12, 58, 48, 0, time.UTC),
		},
		{
			name:       "RFC3339 without Z",
			dateString: "2023-11-13T12:58:48",
			want:       time.Date(2023, 11, 13, 12, 58, 48, 0, time.UTC),
		},
		{
			name:       "RFC1123Z",
			dateString: "Mon, 13 Nov 2023 23:00:00 -0000",
			want:       time.Date(2023, 11, 13, 23, 00, 00, 0, time.UTC),
		},
		{
			name:       "RFC 822 one digit day",
			dateString: "Tue, 8 Oct 2024 20:30:00 +0000",
			want:       time.Date(2024, 10, 8, 20, 30, 0, 0, time.UTC),
		},
		{
			name:       "RFC1123Z with a non zero offset",
			dateString: "Wed, 01 May 2024 22:30:00 +0200",
			want:       time.Date(2024, 5, 1, 20, 30, 0, 0, time.UTC),
		},
		{
			name:       "RFC 822 one digit day with zone name",
			dateString: "Tue, 8 Oct 2024 20:30:00 GMT",
			want:       time.Date(2024, 10, 8, 20, 30, 0, 0, time.UTC),
		},
		{
			name:       "already parsed by the feed parser",
			dateString: time.Date(2024, 10, 8, 22, 30, 0, 0, time.FixedZone("CEST", 2*60*60)),
			want:       time.Date(2024, 10, 8, 20, 30, 0, 0, time.UTC),
		},
		{
			name:       "nil time pointer",
			dateString: (*time.Time)(nil),
			want:       time.Time{},
		},
		{
			name:       "alphavantage compact",
			dateString: "20240105T133000",
			want:       time.Date(2024, 1, 5, 13, 30, 0, 0, time.UTC),
		},
		{
			name:       "finnhub unix seconds as int64",
			dateString: int64(1702450800),
			want:       time.Date(2023, 12, 13, 07, 00, 00, 0, time.UTC),
		},
		{
			name:       "unix milliseconds as int",
			dateString: 1702450800000,
			want:       time.Date(2023, 12, 13, 07, 00, 00, 0, time.UTC),
		},
		{
			name:       "json number",
			dateString: float64(1702450800),
			want:       time.Date(2023, 12, 13, 07, 00, 00, 0, time.UTC),
		},
		{
			name:       "nil",
			dateString: nil,
			want:       time.Time{},
		},
		{
			name:       "empty string",
			dateString: "",
			want:       time.Time{},
		},
		{
			name:       "garbage",
			dateString: "1234567890",
			want:       time.Time{},
			wantErr:    true,
		},
		{
			name:       "unsupported type",
			dateString: []byte("2023"),
			want:       time.Time{},
			wantErr:    true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.dateString)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseDate() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseDate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStrValueToFloat(t *testing.T) {
	tests := []struct {
		value string
		want  float64
	}{
		{value: "150.2500", want: 150.25},
		{value: "1,5", want: 1.5},
		{value: "1.3514%", want: 1.3514},
		{value: "-0.42%", want: -0.42},
		{value: "", want: 0},
		{value: "n/a", want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			if got := StrValueToFloat(tt.value); got != tt.want {
				t.Errorf("StrValueToFloat() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		s    string
		n    int
		want string
	}{
		{name: "short", s: "abc", n: 5, want: "abc"},
		{name: "exact", s: "abcde", n: 5, want: "abcde"},
		{name: "long", s: "abcdef", n: 5, want: "abcde..."},
		{name: "runes", s: "äöüßéè", n: 2, want: "äö..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.s, tt.n); got != tt.want {
				t.Errorf("Truncate() = %v, want %v", got, tt.want)
			}
		})
	}
}
