package broker

import "time"

// Quote is the latest price of a symbol as reported by one provider.
type Quote struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"change_percent"`
	Volume        int64     `json:"volume"`
	ObservedAt    time.Time `json:"observed_at"`
	Provider      string    `json:"provider"`
}

// NewQuote builds a Quote from the current price and the reference price it moved from
// (previous close or session open).
func NewQuote(symbol string, price, reference float64, volume int64, at time.Time, provider string) Quote {
	var change float64
	if reference > 0 {
		change = price - reference
	}

	return Quote{
		Symbol:        symbol,
		Price:         price,
		Change:        change,
		ChangePercent: PercentChange(price, reference),
		Volume:        max(volume, 0),
		ObservedAt:    at,
		Provider:      provider,
	}
}

// PercentChange returns (price-reference)/reference*100, or 0 when reference is not positive.
func PercentChange(price, reference float64) float64 {
	if reference <= 0 {
		return 0
	}
	return (price - reference) / reference * 100
}
