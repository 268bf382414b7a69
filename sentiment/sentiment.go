// Package sentiment scores headline polarity with a small finance word list.
package sentiment

import (
	"strings"
	"unicode"
)

// Func scores text in [-1, 1]. Implementations must be pure: no network, no state.
type Func func(text string) float64

type Label string

const (
	Positive Label = "Positive"
	Neutral  Label = "Neutral"
	Negative Label = "Negative"
)

// LabelThreshold is the absolute score above which a text stops being Neutral.
const LabelThreshold = 0.2

var positive = map[string]struct{}{
	"beat": {}, "beats": {}, "bullish": {}, "gain": {}, "gains": {}, "growth": {}, "high": {},
	"higher": {}, "jump": {}, "jumps": {}, "outperform": {}, "profit": {}, "rally": {}, "rallies": {},
	"record": {}, "rise": {}, "rises": {}, "soar": {}, "soars": {}, "strong": {}, "surge": {},
	"surges": {}, "upgrade": {}, "upgraded": {}, "win": {}, "wins": {}, "boost": {}, "good": {},
	"great": {}, "positive": {}, "optimistic": {}, "buy": {},
}

var negative = map[string]struct{}{
	"bearish": {}, "crash": {}, "cut": {}, "cuts": {}, "decline": {}, "declines": {}, "drop": {},
	"drops": {}, "fall": {}, "falls": {}, "fear": {}, "fraud": {}, "lawsuit": {}, "loss": {},
	"losses": {}, "low": {}, "lower": {}, "miss": {}, "misses": {}, "plunge": {}, "plunges": {},
	"probe": {}, "recall": {}, "sell": {}, "slump": {}, "slumps": {}, "weak": {}, "downgrade": {},
	"downgraded": {}, "bad": {}, "negative": {}, "layoffs": {}, "tumble": {}, "tumbles": {},
}

var negations = map[string]struct{}{
	"not": {}, "no": {}, "never": {}, "without": {},
}

// Score is the default Func. Each matched word counts +1 or -1, a negation directly before a word
// flips it, and the sum is normalised by the number of matches.
func Score(text string) float64 {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})

	var sum, matched float64
	for i, w := range words {
		var v float64
		if _, ok := positive[w]; ok {
			v = 1
		} else if _, ok := negative[w]; ok {
			v = -1
		} else {
			continue
		}
		if i > 0 {
			if _, ok := negations[words[i-1]]; ok {
				v = -v
			}
		}
		sum += v
		matched++
	}

	if matched == 0 {
		return 0
	}
	return sum / matched
}

// LabelOf maps a score to a label using LabelThreshold.
func LabelOf(score float64) Label {
	switch {
	case score > LabelThreshold:
		return Positive
	case score < -LabelThreshold:
		return Negative
	default:
		return Neutral
	}
}
