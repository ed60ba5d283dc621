// Package stock holds the quote model shared by the watchlist, refresh and UI layers
package stock

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Quote represents the latest known data for one tracked symbol
type Quote struct {
	Code      string  // symbol code, the join key
	Title     string  // display name
	Price     float64 // current price
	Percent   float64 // change ratio, 0.012 means +1.2%
	Open      float64 // today's open
	YestClose float64 // previous close
	High      float64 // session high
	Low       float64 // session low
}

// NewQuote creates a quote with only the code set
func NewQuote(code string) Quote {
	return Quote{Code: code, Title: code}
}

// PercentDisplay formats Percent as a signed percentage, e.g. "+1.20%"
func (q Quote) PercentDisplay() string {
	return fmt.Sprintf("%+.2f%%", q.Percent*100)
}

// Rising reports whether the quote is flat or up
func (q Quote) Rising() bool {
	return q.Percent >= 0
}

// Mode governs what free-text input means in the foreground
type Mode int

const (
	ModeNormal Mode = iota
	ModeAdding
)

func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "normal"
	case ModeAdding:
		return "adding"
	default:
		return "unknown"
	}
}

// Finite returns v, or 0 when v is NaN or infinite
func Finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// ToFloat converts an untyped JSON value to a finite float64.
// Numbers and numeric strings are accepted; anything else yields 0.
func ToFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return Finite(n)
	case float32:
		return Finite(float64(n))
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0
		}
		return Finite(f)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		return Finite(f)
	default:
		return 0
	}
}
