// Package watchlist holds the shared watchlist state read by the display and
// written by the refresh jobs.
//
// The symbol list, the last error, the last refresh time and the selection
// each sit behind their own lock. No method takes more than one of them, so a
// reader may see lastError cleared slightly before or after the symbols of the
// same refresh land. Each individual field is never torn.
package watchlist

import (
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/xinguang/stockwatch/pkg/stock"
)

// Store is the shared watchlist cell
type Store struct {
	symbolsMu sync.RWMutex
	symbols   []stock.Quote

	errMu   sync.RWMutex
	lastErr string

	refreshMu     sync.RWMutex
	lastRefreshAt time.Time

	selMu     sync.RWMutex
	selection int
	selected  bool
}

// New creates a store tracking the given codes in order
func New(codes ...string) *Store {
	s := &Store{symbols: make([]stock.Quote, 0, len(codes))}
	for _, code := range codes {
		if code == "" {
			continue
		}
		s.symbols = append(s.symbols, stock.NewQuote(code))
	}
	return s
}

// NewFromQuotes creates a store from already built quotes, e.g. a loaded file
func NewFromQuotes(quotes []stock.Quote) *Store {
	s := &Store{symbols: make([]stock.Quote, 0, len(quotes))}
	for _, q := range quotes {
		if q.Code == "" {
			continue
		}
		if q.Title == "" {
			q.Title = q.Code
		}
		s.symbols = append(s.symbols, q)
	}
	return s
}

// Add appends a fresh quote for code. Empty codes are ignored.
// Duplicates are not rejected here; callers that care check Contains first.
func (s *Store) Add(code string) {
	if code == "" {
		return
	}
	s.symbolsMu.Lock()
	defer s.symbolsMu.Unlock()

	s.symbols = append(s.symbols, stock.NewQuote(code))
}

// Remove deletes the first quote with the given code
func (s *Store) Remove(code string) bool {
	s.symbolsMu.Lock()
	defer s.symbolsMu.Unlock()

	for i, q := range s.symbols {
		if q.Code == code {
			s.symbols = append(s.symbols[:i], s.symbols[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveAt deletes the quote at index i
func (s *Store) RemoveAt(i int) bool {
	s.symbolsMu.Lock()
	defer s.symbolsMu.Unlock()

	if i < 0 || i >= len(s.symbols) {
		return false
	}
	s.symbols = append(s.symbols[:i], s.symbols[i+1:]...)
	return true
}

// Move swaps the quote at i with the one delta positions away.
// It returns the new index of the moved quote.
func (s *Store) Move(i, delta int) (int, bool) {
	s.symbolsMu.Lock()
	defer s.symbolsMu.Unlock()

	j := i + delta
	if i < 0 || i >= len(s.symbols) || j < 0 || j >= len(s.symbols) {
		return i, false
	}
	s.symbols[i], s.symbols[j] = s.symbols[j], s.symbols[i]
	return j, true
}

// Snapshot returns a copy of the tracked quotes
func (s *Store) Snapshot() []stock.Quote {
	s.symbolsMu.RLock()
	defer s.symbolsMu.RUnlock()

	result := make([]stock.Quote, len(s.symbols))
	copy(result, s.symbols)
	return result
}

// Len returns the number of tracked quotes
func (s *Store) Len() int {
	s.symbolsMu.RLock()
	defer s.symbolsMu.RUnlock()
	return len(s.symbols)
}

// Contains reports whether code is tracked
func (s *Store) Contains(code string) bool {
	s.symbolsMu.RLock()
	defer s.symbolsMu.RUnlock()

	for _, q := range s.symbols {
		if q.Code == code {
			return true
		}
	}
	return false
}

// Codes returns the tracked codes in insertion order
func (s *Store) Codes() []string {
	s.symbolsMu.RLock()
	defer s.symbolsMu.RUnlock()

	codes := make([]string, len(s.symbols))
	for i, q := range s.symbols {
		codes[i] = q.Code
	}
	return codes
}

// CodesJoined returns the codes joined by commas, or "" when empty
func (s *Store) CodesJoined() string {
	return strings.Join(s.Codes(), ",")
}

// SplitCodes splits user input on commas and whitespace and drops empties.
// A code never contains a comma since the feed request joins codes with one.
func SplitCodes(input string) []string {
	return strings.FieldsFunc(input, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
}

// Match returns the quotes whose code matches a glob pattern such as "60*"
func (s *Store) Match(pattern string) ([]stock.Quote, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, doublestar.ErrBadPattern
	}

	var result []stock.Quote
	for _, q := range s.Snapshot() {
		if ok, _ := doublestar.Match(pattern, q.Code); ok {
			result = append(result, q)
		}
	}
	return result, nil
}

// Merge applies upstream data keyed by code to the tracked quotes.
// Codes missing from data keep their current values. Fields missing from a
// present entry become 0, except the title which keeps its current value.
func (s *Store) Merge(data map[string]interface{}) int {
	s.symbolsMu.Lock()
	defer s.symbolsMu.Unlock()

	updated := 0
	for i := range s.symbols {
		raw, ok := data[s.symbols[i].Code]
		if !ok {
			continue
		}
		fields, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		mergeQuote(&s.symbols[i], fields)
		updated++
	}
	return updated
}

func mergeQuote(q *stock.Quote, fields map[string]interface{}) {
	if name, ok := fields["name"].(string); ok && name != "" {
		q.Title = name
	}
	q.Price = stock.ToFloat(fields["price"])
	q.Percent = stock.ToFloat(fields["percent"])
	q.Open = stock.ToFloat(fields["open"])
	q.YestClose = stock.ToFloat(fields["yestclose"])
	q.High = stock.ToFloat(fields["high"])
	q.Low = stock.ToFloat(fields["low"])
}

// SetError records a human readable error for display
func (s *Store) SetError(msg string) {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	s.lastErr = msg
}

// ClearError resets the error to "no error"
func (s *Store) ClearError() {
	s.SetError("")
}

// LastError returns the current error message, "" if none
func (s *Store) LastError() string {
	s.errMu.RLock()
	defer s.errMu.RUnlock()
	return s.lastErr
}

// MarkRefreshed records the time of a successful merge
func (s *Store) MarkRefreshed(t time.Time) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()
	s.lastRefreshAt = t
}

// LastRefreshAt returns the time of the most recent successful merge
func (s *Store) LastRefreshAt() time.Time {
	s.refreshMu.RLock()
	defer s.refreshMu.RUnlock()
	return s.lastRefreshAt
}

// Select sets the highlighted index. Negative values clear the selection.
func (s *Store) Select(i int) {
	s.selMu.Lock()
	defer s.selMu.Unlock()

	if i < 0 {
		s.selected = false
		s.selection = 0
		return
	}
	s.selection = i
	s.selected = true
}

// ClearSelection removes the highlight
func (s *Store) ClearSelection() {
	s.Select(-1)
}

// Selection returns the highlighted index. It reports false when nothing is
// selected or when the index is past the end of the list.
func (s *Store) Selection() (int, bool) {
	s.selMu.RLock()
	i, ok := s.selection, s.selected
	s.selMu.RUnlock()

	if !ok || i >= s.Len() {
		return 0, false
	}
	return i, true
}
