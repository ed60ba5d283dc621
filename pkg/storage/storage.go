// Package storage persists the watchlist's symbol codes
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	"github.com/xinguang/stockwatch/pkg/stock"
)

// document is the on-disk shape. Only codes are written.
type document struct {
	Stocks []entry `json:"stocks"`
}

type entry struct {
	Code string `json:"code"`
}

// WatchlistFile reads and writes the saved watchlist
type WatchlistFile struct {
	path string
	mu   sync.Mutex
	log  zerolog.Logger
}

// NewWatchlistFile creates a watchlist file handle for path
func NewWatchlistFile(path string, log zerolog.Logger) *WatchlistFile {
	return &WatchlistFile{
		path: path,
		log:  log.With().Str("component", "storage").Logger(),
	}
}

// Path returns the file location
func (f *WatchlistFile) Path() string {
	return f.path
}

// Save writes codes to disk, replacing the previous file atomically
func (f *WatchlistFile) Save(codes []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc := document{Stocks: make([]entry, 0, len(codes))}
	for _, code := range codes {
		doc.Stocks = append(doc.Stocks, entry{Code: code})
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode watchlist: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Write to temp file first, then rename (atomic)
	tmpPath := f.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write watchlist: %w", err)
	}
	if err := os.Rename(tmpPath, f.path); err != nil {
		return fmt.Errorf("failed to replace watchlist: %w", err)
	}

	f.log.Debug().Int("count", len(codes)).Str("path", f.path).Msg("Watchlist saved")
	return nil
}

// Load reads the saved watchlist. A missing, empty or unreadable file, or one
// with an unexpected shape, yields an empty list.
func (f *WatchlistFile) Load() []stock.Quote {
	f.mu.Lock()
	data, err := os.ReadFile(f.path)
	f.mu.Unlock()

	if err != nil {
		if !os.IsNotExist(err) {
			f.log.Debug().Err(err).Str("path", f.path).Msg("Watchlist unreadable, starting empty")
		}
		return []stock.Quote{}
	}

	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		f.log.Debug().Err(err).Str("path", f.path).Msg("Watchlist malformed, starting empty")
		return []stock.Quote{}
	}

	return quotesFrom(raw)
}

// Codes returns the saved codes in order
func (f *WatchlistFile) Codes() []string {
	quotes := f.Load()
	codes := make([]string, len(quotes))
	for i, q := range quotes {
		codes[i] = q.Code
	}
	return codes
}

// quotesFrom plucks stocks[].code out of a generic document
func quotesFrom(raw interface{}) []stock.Quote {
	quotes := []stock.Quote{}

	root, ok := raw.(map[string]interface{})
	if !ok {
		return quotes
	}
	list, ok := root["stocks"].([]interface{})
	if !ok {
		return quotes
	}

	for _, item := range list {
		fields, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		code, ok := fields["code"].(string)
		if !ok || code == "" {
			continue
		}
		quotes = append(quotes, stock.NewQuote(code))
	}
	return quotes
}
