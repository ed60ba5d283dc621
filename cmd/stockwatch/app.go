package main

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/xinguang/stockwatch/pkg/config"
	"github.com/xinguang/stockwatch/pkg/feed"
	"github.com/xinguang/stockwatch/pkg/logger"
	"github.com/xinguang/stockwatch/pkg/refresh"
	"github.com/xinguang/stockwatch/pkg/storage"
	"github.com/xinguang/stockwatch/pkg/watchlist"
)

// app bundles the components one command needs
type app struct {
	cfg     *config.Config
	log     zerolog.Logger
	file    *storage.WatchlistFile
	store   *watchlist.Store
	service *refresh.Service

	closer io.Closer
}

// newApp loads configuration and the saved watchlist and wires the core.
// Logs go to stderr only when stderr is set; the dashboard owns the
// terminal and always logs to the file.
func newApp(stderr bool) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate().Err(); err != nil {
		return nil, err
	}

	a := &app{cfg: cfg}

	var out io.Writer = os.Stderr
	if !stderr {
		f, err := logger.OpenFile(cfg.Log.File)
		if err != nil {
			return nil, err
		}
		out = f
		a.closer = f
	}
	a.log = logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty, Output: out})
	logger.SetGlobalLogger(a.log)

	a.file = storage.NewWatchlistFile(cfg.Storage.Path, a.log)
	a.store = watchlist.NewFromQuotes(a.file.Load())

	client := feed.New(
		feed.WithBaseURL(cfg.Feed.BaseURL),
		feed.WithTimeout(cfg.Feed.Timeout),
		feed.WithCharset(cfg.Feed.Charset),
	)

	var opts []refresh.Option
	if cfg.Refresh.SingleFlight {
		opts = append(opts, refresh.WithSingleFlight())
	}
	a.service = refresh.New(a.store, client, a.log, opts...)

	return a, nil
}

func (a *app) Close() error {
	if a.closer != nil {
		return a.closer.Close()
	}
	return nil
}

// normalizeCodes splits every argument into codes and drops empties
func normalizeCodes(args []string) []string {
	var codes []string
	for _, arg := range args {
		codes = append(codes, watchlist.SplitCodes(arg)...)
	}
	return codes
}
