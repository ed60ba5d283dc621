// Package refresh runs the background fetch, parse and merge pipeline that
// keeps the watchlist quotes current.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/xinguang/stockwatch/pkg/feed"
	"github.com/xinguang/stockwatch/pkg/watchlist"
)

// ServerErrorMessage is shown when the upstream body is not a wrapped payload
const ServerErrorMessage = "server error"

// ErrInFlight is returned by Refresh when single-flight mode rejects a call
var ErrInFlight = errors.New("refresh already in progress")

// Fetcher returns upstream quote data keyed by code
type Fetcher interface {
	Quotes(ctx context.Context, codes string) (map[string]interface{}, error)
}

// Service spawns refresh jobs against a watchlist store
type Service struct {
	store   *watchlist.Store
	fetcher Fetcher
	log     zerolog.Logger
	now     func() time.Time

	// guard is nil unless single-flight mode is on
	guard flightGuard

	wg       sync.WaitGroup
	inFlight atomic.Int32
}

// Option configures a Service
type Option func(*Service)

// WithSingleFlight ignores refresh requests while a job is outstanding.
// Without it every request spawns its own job, and a slow job finishing
// after a newer one can overwrite fresher values.
func WithSingleFlight() Option {
	return func(s *Service) {
		s.guard = newFlightGuard()
	}
}

// WithClock overrides time.Now for the refresh timestamp
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New creates a refresh service
func New(store *watchlist.Store, fetcher Fetcher, log zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		store:   store,
		fetcher: fetcher,
		log:     log.With().Str("component", "refresh").Logger(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RequestRefresh starts a background refresh and returns immediately.
// It reports whether a job was started: nothing is fetched when the
// watchlist is empty, or in single-flight mode while a job is running.
func (s *Service) RequestRefresh() bool {
	codes := s.store.CodesJoined()
	if codes == "" {
		return false
	}
	if s.guard != nil && !s.guard.enter() {
		s.log.Debug().Msg("Refresh in flight, request ignored")
		return false
	}

	s.wg.Add(1)
	s.inFlight.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.inFlight.Add(-1)
		if s.guard != nil {
			defer s.guard.leave()
		}
		_ = s.run(context.Background(), codes)
	}()
	return true
}

// Refresh runs one refresh synchronously and returns its error, if any.
// The error is also recorded in the store like a background job would.
func (s *Service) Refresh(ctx context.Context) error {
	codes := s.store.CodesJoined()
	if codes == "" {
		return nil
	}
	if s.guard != nil {
		if !s.guard.enter() {
			return ErrInFlight
		}
		defer s.guard.leave()
	}

	s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	return s.run(ctx, codes)
}

// Wait blocks until every background job started so far has finished
func (s *Service) Wait() {
	s.wg.Wait()
}

// InFlight returns the number of refresh jobs currently running
func (s *Service) InFlight() int {
	return int(s.inFlight.Load())
}

func (s *Service) run(ctx context.Context, codes string) error {
	start := time.Now()

	data, err := s.fetcher.Quotes(ctx, codes)
	if err != nil {
		s.store.SetError(errorMessage(err))
		s.log.Warn().Err(err).Str("codes", codes).Msg("Refresh failed")
		return err
	}

	updated := s.store.Merge(data)
	s.store.ClearError()
	s.store.MarkRefreshed(s.now())

	s.log.Debug().
		Str("codes", codes).
		Int("updated", updated).
		Dur("took", time.Since(start)).
		Msg("Refresh merged")
	return nil
}

// errorMessage turns a pipeline error into the text shown in the title bar
func errorMessage(err error) string {
	var te *feed.TransportError
	switch {
	case errors.Is(err, feed.ErrUpstreamFormat):
		return ServerErrorMessage
	case errors.As(err, &te):
		return fmt.Sprintf("network error: %v", te.Err)
	default:
		return err.Error()
	}
}
