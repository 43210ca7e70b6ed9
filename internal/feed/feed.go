// Package feed maintains the demo application's event snapshot: ICS
// sources fetched, parsed and expanded into occurrences on a cron
// schedule. Each refresh publishes a new immutable snapshot with a bumped
// revision, which downstream page caches use as their invalidation key.
package feed

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"bigcal/internal/config"
	"bigcal/internal/ics"
	appLog "bigcal/internal/log"
	"bigcal/internal/model"
)

// Loader produces the occurrences for one refresh window. It exists as a
// seam so tests can drive the service without network access.
type Loader func(ctx context.Context, rangeStart, rangeEnd time.Time) ([]model.Occurrence, error)

// Service owns the current snapshot and its refresh schedule.
type Service struct {
	cfg    *config.Config
	loader Loader
	cron   *cron.Cron

	mu       sync.RWMutex
	events   []model.Occurrence
	revision uint64
}

// NewService builds a Service for the configured ICS sources, caching
// feed bodies under cacheDir.
func NewService(cfg *config.Config, cacheDir string) *Service {
	fetcher := ics.NewFetcher(cacheDir)
	s := &Service{cfg: cfg}
	s.loader = func(ctx context.Context, rangeStart, rangeEnd time.Time) ([]model.Occurrence, error) {
		return loadFromICS(ctx, cfg, fetcher, rangeStart, rangeEnd)
	}
	return s
}

// NewServiceWithLoader builds a Service around a custom Loader.
func NewServiceWithLoader(cfg *config.Config, loader Loader) *Service {
	return &Service{cfg: cfg, loader: loader}
}

// Snapshot returns the current immutable occurrence list and its revision.
// Callers must not modify the returned slice.
func (s *Service) Snapshot() ([]model.Occurrence, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.events, s.revision
}

// Refresh loads occurrences for the configured horizon window around now
// and publishes them as a new snapshot.
func (s *Service) Refresh(ctx context.Context) error {
	loc := s.cfg.Location()
	now := time.Now().In(loc)
	rangeStart := now.AddDate(-s.cfg.HorizonYears, 0, 0)
	rangeEnd := now.AddDate(s.cfg.HorizonYears, 0, 0)

	events, err := s.loader(ctx, rangeStart, rangeEnd)
	if err != nil {
		return err
	}

	// Stable order keeps snapshot-order tie-breaks deterministic across
	// refreshes of unchanged feeds.
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Start.Equal(events[j].Start) {
			return events[i].Start.Before(events[j].Start)
		}
		return events[i].InstanceKey < events[j].InstanceKey
	})

	s.mu.Lock()
	s.events = events
	s.revision++
	rev := s.revision
	s.mu.Unlock()

	appLog.Info("feed refreshed", "occurrences", len(events), "revision", rev)
	return nil
}

// Start schedules periodic refreshes per the configured cron expression
// and performs one immediate refresh. Stop with Stop.
func (s *Service) Start(ctx context.Context) error {
	if err := s.Refresh(ctx); err != nil {
		appLog.Error("initial feed refresh failed", err)
	}

	s.cron = cron.New()
	_, err := s.cron.AddFunc(s.cfg.RefreshCron, func() {
		refreshCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := s.Refresh(refreshCtx); err != nil {
			appLog.Error("scheduled feed refresh failed", err)
		}
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	appLog.Info("feed refresh scheduled", "cron", s.cfg.RefreshCron)
	return nil
}

// Stop halts the refresh schedule, waiting for a running job to finish.
func (s *Service) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

func loadFromICS(ctx context.Context, cfg *config.Config, fetcher *ics.Fetcher, rangeStart, rangeEnd time.Time) ([]model.Occurrence, error) {
	sources := make([]ics.Source, 0, len(cfg.ICS))
	for _, c := range cfg.ICS {
		if c.URL == "" {
			continue
		}
		id := c.ID
		if id == "" {
			if c.Name != "" {
				id = c.Name
			} else {
				id = c.URL
			}
		}
		sources = append(sources, ics.Source{ID: id, URL: c.URL})
	}
	if len(sources) == 0 {
		return nil, nil
	}

	results, errs := fetcher.FetchAll(ctx, sources)
	for _, err := range errs {
		appLog.Error("feed source fetch failed", err)
	}

	var parsed []ics.ParsedEvent
	for _, res := range results {
		events, err := ics.ParseICS(res.Source, res.Body)
		if err != nil {
			continue
		}
		parsed = append(parsed, events...)
	}

	expanded, err := ics.ExpandOccurrences(parsed, ics.ExpandConfig{
		DisplayLocation: cfg.Location(),
		RangeStart:      rangeStart,
		RangeEnd:        rangeEnd,
	})
	if err != nil {
		return nil, err
	}
	return expanded.Occurrences, nil
}
