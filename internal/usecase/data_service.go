package usecase

import (
	"context"
	"fmt"
	"time"

	crerr "github.com/cockroachdb/errors"

	"github.com/riskibarqy/fpl-pulse/internal/domain/fpl"
	"github.com/riskibarqy/fpl-pulse/internal/domain/rolling"
	"github.com/riskibarqy/fpl-pulse/internal/platform/filecache"
	"github.com/riskibarqy/fpl-pulse/internal/platform/logging"
	"github.com/riskibarqy/fpl-pulse/internal/platform/resilience"
)

// RemoteClient pulls entity data from the upstream fantasy API.
type RemoteClient interface {
	FetchBootstrap(ctx context.Context) (fpl.Bootstrap, error)
	FetchPlayerHistory(ctx context.Context, playerID int64) (fpl.PlayerHistory, error)
	FetchTeamPicks(ctx context.Context, teamID int64, gameweek int) (fpl.TeamPicks, error)
	FetchFixtures(ctx context.Context) ([]fpl.Fixture, error)
}

// CacheTTLs bounds how long each cached entity stays fresh on disk.
type CacheTTLs struct {
	Bootstrap     time.Duration
	PlayerHistory time.Duration
	Fixtures      time.Duration
	TeamPicks     time.Duration
	Results       time.Duration
}

// DefaultCacheTTLs returns the freshness windows used when config leaves them unset.
func DefaultCacheTTLs() CacheTTLs {
	return CacheTTLs{
		Bootstrap:     6 * time.Hour,
		PlayerHistory: 24 * time.Hour,
		Fixtures:      12 * time.Hour,
		TeamPicks:     2 * time.Hour,
		Results:       6 * time.Hour,
	}
}

const (
	cacheKeyBootstrap = "bootstrap"
	cacheKeyFixtures  = "fixtures"
)

func cacheKeyPlayer(playerID int64) string          { return fmt.Sprintf("player_%d", playerID) }
func cacheKeyTeamPicks(teamID int64, gw int) string { return fmt.Sprintf("team_%d_%d", teamID, gw) }
func cacheKeyResults(weeks int) string              { return fmt.Sprintf("results_%dwk", weeks) }

// DataService fronts the remote client with the disk cache. Reads serve fresh
// cache hits directly, collapse concurrent fetches for the same key, and fall
// back to stale cache entries when the upstream is unreachable.
type DataService struct {
	client RemoteClient
	cache  *filecache.Store
	ttls   CacheTTLs
	flight *resilience.SingleFlight
	logger *logging.Logger
}

func NewDataService(client RemoteClient, cache *filecache.Store, ttls CacheTTLs, logger *logging.Logger) *DataService {
	if logger == nil {
		logger = logging.Default()
	}
	return &DataService{
		client: client,
		cache:  cache,
		ttls:   ttls,
		flight: &resilience.SingleFlight{},
		logger: logger,
	}
}

type fetched[T any] struct {
	value T
	stale bool
}

// loadOrFetch serves key from cache while fresh, otherwise fetches and
// rewrites the entry. A fetch failure with a stale entry on disk degrades to
// the stale copy instead of erroring.
func loadOrFetch[T any](ctx context.Context, s *DataService, key string, maxAge time.Duration, fetch func(context.Context) (T, error)) (T, bool, error) {
	var cached T
	if s.cache.IsValid(key, maxAge) && s.cache.Load(key, &cached) {
		return cached, false, nil
	}

	res, err, _ := s.flight.Do(key, func() (any, error) {
		// Another caller may have refreshed the entry while we waited.
		var again T
		if s.cache.IsValid(key, maxAge) && s.cache.Load(key, &again) {
			return fetched[T]{value: again}, nil
		}

		value, fetchErr := fetch(ctx)
		if fetchErr != nil {
			var stale T
			if s.cache.Load(key, &stale) {
				s.logger.WarnContext(ctx, "using stale cached data as fallback",
					"cache_key", key,
					"error", fetchErr,
				)
				return fetched[T]{value: stale, stale: true}, nil
			}
			return nil, fetchErr
		}

		if saveErr := s.cache.Save(key, value); saveErr != nil {
			s.logger.WarnContext(ctx, "failed to persist cache entry",
				"cache_key", key,
				"error", saveErr,
			)
		}
		return fetched[T]{value: value}, nil
	})
	if err != nil {
		var zero T
		return zero, false, err
	}
	out := res.(fetched[T])
	return out.value, out.stale, nil
}

// Bootstrap returns the season-wide player, team, and event snapshot.
func (s *DataService) Bootstrap(ctx context.Context) (fpl.Bootstrap, bool, error) {
	ctx, span := startUsecaseSpan(ctx, "DataService.Bootstrap")
	defer span.End()

	return loadOrFetch(ctx, s, cacheKeyBootstrap, s.ttls.Bootstrap, s.client.FetchBootstrap)
}

// PlayerHistory returns a single player's per-gameweek history.
func (s *DataService) PlayerHistory(ctx context.Context, playerID int64) (fpl.PlayerHistory, bool, error) {
	if playerID <= 0 {
		return fpl.PlayerHistory{}, false, crerr.Wrapf(ErrInvalidInput, "player id %d", playerID)
	}
	return loadOrFetch(ctx, s, cacheKeyPlayer(playerID), s.ttls.PlayerHistory, func(ctx context.Context) (fpl.PlayerHistory, error) {
		return s.client.FetchPlayerHistory(ctx, playerID)
	})
}

// Fixtures returns the season fixture list.
func (s *DataService) Fixtures(ctx context.Context) ([]fpl.Fixture, bool, error) {
	ctx, span := startUsecaseSpan(ctx, "DataService.Fixtures")
	defer span.End()

	return loadOrFetch(ctx, s, cacheKeyFixtures, s.ttls.Fixtures, s.client.FetchFixtures)
}

// TeamPicks returns an entry's squad selection for a gameweek. A zero gameweek
// resolves to the current one from bootstrap.
func (s *DataService) TeamPicks(ctx context.Context, teamID int64, gameweek int) (fpl.TeamPicks, bool, error) {
	ctx, span := startUsecaseSpan(ctx, "DataService.TeamPicks")
	defer span.End()

	if teamID <= 0 {
		return fpl.TeamPicks{}, false, crerr.Wrapf(ErrInvalidInput, "team id %d", teamID)
	}
	var resolvedStale bool
	if gameweek == 0 {
		resolved, stale, err := s.CurrentGameweek(ctx)
		if err != nil {
			return fpl.TeamPicks{}, false, err
		}
		gameweek = resolved
		resolvedStale = stale
	}
	if gameweek < 0 {
		return fpl.TeamPicks{}, false, crerr.Wrapf(ErrInvalidInput, "gameweek %d", gameweek)
	}
	gw := gameweek
	picks, stale, err := loadOrFetch(ctx, s, cacheKeyTeamPicks(teamID, gw), s.ttls.TeamPicks, func(ctx context.Context) (fpl.TeamPicks, error) {
		return s.client.FetchTeamPicks(ctx, teamID, gw)
	})
	return picks, stale || resolvedStale, err
}

// CurrentGameweek resolves the active gameweek from the cached bootstrap.
func (s *DataService) CurrentGameweek(ctx context.Context) (int, bool, error) {
	boot, stale, err := s.Bootstrap(ctx)
	if err != nil {
		return 0, false, err
	}
	gw, ok := boot.CurrentGameweek()
	if !ok {
		return 0, stale, ErrNoCurrentGameweek
	}
	return gw, stale, nil
}

// CachedResults returns a previously computed rolling table for the given
// window if a fresh copy is on disk.
func (s *DataService) CachedResults(weeks int) (rolling.Table, bool) {
	key := cacheKeyResults(weeks)
	if !s.cache.IsValid(key, s.ttls.Results) {
		return rolling.Table{}, false
	}
	var table rolling.Table
	if !s.cache.Load(key, &table) {
		return rolling.Table{}, false
	}
	return table, true
}

// SaveResults persists a computed rolling table under its window key.
func (s *DataService) SaveResults(ctx context.Context, table rolling.Table) {
	key := cacheKeyResults(table.Weeks)
	if err := s.cache.Save(key, table); err != nil {
		s.logger.WarnContext(ctx, "failed to persist computed results",
			"cache_key", key,
			"error", err,
		)
	}
}

// ClearCache removes every cached entry.
func (s *DataService) ClearCache(ctx context.Context) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "DataService.ClearCache")
	defer span.End()

	count := s.cache.Count()
	if err := s.cache.Clear(); err != nil {
		return 0, err
	}
	s.logger.InfoContext(ctx, "cache cleared", "entries_removed", count)
	return count, nil
}

// CacheEntryCount reports how many entries are currently on disk.
func (s *DataService) CacheEntryCount() int {
	return s.cache.Count()
}
