package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/fpl-pulse/internal/domain/fpl"
	"github.com/riskibarqy/fpl-pulse/internal/domain/rolling"
	"github.com/riskibarqy/fpl-pulse/internal/platform/filecache"
	"github.com/riskibarqy/fpl-pulse/internal/platform/logging"
)

type fakeClient struct {
	bootstrap      fpl.Bootstrap
	bootstrapErr   error
	bootstrapCalls atomic.Int64

	histories     map[int64]fpl.PlayerHistory
	historyErr    error
	historyErrFor map[int64]error

	picks    map[int64]fpl.TeamPicks
	picksErr error

	fixtures    []fpl.Fixture
	fixturesErr error
}

func (f *fakeClient) FetchBootstrap(ctx context.Context) (fpl.Bootstrap, error) {
	f.bootstrapCalls.Add(1)
	if f.bootstrapErr != nil {
		return fpl.Bootstrap{}, f.bootstrapErr
	}
	return f.bootstrap, nil
}

func (f *fakeClient) FetchPlayerHistory(ctx context.Context, playerID int64) (fpl.PlayerHistory, error) {
	if f.historyErr != nil {
		return fpl.PlayerHistory{}, f.historyErr
	}
	if err, ok := f.historyErrFor[playerID]; ok {
		return fpl.PlayerHistory{}, err
	}
	return f.histories[playerID], nil
}

func (f *fakeClient) FetchTeamPicks(ctx context.Context, teamID int64, gameweek int) (fpl.TeamPicks, error) {
	if f.picksErr != nil {
		return fpl.TeamPicks{}, f.picksErr
	}
	return f.picks[teamID], nil
}

func (f *fakeClient) FetchFixtures(ctx context.Context) ([]fpl.Fixture, error) {
	if f.fixturesErr != nil {
		return nil, f.fixturesErr
	}
	return f.fixtures, nil
}

func newTestDataService(t *testing.T, client RemoteClient) (*DataService, *filecache.Store) {
	t.Helper()
	store, err := filecache.NewStore(t.TempDir(), logging.NewNop())
	require.NoError(t, err)
	return NewDataService(client, store, DefaultCacheTTLs(), logging.NewNop()), store
}

func sampleBootstrap() fpl.Bootstrap {
	return fpl.Bootstrap{
		Players: []fpl.Player{
			{ID: 10, Name: "Saka", TeamID: 1, Position: fpl.PositionMidfielder, Cost: 10.1},
		},
		Teams: []fpl.Team{{ID: 1, Name: "Arsenal", ShortName: "ARS"}},
		Events: []fpl.Event{
			{ID: 11, Name: "Gameweek 11", Finished: true},
			{ID: 12, Name: "Gameweek 12", IsCurrent: true},
		},
	}
}

func TestDataService_BootstrapServesFreshCacheWithoutRefetch(t *testing.T) {
	t.Parallel()

	client := &fakeClient{bootstrap: sampleBootstrap()}
	svc, _ := newTestDataService(t, client)
	ctx := context.Background()

	first, stale, err := svc.Bootstrap(ctx)
	require.NoError(t, err)
	assert.False(t, stale)
	assert.Len(t, first.Players, 1)

	second, stale, err := svc.Bootstrap(ctx)
	require.NoError(t, err)
	assert.False(t, stale)
	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), client.bootstrapCalls.Load())
}

func TestDataService_BootstrapFallsBackToStaleCacheOnFetchFailure(t *testing.T) {
	t.Parallel()

	client := &fakeClient{bootstrap: sampleBootstrap()}
	svc, store := newTestDataService(t, client)
	ctx := context.Background()

	_, _, err := svc.Bootstrap(ctx)
	require.NoError(t, err)

	// Age the entry past its freshness window, then break the upstream.
	expired := time.Now().Add(-7 * time.Hour)
	require.NoError(t, backdateEntry(store, cacheKeyBootstrap, expired))
	client.bootstrapErr = errors.New("connection refused")

	boot, stale, err := svc.Bootstrap(ctx)
	require.NoError(t, err)
	assert.True(t, stale)
	assert.Len(t, boot.Players, 1)
}

func TestDataService_BootstrapErrorsWhenNoCacheExists(t *testing.T) {
	t.Parallel()

	fetchErr := errors.New("connection refused")
	client := &fakeClient{bootstrapErr: fetchErr}
	svc, _ := newTestDataService(t, client)

	_, _, err := svc.Bootstrap(context.Background())
	require.ErrorIs(t, err, fetchErr)
}

func TestDataService_CurrentGameweek(t *testing.T) {
	t.Parallel()

	client := &fakeClient{bootstrap: sampleBootstrap()}
	svc, _ := newTestDataService(t, client)

	gw, _, err := svc.CurrentGameweek(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12, gw)
}

func TestDataService_CurrentGameweekNoneFlagged(t *testing.T) {
	t.Parallel()

	boot := sampleBootstrap()
	boot.Events[1].IsCurrent = false
	client := &fakeClient{bootstrap: boot}
	svc, _ := newTestDataService(t, client)

	_, _, err := svc.CurrentGameweek(context.Background())
	require.ErrorIs(t, err, ErrNoCurrentGameweek)
}

func TestDataService_TeamPicksResolvesCurrentGameweek(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		bootstrap: sampleBootstrap(),
		picks: map[int64]fpl.TeamPicks{
			777: {EntryID: 777, Gameweek: 12, Picks: []fpl.Pick{{PlayerID: 10, IsCaptain: true, Multiplier: 2}}},
		},
	}
	svc, store := newTestDataService(t, client)

	picks, stale, err := svc.TeamPicks(context.Background(), 777, 0)
	require.NoError(t, err)
	assert.False(t, stale)
	assert.Equal(t, 12, picks.Gameweek)
	assert.True(t, store.IsValid("team_777_12", time.Minute))
}

func TestDataService_TeamPicksStaleWhenGameweekResolvedFromStaleBootstrap(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		bootstrap: sampleBootstrap(),
		picks: map[int64]fpl.TeamPicks{
			777: {EntryID: 777, Gameweek: 12, Picks: []fpl.Pick{{PlayerID: 10, Multiplier: 1}}},
		},
	}
	svc, store := newTestDataService(t, client)
	ctx := context.Background()

	_, _, err := svc.Bootstrap(ctx)
	require.NoError(t, err)

	expired := time.Now().Add(-7 * time.Hour)
	require.NoError(t, backdateEntry(store, cacheKeyBootstrap, expired))
	client.bootstrapErr = errors.New("connection refused")

	picks, stale, err := svc.TeamPicks(ctx, 777, 0)
	require.NoError(t, err)
	assert.Equal(t, 12, picks.Gameweek)
	assert.True(t, stale)
}

func TestDataService_TeamPicksRejectsBadInput(t *testing.T) {
	t.Parallel()

	client := &fakeClient{bootstrap: sampleBootstrap()}
	svc, _ := newTestDataService(t, client)

	_, _, err := svc.TeamPicks(context.Background(), 0, 12)
	require.ErrorIs(t, err, ErrInvalidInput)

	_, _, err = svc.TeamPicks(context.Background(), 777, -3)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestDataService_ResultsRoundTrip(t *testing.T) {
	t.Parallel()

	client := &fakeClient{}
	svc, _ := newTestDataService(t, client)

	_, ok := svc.CachedResults(3)
	assert.False(t, ok)

	table := rolling.Table{
		Weeks:      3,
		Gameweek:   12,
		ComputedAt: time.Now().UTC().Truncate(time.Second),
		Records:    []rolling.Record{{PlayerID: 10, Player: "Saka", Avg: 7.33}},
	}
	svc.SaveResults(context.Background(), table)

	got, ok := svc.CachedResults(3)
	require.True(t, ok)
	assert.Equal(t, 3, got.Weeks)
	require.Len(t, got.Records, 1)
	assert.Equal(t, 7.33, got.Records[0].Avg)
}

func TestDataService_ClearCache(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		bootstrap: sampleBootstrap(),
		fixtures:  []fpl.Fixture{{ID: 1, Gameweek: 13, HomeTeamID: 1, AwayTeamID: 2}},
	}
	svc, _ := newTestDataService(t, client)
	ctx := context.Background()

	_, _, err := svc.Bootstrap(ctx)
	require.NoError(t, err)
	_, _, err = svc.Fixtures(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, svc.CacheEntryCount())

	removed, err := svc.ClearCache(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.Equal(t, 0, svc.CacheEntryCount())
}

func backdateEntry(store *filecache.Store, key string, to time.Time) error {
	return os.Chtimes(filepath.Join(store.Dir(), key+".json"), to, to)
}
