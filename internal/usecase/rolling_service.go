package usecase

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	crerr "github.com/cockroachdb/errors"
	ants "github.com/panjf2000/ants/v2"

	"github.com/riskibarqy/fpl-pulse/internal/domain/fpl"
	"github.com/riskibarqy/fpl-pulse/internal/domain/rolling"
	"github.com/riskibarqy/fpl-pulse/internal/platform/logging"
)

const defaultRollingWorkers = 8

// Progress is one snapshot of a rolling computation in flight.
type Progress struct {
	Processed  int
	Total      int
	WithData   int
	LastPlayer string
	Elapsed    time.Duration
	Remaining  time.Duration
}

// ProgressFunc receives computation progress. Callbacks are serialized; a nil
// func disables reporting.
type ProgressFunc func(Progress)

// RollingService computes per-player rolling averages over the most recent
// qualifying gameweeks.
type RollingService struct {
	data    *DataService
	workers int
	logger  *logging.Logger
}

func NewRollingService(data *DataService, workers int, logger *logging.Logger) *RollingService {
	if workers <= 0 {
		workers = defaultRollingWorkers
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &RollingService{data: data, workers: workers, logger: logger}
}

// Cached returns the stored table for the window if a fresh one exists.
func (s *RollingService) Cached(ctx context.Context, weeks int) (rolling.Table, bool) {
	if weeks < 1 {
		return rolling.Table{}, false
	}
	return s.data.CachedResults(weeks)
}

// Compute builds the full rolling table for the given window. Players whose
// history cannot be fetched are excluded rather than failing the whole run.
func (s *RollingService) Compute(ctx context.Context, weeks int, onProgress ProgressFunc) (rolling.Table, error) {
	ctx, span := startUsecaseSpan(ctx, "RollingService.Compute")
	defer span.End()

	if weeks < 1 {
		return rolling.Table{}, crerr.Wrapf(ErrInvalidInput, "window must be at least 1 gameweek, got %d", weeks)
	}

	boot, bootStale, err := s.data.Bootstrap(ctx)
	if err != nil {
		return rolling.Table{}, crerr.WithSecondaryError(ErrNoData, err)
	}
	gameweek, ok := boot.CurrentGameweek()
	if !ok {
		return rolling.Table{}, ErrSeasonInactive
	}

	teamNames := boot.TeamNameByID()
	total := len(boot.Players)
	rows := make([]*rolling.Record, total)

	var processed atomic.Int64
	var withData atomic.Int64
	var anyStale atomic.Bool
	if bootStale {
		anyStale.Store(true)
	}

	started := time.Now()
	var progressMu sync.Mutex
	report := func(last string) {
		if onProgress == nil {
			return
		}
		done := int(processed.Load())
		elapsed := time.Since(started)
		var remaining time.Duration
		if done > 0 && done < total {
			remaining = time.Duration(int64(elapsed) / int64(done) * int64(total-done))
		}
		progressMu.Lock()
		onProgress(Progress{
			Processed:  done,
			Total:      total,
			WithData:   int(withData.Load()),
			LastPlayer: last,
			Elapsed:    elapsed,
			Remaining:  remaining,
		})
		progressMu.Unlock()
	}

	pool, err := ants.NewPool(s.workers)
	if err != nil {
		return rolling.Table{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var workers sync.WaitGroup
	for i, player := range boot.Players {
		i, player := i, player
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			history, stale, err := s.data.PlayerHistory(ctx, player.ID)
			if err != nil {
				s.logger.DebugContext(ctx, "excluding player from rolling table",
					"player_id", player.ID,
					"player", player.Name,
					"error", err,
				)
				processed.Add(1)
				report(player.Name)
				return
			}
			if stale {
				anyStale.Store(true)
			}

			if record, ok := buildRecord(player, teamNames, history.Entries, weeks, gameweek); ok {
				rows[i] = &record
				withData.Add(1)
			}
			processed.Add(1)
			report(player.Name)
		}); err != nil {
			workers.Done()
			return rolling.Table{}, fmt.Errorf("submit player to worker pool: %w", err)
		}
	}
	workers.Wait()

	// A cancelled sweep has excluded an arbitrary tail of players; its table
	// must not land in the results cache.
	if err := ctx.Err(); err != nil {
		return rolling.Table{}, fmt.Errorf("rolling sweep interrupted: %w", err)
	}

	records := make([]rolling.Record, 0, withData.Load())
	for _, row := range rows {
		if row != nil {
			records = append(records, *row)
		}
	}
	sort.SliceStable(records, func(a, b int) bool {
		return records[a].Avg > records[b].Avg
	})

	table := rolling.Table{
		Weeks:      weeks,
		Gameweek:   gameweek,
		ComputedAt: time.Now().UTC(),
		Stale:      anyStale.Load(),
		Records:    records,
	}
	s.data.SaveResults(ctx, table)

	s.logger.InfoContext(ctx, "rolling table computed",
		"weeks", weeks,
		"gameweek", gameweek,
		"players_total", total,
		"players_with_data", len(records),
		"stale", table.Stale,
		"duration_ms", time.Since(started).Milliseconds(),
	)
	return table, nil
}

// buildRecord aggregates one player's window. The window is the N most recent
// qualifying entries; players with fewer than N are excluded entirely.
func buildRecord(player fpl.Player, teamNames map[int64]string, entries []fpl.HistoryEntry, weeks, gameweek int) (rolling.Record, bool) {
	qualifying := make([]fpl.HistoryEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.Qualifies(gameweek) {
			qualifying = append(qualifying, entry)
		}
	}
	if len(qualifying) < weeks {
		return rolling.Record{}, false
	}

	sort.SliceStable(qualifying, func(a, b int) bool {
		return qualifying[a].Round > qualifying[b].Round
	})
	window := qualifying[:weeks]

	var points, goals, assists, bonus, minutes int
	for _, entry := range window {
		points += entry.TotalPoints
		goals += entry.Goals
		assists += entry.Assists
		bonus += entry.Bonus
		minutes += entry.Minutes
	}

	ppm90 := 0.0
	if minutes > 0 {
		ppm90 = float64(points) / float64(minutes) * 90
	}

	return rolling.Record{
		PlayerID:    player.ID,
		Player:      player.Name,
		Team:        teamNames[player.TeamID],
		Position:    player.Position,
		Cost:        player.Cost,
		Points:      points,
		Avg:         round2(float64(points) / float64(weeks)),
		PointsPer90: round2(ppm90),
		Goals:       goals,
		Assists:     assists,
		Bonus:       bonus,
		Minutes:     minutes,
		Form:        player.Form,
		SelectedBy:  player.SelectedBy,
		ICTIndex:    player.ICTIndex,
	}, true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
