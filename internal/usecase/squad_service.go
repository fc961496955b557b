package usecase

import (
	"context"
	"sort"

	crerr "github.com/cockroachdb/errors"

	"github.com/riskibarqy/fpl-pulse/internal/domain/fpl"
	"github.com/riskibarqy/fpl-pulse/internal/domain/rolling"
	"github.com/riskibarqy/fpl-pulse/internal/platform/logging"
)

const (
	fixtureOutlookSpan = 3
	maxAlternatives    = 5
	finalGameweek      = 38
)

// FixtureOutlook grades how friendly a team's upcoming fixtures look.
type FixtureOutlook string

const (
	OutlookEasy    FixtureOutlook = "EASY"
	OutlookMedium  FixtureOutlook = "MEDIUM"
	OutlookHard    FixtureOutlook = "HARD"
	OutlookUnknown FixtureOutlook = "UNKNOWN"
)

func (o FixtureOutlook) rank() int {
	switch o {
	case OutlookEasy:
		return 0
	case OutlookMedium:
		return 1
	case OutlookHard:
		return 2
	default:
		return 3
	}
}

// Alternative is a same-position replacement candidate that outperforms the
// picked player without costing more.
type Alternative struct {
	PlayerID int64          `json:"player_id"`
	Player   string         `json:"player"`
	Team     string         `json:"team"`
	Cost     float64        `json:"cost"`
	Avg      float64        `json:"avg"`
	Outlook  FixtureOutlook `json:"outlook"`
}

// PickAnalysis is one squad slot annotated with rolling performance, fixture
// outlook, and replacement candidates.
type PickAnalysis struct {
	PlayerID      int64          `json:"player_id"`
	Player        string         `json:"player"`
	Team          string         `json:"team"`
	Position      fpl.Position   `json:"position"`
	Cost          float64        `json:"cost"`
	IsCaptain     bool           `json:"is_captain"`
	IsViceCaptain bool           `json:"is_vice_captain"`
	Multiplier    int            `json:"multiplier"`
	Avg           float64        `json:"avg"`
	PointsPer90   float64        `json:"points_per_90"`
	HasRecord     bool           `json:"has_record"`
	Outlook       FixtureOutlook `json:"outlook"`
	Alternatives  []Alternative  `json:"alternatives,omitempty"`
}

// SquadAnalysis is the full report for one entry's gameweek squad.
type SquadAnalysis struct {
	EntryID     int64          `json:"entry_id"`
	Gameweek    int            `json:"gameweek"`
	Weeks       int            `json:"weeks"`
	Stale       bool           `json:"stale"`
	SquadSize   int            `json:"squad_size"`
	TotalCost   float64        `json:"total_cost"`
	AvgPoints   float64        `json:"avg_points"`
	Captain     string         `json:"captain"`
	ViceCaptain string         `json:"vice_captain"`
	Picks       []PickAnalysis `json:"picks"`
}

// SquadService grades a manager's squad against the rolling table and the
// upcoming fixture list.
type SquadService struct {
	data    *DataService
	rolling *RollingService
	logger  *logging.Logger
}

func NewSquadService(data *DataService, rollingSvc *RollingService, logger *logging.Logger) *SquadService {
	if logger == nil {
		logger = logging.Default()
	}
	return &SquadService{data: data, rolling: rollingSvc, logger: logger}
}

// Analyze builds the squad report for one entry. Picks whose player is absent
// from the bootstrap snapshot are skipped. A zero gameweek resolves to the
// current one.
func (s *SquadService) Analyze(ctx context.Context, teamID int64, gameweek, weeks int) (SquadAnalysis, error) {
	ctx, span := startUsecaseSpan(ctx, "SquadService.Analyze")
	defer span.End()

	if teamID <= 0 {
		return SquadAnalysis{}, crerr.Wrapf(ErrInvalidInput, "team id %d", teamID)
	}
	if weeks < 1 {
		return SquadAnalysis{}, crerr.Wrapf(ErrInvalidInput, "window must be at least 1 gameweek, got %d", weeks)
	}

	picks, picksStale, err := s.data.TeamPicks(ctx, teamID, gameweek)
	if err != nil {
		return SquadAnalysis{}, err
	}

	boot, bootStale, err := s.data.Bootstrap(ctx)
	if err != nil {
		return SquadAnalysis{}, crerr.WithSecondaryError(ErrNoData, err)
	}
	currentGW, _ := boot.CurrentGameweek()

	table, ok := s.rolling.Cached(ctx, weeks)
	if !ok {
		table, err = s.rolling.Compute(ctx, weeks, nil)
		if err != nil {
			return SquadAnalysis{}, err
		}
	}

	outlooks := s.teamOutlooks(ctx, currentGW)
	teamNames := boot.TeamNameByID()

	analysis := SquadAnalysis{
		EntryID:  picks.EntryID,
		Gameweek: picks.Gameweek,
		Weeks:    weeks,
		Stale:    picksStale || bootStale || table.Stale,
		Picks:    make([]PickAnalysis, 0, len(picks.Picks)),
	}

	var avgSum float64
	for _, pick := range picks.Picks {
		player, found := boot.PlayerByID(pick.PlayerID)
		if !found {
			s.logger.WarnContext(ctx, "pick references unknown player, skipping",
				"entry_id", picks.EntryID,
				"player_id", pick.PlayerID,
			)
			continue
		}

		row := PickAnalysis{
			PlayerID:      player.ID,
			Player:        player.Name,
			Team:          teamNames[player.TeamID],
			Position:      player.Position,
			Cost:          player.Cost,
			IsCaptain:     pick.IsCaptain,
			IsViceCaptain: pick.IsViceCaptain,
			Multiplier:    pick.Multiplier,
			Outlook:       outlooks[player.TeamID],
		}
		if row.Outlook == "" {
			row.Outlook = OutlookUnknown
		}

		if record, ok := table.RecordByPlayerID(player.ID); ok {
			row.Avg = record.Avg
			row.PointsPer90 = record.PointsPer90
			row.HasRecord = true
			avgSum += record.Avg
		}
		row.Alternatives = s.alternatives(boot, table, outlooks, player, row.Avg)

		analysis.TotalCost += player.Cost
		if pick.IsCaptain {
			analysis.Captain = player.Name
		}
		if pick.IsViceCaptain {
			analysis.ViceCaptain = player.Name
		}
		analysis.Picks = append(analysis.Picks, row)
	}

	analysis.SquadSize = len(analysis.Picks)
	analysis.TotalCost = round2(analysis.TotalCost)
	// Record-less picks count as zero rows in the squad mean.
	if len(analysis.Picks) > 0 {
		analysis.AvgPoints = round2(avgSum / float64(len(analysis.Picks)))
	}
	return analysis, nil
}

// alternatives lists up to five same-position players beating the pick's
// rolling average at no extra cost, easiest fixtures first. The rolling table
// is already sorted by average, so the first five matches are the best five.
func (s *SquadService) alternatives(boot fpl.Bootstrap, table rolling.Table, outlooks map[int64]FixtureOutlook, picked fpl.Player, pickedAvg float64) []Alternative {
	teamNames := boot.TeamNameByID()

	var out []Alternative
	for _, record := range table.Records {
		if len(out) >= maxAlternatives {
			break
		}
		if record.PlayerID == picked.ID || record.Position != picked.Position {
			continue
		}
		if record.Avg <= pickedAvg || record.Cost > picked.Cost {
			continue
		}
		candidate, found := boot.PlayerByID(record.PlayerID)
		if !found {
			continue
		}
		outlook := outlooks[candidate.TeamID]
		if outlook == "" {
			outlook = OutlookUnknown
		}
		out = append(out, Alternative{
			PlayerID: record.PlayerID,
			Player:   record.Player,
			Team:     teamNames[candidate.TeamID],
			Cost:     record.Cost,
			Avg:      record.Avg,
			Outlook:  outlook,
		})
	}

	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Outlook.rank() < out[b].Outlook.rank()
	})
	return out
}

// teamOutlooks grades every team's unfinished fixtures over the next few
// gameweeks. A fixture fetch failure degrades to no outlook data rather than
// failing the analysis.
func (s *SquadService) teamOutlooks(ctx context.Context, currentGW int) map[int64]FixtureOutlook {
	fixtures, _, err := s.data.Fixtures(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "fixtures unavailable, outlook omitted", "error", err)
		return map[int64]FixtureOutlook{}
	}

	horizon := currentGW + fixtureOutlookSpan
	if horizon > finalGameweek {
		horizon = finalGameweek
	}

	sums := make(map[int64]int)
	counts := make(map[int64]int)
	for _, fixture := range fixtures {
		if fixture.Finished || fixture.Gameweek <= currentGW || fixture.Gameweek > horizon {
			continue
		}
		sums[fixture.HomeTeamID] += fixture.HomeDifficulty
		counts[fixture.HomeTeamID]++
		sums[fixture.AwayTeamID] += fixture.AwayDifficulty
		counts[fixture.AwayTeamID]++
	}

	out := make(map[int64]FixtureOutlook, len(counts))
	for teamID, count := range counts {
		if count == 0 {
			continue
		}
		out[teamID] = gradeOutlook(float64(sums[teamID]) / float64(count))
	}
	return out
}

func gradeOutlook(avgDifficulty float64) FixtureOutlook {
	switch {
	case avgDifficulty <= 2:
		return OutlookEasy
	case avgDifficulty <= 3:
		return OutlookMedium
	default:
		return OutlookHard
	}
}
