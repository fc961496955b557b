package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/riskibarqy/fpl-pulse/internal/domain/fpl"
	"github.com/riskibarqy/fpl-pulse/internal/domain/rolling"
	"github.com/riskibarqy/fpl-pulse/internal/usecase"
)

const defaultWeeks = 3

type Handler struct {
	dataService    *usecase.DataService
	rollingService *usecase.RollingService
	squadService   *usecase.SquadService
	logger         *slog.Logger
	validator      *validator.Validate
}

func NewHandler(
	dataService *usecase.DataService,
	rollingService *usecase.RollingService,
	squadService *usecase.SquadService,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		dataService:    dataService,
		rollingService: rollingService,
		squadService:   squadService,
		logger:         logger,
		validator:      validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) GetRollingPlayers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetRollingPlayers")
	defer span.End()

	params, err := h.parseRollingQuery(ctx, r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	if !params.Refresh {
		if table, ok := h.rollingService.Cached(ctx, params.Weeks); ok {
			writeSuccess(ctx, w, http.StatusOK, rollingTableToDTO(ctx, table, ""))
			return
		}
	}

	table, err := h.rollingService.Compute(ctx, params.Weeks, nil)
	switch {
	case errors.Is(err, usecase.ErrSeasonInactive):
		writeSuccess(ctx, w, http.StatusOK, emptyRollingTableDTO(params.Weeks, "season_inactive"))
		return
	case errors.Is(err, usecase.ErrNoData):
		h.logger.WarnContext(ctx, "rolling compute has no data", "weeks", params.Weeks, "error", err)
		writeSuccess(ctx, w, http.StatusOK, emptyRollingTableDTO(params.Weeks, "no_data"))
		return
	case err != nil:
		h.logger.ErrorContext(ctx, "rolling compute failed", "weeks", params.Weeks, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, rollingTableToDTO(ctx, table, ""))
}

func (h *Handler) GetEntryPicks(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetEntryPicks")
	defer span.End()

	teamID, err := parseTeamID(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	gameweek, err := parseOptionalInt(r, "gameweek")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	picks, stale, err := h.dataService.TeamPicks(ctx, teamID, gameweek)
	if err != nil {
		h.logger.WarnContext(ctx, "get entry picks failed", "team_id", teamID, "error", err)
		writeError(ctx, w, err)
		return
	}

	boot, _, err := h.dataService.Bootstrap(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "bootstrap unavailable while mapping picks", "team_id", teamID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, teamPicksToDTO(ctx, picks, boot, stale))
}

func (h *Handler) GetEntryAnalysis(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetEntryAnalysis")
	defer span.End()

	teamID, err := parseTeamID(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	gameweek, err := parseOptionalInt(r, "gameweek")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	params, err := h.parseRollingQuery(ctx, r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	analysis, err := h.squadService.Analyze(ctx, teamID, gameweek, params.Weeks)
	if err != nil {
		h.logger.WarnContext(ctx, "entry analysis failed", "team_id", teamID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, analysis)
}

func (h *Handler) ListFixtures(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListFixtures")
	defer span.End()

	fixtures, stale, err := h.dataService.Fixtures(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "list fixtures failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	boot, _, err := h.dataService.Bootstrap(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "bootstrap unavailable while mapping fixtures", "error", err)
		writeError(ctx, w, err)
		return
	}
	teamNames := boot.TeamNameByID()

	items := make([]fixtureDTO, 0, len(fixtures))
	for _, f := range fixtures {
		items = append(items, fixtureToDTO(ctx, f, teamNames))
	}

	writeSuccess(ctx, w, http.StatusOK, fixtureListDTO{Stale: stale, Fixtures: items})
}

func (h *Handler) GetBootstrap(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetBootstrap")
	defer span.End()

	boot, stale, err := h.dataService.Bootstrap(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "get bootstrap failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, bootstrapToDTO(ctx, boot, stale))
}

func (h *Handler) GetCacheInfo(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetCacheInfo")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, cacheInfoDTO{
		Entries: h.dataService.CacheEntryCount(),
	})
}

func (h *Handler) ClearCache(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ClearCache")
	defer span.End()

	removed, err := h.dataService.ClearCache(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "clear cache failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, cacheClearDTO{EntriesRemoved: removed})
}

type rollingQuery struct {
	Weeks   int `validate:"min=2,max=10"`
	Refresh bool
}

func (h *Handler) parseRollingQuery(ctx context.Context, r *http.Request) (rollingQuery, error) {
	params := rollingQuery{Weeks: defaultWeeks}

	if raw := strings.TrimSpace(r.URL.Query().Get("weeks")); raw != "" {
		weeks, err := strconv.Atoi(raw)
		if err != nil {
			return rollingQuery{}, fmt.Errorf("%w: weeks must be an integer", usecase.ErrInvalidInput)
		}
		params.Weeks = weeks
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("refresh")); raw != "" {
		refresh, err := strconv.ParseBool(raw)
		if err != nil {
			return rollingQuery{}, fmt.Errorf("%w: refresh must be a boolean", usecase.ErrInvalidInput)
		}
		params.Refresh = refresh
	}

	if err := h.validator.StructCtx(ctx, params); err != nil {
		return rollingQuery{}, fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}
	return params, nil
}

func parseTeamID(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(r.PathValue("teamID"))
	teamID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || teamID <= 0 {
		return 0, fmt.Errorf("%w: team id must be a positive integer", usecase.ErrInvalidInput)
	}
	return teamID, nil
}

func parseOptionalInt(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", usecase.ErrInvalidInput, name)
	}
	return value, nil
}

type rollingTableDTO struct {
	Weeks      int                `json:"weeks"`
	Gameweek   int                `json:"gameweek"`
	ComputedAt string             `json:"computed_at,omitempty"`
	Stale      bool               `json:"stale"`
	Reason     string             `json:"reason,omitempty"`
	Records    []rollingRecordDTO `json:"records"`
}

type rollingRecordDTO struct {
	PlayerID    int64   `json:"player_id"`
	Player      string  `json:"player"`
	Team        string  `json:"team"`
	Position    string  `json:"position"`
	Cost        float64 `json:"cost"`
	Points      int     `json:"points"`
	Avg         float64 `json:"avg"`
	PointsPer90 float64 `json:"points_per_90"`
	Goals       int     `json:"goals"`
	Assists     int     `json:"assists"`
	Bonus       int     `json:"bonus"`
	Minutes     int     `json:"minutes"`
	Form        float64 `json:"form"`
	SelectedBy  float64 `json:"selected_by"`
	ICTIndex    float64 `json:"ict_index"`
}

type teamPicksDTO struct {
	EntryID  int64     `json:"entry_id"`
	Gameweek int       `json:"gameweek"`
	Stale    bool      `json:"stale"`
	Picks    []pickDTO `json:"picks"`
}

type pickDTO struct {
	PlayerID      int64  `json:"player_id"`
	Player        string `json:"player"`
	Team          string `json:"team"`
	Position      string `json:"position"`
	IsCaptain     bool   `json:"is_captain"`
	IsViceCaptain bool   `json:"is_vice_captain"`
	Multiplier    int    `json:"multiplier"`
}

type fixtureListDTO struct {
	Stale    bool         `json:"stale"`
	Fixtures []fixtureDTO `json:"fixtures"`
}

type fixtureDTO struct {
	ID             int64  `json:"id"`
	Gameweek       int    `json:"gameweek"`
	HomeTeam       string `json:"home_team"`
	AwayTeam       string `json:"away_team"`
	Finished       bool   `json:"finished"`
	HomeDifficulty int    `json:"home_difficulty"`
	AwayDifficulty int    `json:"away_difficulty"`
}

type bootstrapDTO struct {
	CurrentGameweek int       `json:"current_gameweek"`
	SeasonActive    bool      `json:"season_active"`
	Stale           bool      `json:"stale"`
	PlayerCount     int       `json:"player_count"`
	EventCount      int       `json:"event_count"`
	Teams           []teamDTO `json:"teams"`
}

type teamDTO struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"short_name"`
}

type cacheInfoDTO struct {
	Entries int `json:"entries"`
}

type cacheClearDTO struct {
	EntriesRemoved int `json:"entries_removed"`
}

func rollingTableToDTO(ctx context.Context, table rolling.Table, reason string) rollingTableDTO {
	ctx, span := startSpan(ctx, "httpapi.rollingTableToDTO")
	defer span.End()

	records := make([]rollingRecordDTO, 0, len(table.Records))
	for _, record := range table.Records {
		records = append(records, rollingRecordDTO{
			PlayerID:    record.PlayerID,
			Player:      record.Player,
			Team:        record.Team,
			Position:    string(record.Position),
			Cost:        record.Cost,
			Points:      record.Points,
			Avg:         record.Avg,
			PointsPer90: record.PointsPer90,
			Goals:       record.Goals,
			Assists:     record.Assists,
			Bonus:       record.Bonus,
			Minutes:     record.Minutes,
			Form:        record.Form,
			SelectedBy:  record.SelectedBy,
			ICTIndex:    record.ICTIndex,
		})
	}

	computedAt := ""
	if !table.ComputedAt.IsZero() {
		computedAt = table.ComputedAt.UTC().Format(time.RFC3339)
	}

	return rollingTableDTO{
		Weeks:      table.Weeks,
		Gameweek:   table.Gameweek,
		ComputedAt: computedAt,
		Stale:      table.Stale,
		Reason:     reason,
		Records:    records,
	}
}

func emptyRollingTableDTO(weeks int, reason string) rollingTableDTO {
	return rollingTableDTO{
		Weeks:   weeks,
		Reason:  reason,
		Records: []rollingRecordDTO{},
	}
}

func teamPicksToDTO(ctx context.Context, picks fpl.TeamPicks, boot fpl.Bootstrap, stale bool) teamPicksDTO {
	ctx, span := startSpan(ctx, "httpapi.teamPicksToDTO")
	defer span.End()

	teamNames := boot.TeamNameByID()
	items := make([]pickDTO, 0, len(picks.Picks))
	for _, pick := range picks.Picks {
		item := pickDTO{
			PlayerID:      pick.PlayerID,
			IsCaptain:     pick.IsCaptain,
			IsViceCaptain: pick.IsViceCaptain,
			Multiplier:    pick.Multiplier,
		}
		if player, found := boot.PlayerByID(pick.PlayerID); found {
			item.Player = player.Name
			item.Team = teamNames[player.TeamID]
			item.Position = string(player.Position)
		}
		items = append(items, item)
	}

	return teamPicksDTO{
		EntryID:  picks.EntryID,
		Gameweek: picks.Gameweek,
		Stale:    stale,
		Picks:    items,
	}
}

func fixtureToDTO(ctx context.Context, f fpl.Fixture, teamNames map[int64]string) fixtureDTO {
	ctx, span := startSpan(ctx, "httpapi.fixtureToDTO")
	defer span.End()

	return fixtureDTO{
		ID:             f.ID,
		Gameweek:       f.Gameweek,
		HomeTeam:       teamNames[f.HomeTeamID],
		AwayTeam:       teamNames[f.AwayTeamID],
		Finished:       f.Finished,
		HomeDifficulty: f.HomeDifficulty,
		AwayDifficulty: f.AwayDifficulty,
	}
}

func bootstrapToDTO(ctx context.Context, boot fpl.Bootstrap, stale bool) bootstrapDTO {
	ctx, span := startSpan(ctx, "httpapi.bootstrapToDTO")
	defer span.End()

	teams := make([]teamDTO, 0, len(boot.Teams))
	for _, team := range boot.Teams {
		teams = append(teams, teamDTO{ID: team.ID, Name: team.Name, ShortName: team.ShortName})
	}

	gw, active := boot.CurrentGameweek()
	return bootstrapDTO{
		CurrentGameweek: gw,
		SeasonActive:    active,
		Stale:           stale,
		PlayerCount:     len(boot.Players),
		EventCount:      len(boot.Events),
		Teams:           teams,
	}
}
