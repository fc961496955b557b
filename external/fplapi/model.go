package fplapi

import (
	"strconv"
	"strings"

	"github.com/riskibarqy/fpl-pulse/internal/domain/fpl"
)

// Wire shapes for the FPL API. Only the fields used downstream are decoded;
// unknown fields are ignored.

type bootstrapEnvelope struct {
	Events   []eventItem   `json:"events"`
	Teams    []teamItem    `json:"teams"`
	Elements []elementItem `json:"elements"`
}

type eventItem struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	IsCurrent bool   `json:"is_current"`
	Finished  bool   `json:"finished"`
}

type teamItem struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"short_name"`
}

type elementItem struct {
	ID                int64  `json:"id"`
	WebName           string `json:"web_name"`
	Team              int64  `json:"team"`
	ElementType       int    `json:"element_type"`
	NowCost           int    `json:"now_cost"`
	Form              string `json:"form"`
	SelectedByPercent string `json:"selected_by_percent"`
	ICTIndex          string `json:"ict_index"`
}

type elementSummaryEnvelope struct {
	History []historyItem `json:"history"`
}

type historyItem struct {
	Round       int `json:"round"`
	Minutes     int `json:"minutes"`
	TotalPoints int `json:"total_points"`
	GoalsScored int `json:"goals_scored"`
	Assists     int `json:"assists"`
	Bonus       int `json:"bonus"`
}

type fixtureItem struct {
	ID             int64 `json:"id"`
	Event          *int  `json:"event"`
	TeamH          int64 `json:"team_h"`
	TeamA          int64 `json:"team_a"`
	Finished       bool  `json:"finished"`
	TeamHDifficulty int  `json:"team_h_difficulty"`
	TeamADifficulty int  `json:"team_a_difficulty"`
}

type picksEnvelope struct {
	Picks []pickItem `json:"picks"`
}

type pickItem struct {
	Element       int64 `json:"element"`
	IsCaptain     bool  `json:"is_captain"`
	IsViceCaptain bool  `json:"is_vice_captain"`
	Multiplier    int   `json:"multiplier"`
}

func mapBootstrap(envelope bootstrapEnvelope) fpl.Bootstrap {
	out := fpl.Bootstrap{
		Players: make([]fpl.Player, 0, len(envelope.Elements)),
		Teams:   make([]fpl.Team, 0, len(envelope.Teams)),
		Events:  make([]fpl.Event, 0, len(envelope.Events)),
	}

	for _, item := range envelope.Events {
		out.Events = append(out.Events, fpl.Event{
			ID:        item.ID,
			Name:      strings.TrimSpace(item.Name),
			IsCurrent: item.IsCurrent,
			Finished:  item.Finished,
		})
	}
	for _, item := range envelope.Teams {
		out.Teams = append(out.Teams, fpl.Team{
			ID:        item.ID,
			Name:      strings.TrimSpace(item.Name),
			ShortName: strings.TrimSpace(item.ShortName),
		})
	}
	for _, item := range envelope.Elements {
		position, ok := fpl.PositionFromElementType(item.ElementType)
		if !ok {
			continue
		}
		out.Players = append(out.Players, fpl.Player{
			ID:       item.ID,
			Name:     strings.TrimSpace(item.WebName),
			TeamID:   item.Team,
			Position: position,
			// Provider reports cost in tenths of a million.
			Cost:       float64(item.NowCost) / 10,
			Form:       decimalOrZero(item.Form),
			SelectedBy: decimalOrZero(item.SelectedByPercent),
			ICTIndex:   decimalOrZero(item.ICTIndex),
		})
	}

	return out
}

func mapPlayerHistory(playerID int64, envelope elementSummaryEnvelope) fpl.PlayerHistory {
	out := fpl.PlayerHistory{
		PlayerID: playerID,
		Entries:  make([]fpl.HistoryEntry, 0, len(envelope.History)),
	}
	for _, item := range envelope.History {
		out.Entries = append(out.Entries, fpl.HistoryEntry{
			Round:       item.Round,
			Minutes:     item.Minutes,
			TotalPoints: item.TotalPoints,
			Goals:       item.GoalsScored,
			Assists:     item.Assists,
			Bonus:       item.Bonus,
		})
	}
	return out
}

func mapFixtures(items []fixtureItem) []fpl.Fixture {
	out := make([]fpl.Fixture, 0, len(items))
	for _, item := range items {
		gameweek := 0
		if item.Event != nil {
			gameweek = *item.Event
		}
		out = append(out, fpl.Fixture{
			ID:             item.ID,
			Gameweek:       gameweek,
			HomeTeamID:     item.TeamH,
			AwayTeamID:     item.TeamA,
			Finished:       item.Finished,
			HomeDifficulty: item.TeamHDifficulty,
			AwayDifficulty: item.TeamADifficulty,
		})
	}
	return out
}

func mapTeamPicks(entryID int64, gameweek int, envelope picksEnvelope) fpl.TeamPicks {
	out := fpl.TeamPicks{
		EntryID:  entryID,
		Gameweek: gameweek,
		Picks:    make([]fpl.Pick, 0, len(envelope.Picks)),
	}
	for _, item := range envelope.Picks {
		out.Picks = append(out.Picks, fpl.Pick{
			PlayerID:      item.Element,
			IsCaptain:     item.IsCaptain,
			IsViceCaptain: item.IsViceCaptain,
			Multiplier:    item.Multiplier,
		})
	}
	return out
}

// decimalOrZero normalizes the provider's string-encoded decimals, which may
// be empty or absent, to a plain float with 0 as the default.
func decimalOrZero(raw string) float64 {
	value := strings.TrimSpace(raw)
	if value == "" {
		return 0
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return parsed
}
