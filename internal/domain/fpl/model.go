package fpl

import "fmt"

// Position represents the FPL element type categories.
type Position string

const (
	PositionGoalkeeper Position = "GK"
	PositionDefender   Position = "DEF"
	PositionMidfielder Position = "MID"
	PositionForward    Position = "FWD"
)

var AllPositions = map[Position]struct{}{
	PositionGoalkeeper: {},
	PositionDefender:   {},
	PositionMidfielder: {},
	PositionForward:    {},
}

// PositionFromElementType maps the provider's element_type codes (1..4).
func PositionFromElementType(elementType int) (Position, bool) {
	switch elementType {
	case 1:
		return PositionGoalkeeper, true
	case 2:
		return PositionDefender, true
	case 3:
		return PositionMidfielder, true
	case 4:
		return PositionForward, true
	default:
		return "", false
	}
}

func (p Position) DisplayName() string {
	switch p {
	case PositionGoalkeeper:
		return "Goalkeeper"
	case PositionDefender:
		return "Defender"
	case PositionMidfielder:
		return "Midfielder"
	case PositionForward:
		return "Forward"
	default:
		return string(p)
	}
}

// Player is one selectable athlete from the bootstrap snapshot. Optional
// provider decimals (form, selected-by, ICT) are normalized to 0 at the
// client boundary, so downstream code never re-checks presence.
type Player struct {
	ID         int64    `json:"id"`
	Name       string   `json:"name"`
	TeamID     int64    `json:"team_id"`
	Position   Position `json:"position"`
	Cost       float64  `json:"cost"`
	Form       float64  `json:"form"`
	SelectedBy float64  `json:"selected_by"`
	ICTIndex   float64  `json:"ict_index"`
}

func (p Player) Validate() error {
	if p.ID <= 0 {
		return fmt.Errorf("player id must be greater than zero")
	}
	if p.Name == "" {
		return fmt.Errorf("player name is required")
	}
	if _, ok := AllPositions[p.Position]; !ok {
		return fmt.Errorf("invalid player position: %s", p.Position)
	}
	return nil
}

// Team is one league club from the bootstrap snapshot.
type Team struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"short_name"`
}

// Event is one gameweek record from the bootstrap snapshot.
type Event struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	IsCurrent bool   `json:"is_current"`
	Finished  bool   `json:"finished"`
}

// Bootstrap is the whole-league snapshot pulled in one call. It is refreshed
// wholesale; there are no partial updates.
type Bootstrap struct {
	Players []Player `json:"players"`
	Teams   []Team   `json:"teams"`
	Events  []Event  `json:"events"`
}

// CurrentGameweek returns the single event flagged current. At most one event
// should carry the flag at any time; the first match wins.
func (b Bootstrap) CurrentGameweek() (int, bool) {
	for _, event := range b.Events {
		if event.IsCurrent {
			return event.ID, true
		}
	}
	return 0, false
}

func (b Bootstrap) TeamNameByID() map[int64]string {
	out := make(map[int64]string, len(b.Teams))
	for _, team := range b.Teams {
		out[team.ID] = team.Name
	}
	return out
}

func (b Bootstrap) PlayerByID(id int64) (Player, bool) {
	for _, player := range b.Players {
		if player.ID == id {
			return player, true
		}
	}
	return Player{}, false
}

// HistoryEntry is one per-gameweek row of a player's season history. It is
// the source of truth for rolling metrics.
type HistoryEntry struct {
	Round       int `json:"round"`
	Minutes     int `json:"minutes"`
	TotalPoints int `json:"total_points"`
	Goals       int `json:"goals"`
	Assists     int `json:"assists"`
	Bonus       int `json:"bonus"`
}

// Qualifies reports whether the entry counts toward a rolling window: the
// player was on the pitch and the round is not in the future.
func (e HistoryEntry) Qualifies(currentGameweek int) bool {
	return e.Round <= currentGameweek && e.Minutes > 0
}

type PlayerHistory struct {
	PlayerID int64          `json:"player_id"`
	Entries  []HistoryEntry `json:"entries"`
}

// Fixture identifies one scheduled match with per-side difficulty ratings.
type Fixture struct {
	ID             int64 `json:"id"`
	Gameweek       int   `json:"gameweek"`
	HomeTeamID     int64 `json:"home_team_id"`
	AwayTeamID     int64 `json:"away_team_id"`
	Finished       bool  `json:"finished"`
	HomeDifficulty int   `json:"home_difficulty"`
	AwayDifficulty int   `json:"away_difficulty"`
}

// DifficultyFor returns the difficulty faced by teamID in this fixture.
func (f Fixture) DifficultyFor(teamID int64) (int, bool) {
	switch teamID {
	case f.HomeTeamID:
		return f.HomeDifficulty, true
	case f.AwayTeamID:
		return f.AwayDifficulty, true
	default:
		return 0, false
	}
}

// Pick is one slot of a manager's squad for a gameweek.
type Pick struct {
	PlayerID      int64 `json:"player_id"`
	IsCaptain     bool  `json:"is_captain"`
	IsViceCaptain bool  `json:"is_vice_captain"`
	Multiplier    int   `json:"multiplier"`
}

// TeamPicks is a manager's squad snapshot for one gameweek.
type TeamPicks struct {
	EntryID  int64  `json:"entry_id"`
	Gameweek int    `json:"gameweek"`
	Picks    []Pick `json:"picks"`
}
