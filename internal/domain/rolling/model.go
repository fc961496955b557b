package rolling

import (
	"time"

	"github.com/riskibarqy/fpl-pulse/internal/domain/fpl"
)

// Record is one player's aggregated performance over the N most recent
// qualifying gameweeks. A record exists only when the player has at least N
// qualifying history entries; partial windows are never emitted.
type Record struct {
	PlayerID    int64        `json:"player_id"`
	Player      string       `json:"player"`
	Team        string       `json:"team"`
	Position    fpl.Position `json:"position"`
	Cost        float64      `json:"cost"`
	Points      int          `json:"points"`
	Avg         float64      `json:"avg"`
	PointsPer90 float64      `json:"points_per_90"`
	Goals       int          `json:"goals"`
	Assists     int          `json:"assists"`
	Bonus       int          `json:"bonus"`
	Minutes     int          `json:"minutes"`
	Form        float64      `json:"form"`
	SelectedBy  float64      `json:"selected_by"`
	ICTIndex    float64      `json:"ict_index"`
}

// Table is the full rolling summary for one window size, sorted by Avg
// descending with ties kept in bootstrap snapshot order. An empty table is a
// valid result, not an error.
type Table struct {
	Weeks      int       `json:"weeks"`
	Gameweek   int       `json:"gameweek"`
	ComputedAt time.Time `json:"computed_at"`
	Stale      bool      `json:"stale"`
	Records    []Record  `json:"records"`
}

func (t Table) RecordByPlayerID(id int64) (Record, bool) {
	for _, record := range t.Records {
		if record.PlayerID == id {
			return record, true
		}
	}
	return Record{}, false
}
