package fplapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/riskibarqy/fpl-pulse/internal/domain/fpl"
	"github.com/riskibarqy/fpl-pulse/internal/platform/logging"
)

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	client := NewClient(ClientConfig{
		HTTPClient: server.Client(),
		BaseURL:    server.URL,
		Logger:     logging.NewNop(),
	})
	return client, server
}

func TestFetchBootstrap_MapsAndNormalizes(t *testing.T) {
	t.Parallel()

	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bootstrap-static/" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{
			"events": [
				{"id": 1, "name": "Gameweek 1", "is_current": false, "finished": true},
				{"id": 2, "name": "Gameweek 2", "is_current": true, "finished": false}
			],
			"teams": [{"id": 3, "name": "Arsenal", "short_name": "ARS", "strength": 5}],
			"elements": [
				{"id": 10, "web_name": "Saka", "team": 3, "element_type": 3,
				 "now_cost": 87, "form": "6.4", "selected_by_percent": "45.2", "ict_index": "12.1"},
				{"id": 11, "web_name": "Raya", "team": 3, "element_type": 1,
				 "now_cost": 55, "form": "", "selected_by_percent": "10.0", "ict_index": ""},
				{"id": 12, "web_name": "Unknown", "team": 3, "element_type": 9,
				 "now_cost": 40, "form": "1.0", "selected_by_percent": "0.1", "ict_index": "0.5"}
			]
		}`))
	}))
	defer server.Close()

	snapshot, err := client.FetchBootstrap(context.Background())
	if err != nil {
		t.Fatalf("fetch bootstrap: %v", err)
	}

	gw, ok := snapshot.CurrentGameweek()
	if !ok || gw != 2 {
		t.Fatalf("unexpected current gameweek: gw=%d ok=%v", gw, ok)
	}

	// Element type 9 has no position mapping and is dropped.
	if len(snapshot.Players) != 2 {
		t.Fatalf("expected 2 players, got %d", len(snapshot.Players))
	}

	saka := snapshot.Players[0]
	if saka.Position != fpl.PositionMidfielder {
		t.Fatalf("unexpected position: %s", saka.Position)
	}
	if saka.Cost != 8.7 {
		t.Fatalf("expected cost in millions, got %v", saka.Cost)
	}
	if saka.Form != 6.4 || saka.ICTIndex != 12.1 {
		t.Fatalf("unexpected decimals: form=%v ict=%v", saka.Form, saka.ICTIndex)
	}

	// Empty string decimals normalize to zero at the boundary.
	raya := snapshot.Players[1]
	if raya.Form != 0 || raya.ICTIndex != 0 {
		t.Fatalf("expected zero defaults, got form=%v ict=%v", raya.Form, raya.ICTIndex)
	}
}

func TestFetchPlayerHistory_ToleratesUnknownFields(t *testing.T) {
	t.Parallel()

	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/element-summary/10/" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{
			"fixtures": [{"id": 99}],
			"history": [
				{"round": 1, "minutes": 90, "total_points": 8, "goals_scored": 1,
				 "assists": 0, "bonus": 2, "expected_goals": "0.61"},
				{"round": 2, "minutes": 0, "total_points": 0, "goals_scored": 0,
				 "assists": 0, "bonus": 0}
			]
		}`))
	}))
	defer server.Close()

	history, err := client.FetchPlayerHistory(context.Background(), 10)
	if err != nil {
		t.Fatalf("fetch player history: %v", err)
	}
	if history.PlayerID != 10 {
		t.Fatalf("unexpected player id: %d", history.PlayerID)
	}
	if len(history.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(history.Entries))
	}
	if got := history.Entries[0]; got.Round != 1 || got.TotalPoints != 8 || got.Goals != 1 || got.Bonus != 2 {
		t.Fatalf("unexpected first entry: %+v", got)
	}
}

func TestFetchFixtures_NullEventBecomesZeroGameweek(t *testing.T) {
	t.Parallel()

	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"id": 1, "event": 5, "team_h": 3, "team_a": 4, "finished": false,
			 "team_h_difficulty": 2, "team_a_difficulty": 4},
			{"id": 2, "event": null, "team_h": 5, "team_a": 6, "finished": false,
			 "team_h_difficulty": 3, "team_a_difficulty": 3}
		]`))
	}))
	defer server.Close()

	fixtures, err := client.FetchFixtures(context.Background())
	if err != nil {
		t.Fatalf("fetch fixtures: %v", err)
	}
	if len(fixtures) != 2 {
		t.Fatalf("expected 2 fixtures, got %d", len(fixtures))
	}
	if fixtures[0].Gameweek != 5 {
		t.Fatalf("unexpected gameweek: %d", fixtures[0].Gameweek)
	}
	if fixtures[1].Gameweek != 0 {
		t.Fatalf("unscheduled fixture should map to gameweek 0, got %d", fixtures[1].Gameweek)
	}

	difficulty, ok := fixtures[0].DifficultyFor(4)
	if !ok || difficulty != 4 {
		t.Fatalf("unexpected away difficulty: %d ok=%v", difficulty, ok)
	}
}

func TestFetchTeamPicks_RequiresExplicitGameweek(t *testing.T) {
	t.Parallel()

	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/entry/12345/event/7/picks/" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{
			"picks": [
				{"element": 10, "is_captain": true, "is_vice_captain": false, "multiplier": 2},
				{"element": 11, "is_captain": false, "is_vice_captain": true, "multiplier": 1}
			]
		}`))
	}))
	defer server.Close()

	if _, err := client.FetchTeamPicks(context.Background(), 12345, 0); err == nil {
		t.Fatalf("expected error for missing gameweek")
	}

	picks, err := client.FetchTeamPicks(context.Background(), 12345, 7)
	if err != nil {
		t.Fatalf("fetch team picks: %v", err)
	}
	if picks.Gameweek != 7 || len(picks.Picks) != 2 {
		t.Fatalf("unexpected picks: %+v", picks)
	}
	if !picks.Picks[0].IsCaptain || picks.Picks[0].Multiplier != 2 {
		t.Fatalf("unexpected captain pick: %+v", picks.Picks[0])
	}
}

func TestDoJSON_NonSuccessStatusIsHTTPError(t *testing.T) {
	t.Parallel()

	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := client.FetchBootstrap(context.Background())
	if err == nil {
		t.Fatalf("expected error")
	}

	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	if httpErr.Status != http.StatusServiceUnavailable {
		t.Fatalf("unexpected status: %d", httpErr.Status)
	}
}

func TestDoJSON_ConnectionRefusedIsTransportError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	client := NewClient(ClientConfig{
		HTTPClient: server.Client(),
		BaseURL:    server.URL,
		Logger:     logging.NewNop(),
	})
	server.Close()

	_, err := client.FetchBootstrap(context.Background())
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
}
