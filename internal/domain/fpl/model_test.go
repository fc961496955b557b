package fpl

import "testing"

func TestPositionFromElementType(t *testing.T) {
	cases := []struct {
		elementType int
		want        Position
		ok          bool
	}{
		{1, PositionGoalkeeper, true},
		{2, PositionDefender, true},
		{3, PositionMidfielder, true},
		{4, PositionForward, true},
		{0, "", false},
		{5, "", false},
	}

	for _, tc := range cases {
		got, ok := PositionFromElementType(tc.elementType)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("element type %d: got (%q, %v), want (%q, %v)", tc.elementType, got, ok, tc.want, tc.ok)
		}
	}
}

func TestHistoryEntry_Qualifies(t *testing.T) {
	cases := []struct {
		name  string
		entry HistoryEntry
		gw    int
		want  bool
	}{
		{"played in past round", HistoryEntry{Round: 10, Minutes: 90}, 12, true},
		{"played in current round", HistoryEntry{Round: 12, Minutes: 1}, 12, true},
		{"future round", HistoryEntry{Round: 13, Minutes: 90}, 12, false},
		{"did not play", HistoryEntry{Round: 10, Minutes: 0}, 12, false},
	}

	for _, tc := range cases {
		if got := tc.entry.Qualifies(tc.gw); got != tc.want {
			t.Fatalf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestBootstrap_CurrentGameweek(t *testing.T) {
	boot := Bootstrap{Events: []Event{
		{ID: 1, Finished: true},
		{ID: 2, IsCurrent: true},
		{ID: 3},
	}}

	gw, ok := boot.CurrentGameweek()
	if !ok || gw != 2 {
		t.Fatalf("got (%d, %v), want (2, true)", gw, ok)
	}

	none := Bootstrap{Events: []Event{{ID: 1}, {ID: 2}}}
	if _, ok := none.CurrentGameweek(); ok {
		t.Fatalf("expected no current gameweek")
	}
}

func TestFixture_DifficultyFor(t *testing.T) {
	fixture := Fixture{HomeTeamID: 1, AwayTeamID: 2, HomeDifficulty: 2, AwayDifficulty: 4}

	if got, ok := fixture.DifficultyFor(1); !ok || got != 2 {
		t.Fatalf("home side: got (%d, %v)", got, ok)
	}
	if got, ok := fixture.DifficultyFor(2); !ok || got != 4 {
		t.Fatalf("away side: got (%d, %v)", got, ok)
	}
	if _, ok := fixture.DifficultyFor(99); ok {
		t.Fatalf("expected no difficulty for uninvolved team")
	}
}

func TestPlayer_Validate(t *testing.T) {
	valid := Player{ID: 1, Name: "Saka", Position: PositionMidfielder}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid player, got %v", err)
	}

	invalid := []Player{
		{ID: 0, Name: "Saka", Position: PositionMidfielder},
		{ID: 1, Name: "", Position: PositionMidfielder},
		{ID: 1, Name: "Saka", Position: "ST"},
	}
	for i, p := range invalid {
		if err := p.Validate(); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
}
