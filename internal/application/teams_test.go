package application

import "testing"

func TestAllocateTeams(t *testing.T) {
	t.Parallel()

	cases := []struct {
		players   int
		werewolves int
	}{
		{players: 3, werewolves: 1},
		{players: 4, werewolves: 1},
		{players: 5, werewolves: 2},
		{players: 6, werewolves: 2},
		{players: 7, werewolves: 3},
		{players: 8, werewolves: 3},
		{players: 9, werewolves: 4},
		{players: 10, werewolves: 4},
		{players: 11, werewolves: 5},
		{players: 12, werewolves: 5},
	}

	for _, tc := range cases {
		alloc := AllocateTeams(tc.players)
		if alloc.Werewolves != tc.werewolves {
			t.Errorf("AllocateTeams(%d): got %d werewolves, want %d", tc.players, alloc.Werewolves, tc.werewolves)
		}
		if alloc.Villagers+alloc.Werewolves != tc.players {
			t.Errorf("AllocateTeams(%d): teams sum to %d", tc.players, alloc.Villagers+alloc.Werewolves)
		}
		if alloc.Villagers <= alloc.Werewolves {
			t.Errorf("AllocateTeams(%d): villagers (%d) must outnumber werewolves (%d)", tc.players, alloc.Villagers, alloc.Werewolves)
		}
	}
}

func TestTeamAllocationLabels(t *testing.T) {
	t.Parallel()

	labels := AllocateTeams(7).Labels()
	if len(labels) != 7 {
		t.Fatalf("expected 7 labels, got %d", len(labels))
	}

	villagers, werewolves := 0, 0
	for _, label := range labels {
		switch label {
		case TeamVillager:
			villagers++
		case TeamWerewolf:
			werewolves++
		default:
			t.Fatalf("unexpected team label %q", label)
		}
	}
	if villagers != 4 || werewolves != 3 {
		t.Fatalf("expected 4 villagers and 3 werewolves, got %d and %d", villagers, werewolves)
	}
}
