package application

// TeamAllocation is the multiset of team labels assigned at start time.
type TeamAllocation struct {
	Villagers  int
	Werewolves int
}

// AllocateTeams splits playerCount into team sizes. The werewolf side gets
// ceil(n/2)-1, the village floor(n/2)+1; the two always sum to n.
// Randomness applies only to which players receive which label, never to
// the split itself.
func AllocateTeams(playerCount int) TeamAllocation {
	if playerCount <= 0 {
		return TeamAllocation{}
	}
	werewolves := (playerCount+1)/2 - 1
	return TeamAllocation{
		Villagers:  playerCount - werewolves,
		Werewolves: werewolves,
	}
}

// Labels expands the allocation into a slice of team labels, villagers
// first. Callers shuffle the slice before pairing it with players.
func (a TeamAllocation) Labels() []Team {
	labels := make([]Team, 0, a.Villagers+a.Werewolves)
	for i := 0; i < a.Villagers; i++ {
		labels = append(labels, TeamVillager)
	}
	for i := 0; i < a.Werewolves; i++ {
		labels = append(labels, TeamWerewolf)
	}
	return labels
}
