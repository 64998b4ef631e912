package application

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/example/village-api/internal/persistence"
)

// memStore is an in-memory implementation of every repository interface
// the services consume. It mirrors the storage contract, including the
// persistence sentinels and the uniqueness gates.
type memStore struct {
	mu            sync.Mutex
	games         map[string]Game
	players       map[string]Player
	roles         map[RoleKind]Role
	residents     map[string]Resident
	huts          map[string]Hut
	turns         map[string]Turn
	actions       map[string]Action
	actionTargets map[string]ActionTarget
	votes         map[string]Vote
}

func newMemStore() *memStore {
	store := &memStore{
		games:         make(map[string]Game),
		players:       make(map[string]Player),
		roles:         make(map[RoleKind]Role),
		residents:     make(map[string]Resident),
		huts:          make(map[string]Hut),
		turns:         make(map[string]Turn),
		actions:       make(map[string]Action),
		actionTargets: make(map[string]ActionTarget),
		votes:         make(map[string]Vote),
	}
	for _, def := range RoleCatalog() {
		store.roles[def.Kind] = Role{
			ID:       "role-" + string(def.Kind),
			Name:     def.Name,
			Kind:     def.Kind,
			Team:     def.Team,
			MaxCount: def.MaxCount,
		}
	}
	return store
}

func (m *memStore) CreateGame(ctx context.Context, game Game) (Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.games[game.ID]; ok {
		return Game{}, persistence.ErrDuplicate
	}
	m.games[game.ID] = game
	return game, nil
}

func (m *memStore) GetGame(ctx context.Context, id string) (Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	game, ok := m.games[id]
	if !ok {
		return Game{}, persistence.ErrNotFound
	}
	return game, nil
}

func (m *memStore) UpdateGame(ctx context.Context, game Game) (Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.games[game.ID]; !ok {
		return Game{}, persistence.ErrNotFound
	}
	m.games[game.ID] = game
	return game, nil
}

func (m *memStore) StartGame(ctx context.Context, game Game, players []Player, huts []Hut, turn Turn) (Turn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.games[game.ID]
	if !ok {
		return Turn{}, persistence.ErrNotFound
	}
	if stored.HasStarted() {
		return Turn{}, persistence.ErrConflict
	}
	m.games[game.ID] = game
	for _, player := range players {
		m.players[player.ID] = player
	}
	for _, hut := range huts {
		m.huts[hut.ID] = hut
	}
	m.turns[turn.ID] = turn
	return turn, nil
}

func (m *memStore) CreatePlayer(ctx context.Context, player Player) (Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.players {
		if existing.GameID == player.GameID && existing.UserID == player.UserID {
			return Player{}, persistence.ErrDuplicate
		}
	}
	m.players[player.ID] = player
	return player, nil
}

func (m *memStore) UpdatePlayer(ctx context.Context, player Player) (Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.players[player.ID]; !ok {
		return Player{}, persistence.ErrNotFound
	}
	m.players[player.ID] = player
	return player, nil
}

func (m *memStore) GetPlayer(ctx context.Context, id string) (Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	player, ok := m.players[id]
	if !ok {
		return Player{}, persistence.ErrNotFound
	}
	return player, nil
}

func (m *memStore) GetPlayerByUser(ctx context.Context, gameID, userID string) (Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, player := range m.players {
		if player.GameID == gameID && player.UserID == userID {
			return player, nil
		}
	}
	return Player{}, persistence.ErrNotFound
}

func (m *memStore) ListActivePlayers(ctx context.Context, gameID string) ([]Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var players []Player
	for _, player := range m.players {
		if player.GameID == gameID && !player.HasLeft() {
			players = append(players, player)
		}
	}
	sort.Slice(players, func(i, j int) bool { return players[i].Position < players[j].Position })
	return players, nil
}

func (m *memStore) GetRoleByKind(ctx context.Context, kind RoleKind) (Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	role, ok := m.roles[kind]
	if !ok {
		return Role{}, persistence.ErrNotFound
	}
	return role, nil
}

func (m *memStore) ListRoles(ctx context.Context) ([]Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var roles []Role
	for _, role := range m.roles {
		roles = append(roles, role)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i].Name < roles[j].Name })
	return roles, nil
}

func (m *memStore) CreateResident(ctx context.Context, resident Resident) (Resident, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.residents[resident.ID] = resident
	return resident, nil
}

func (m *memStore) GetResident(ctx context.Context, id string) (Resident, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	resident, ok := m.residents[id]
	if !ok {
		return Resident{}, persistence.ErrNotFound
	}
	return resident, nil
}

func (m *memStore) CountResidents(ctx context.Context, gameID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, resident := range m.residents {
		if resident.GameID == gameID {
			count++
		}
	}
	return count, nil
}

func (m *memStore) CountResidentsByRole(ctx context.Context, gameID, roleID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, resident := range m.residents {
		if resident.GameID == gameID && resident.RoleID == roleID {
			count++
		}
	}
	return count, nil
}

func (m *memStore) CreateHut(ctx context.Context, hut Hut) (Hut, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.huts[hut.ID] = hut
	return hut, nil
}

func (m *memStore) GetHut(ctx context.Context, id string) (Hut, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	hut, ok := m.huts[id]
	if !ok {
		return Hut{}, persistence.ErrNotFound
	}
	return hut, nil
}

func (m *memStore) UpdateHut(ctx context.Context, hut Hut) (Hut, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.huts[hut.ID]; !ok {
		return Hut{}, persistence.ErrNotFound
	}
	m.huts[hut.ID] = hut
	return hut, nil
}

func (m *memStore) GetHutByResident(ctx context.Context, residentID string) (Hut, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, hut := range m.huts {
		if hut.ResidentID == residentID {
			return hut, nil
		}
	}
	return Hut{}, persistence.ErrNotFound
}

func (m *memStore) ListHuts(ctx context.Context, gameID string) ([]Hut, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var huts []Hut
	for _, hut := range m.huts {
		if hut.GameID == gameID {
			huts = append(huts, hut)
		}
	}
	sort.Slice(huts, func(i, j int) bool {
		if huts[i].Position != huts[j].Position {
			return huts[i].Position < huts[j].Position
		}
		return huts[i].ID < huts[j].ID
	})
	return huts, nil
}

func (m *memStore) CreateTurn(ctx context.Context, turn Turn) (Turn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns[turn.ID] = turn
	return turn, nil
}

func (m *memStore) GetTurn(ctx context.Context, id string) (Turn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	turn, ok := m.turns[id]
	if !ok {
		return Turn{}, persistence.ErrNotFound
	}
	return turn, nil
}

func (m *memStore) UpdateTurn(ctx context.Context, turn Turn) (Turn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.turns[turn.ID]; !ok {
		return Turn{}, persistence.ErrNotFound
	}
	m.turns[turn.ID] = turn
	return turn, nil
}

func (m *memStore) GetActiveTurn(ctx context.Context, gameID string) (Turn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, turn := range m.turns {
		if turn.GameID == gameID && turn.IsActive {
			return turn, nil
		}
	}
	return Turn{}, persistence.ErrNotFound
}

func (m *memStore) EndTurn(ctx context.Context, endedTurnID string, next Turn) (Turn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ended, ok := m.turns[endedTurnID]
	if !ok || !ended.IsActive {
		return Turn{}, persistence.ErrConflict
	}
	ended.IsActive = false
	m.turns[endedTurnID] = ended
	m.turns[next.ID] = next
	return next, nil
}

func (m *memStore) CreateAction(ctx context.Context, action Action) (Action, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.actions {
		if existing.TurnID != action.TurnID {
			continue
		}
		if existing.PlayerID == action.PlayerID || existing.ResidentID == action.ResidentID {
			return Action{}, persistence.ErrDuplicate
		}
	}
	m.actions[action.ID] = action
	return action, nil
}

func (m *memStore) GetTurnActionByPlayer(ctx context.Context, turnID, playerID string) (Action, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, action := range m.actions {
		if action.TurnID == turnID && action.PlayerID == playerID {
			return action, nil
		}
	}
	return Action{}, persistence.ErrNotFound
}

func (m *memStore) GetTurnActionByResident(ctx context.Context, turnID, residentID string) (Action, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, action := range m.actions {
		if action.TurnID == turnID && action.ResidentID == residentID {
			return action, nil
		}
	}
	return Action{}, persistence.ErrNotFound
}

func (m *memStore) CreateActionTarget(ctx context.Context, target ActionTarget) (ActionTarget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actionTargets[target.ID] = target
	return target, nil
}

func (m *memStore) CreateVote(ctx context.Context, vote Vote) (Vote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.votes[vote.ID] = vote
	return vote, nil
}

func (m *memStore) GetVote(ctx context.Context, id string) (Vote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	vote, ok := m.votes[id]
	if !ok {
		return Vote{}, persistence.ErrNotFound
	}
	return vote, nil
}

func (m *memStore) UpdateVote(ctx context.Context, vote Vote) (Vote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.votes[vote.ID]; !ok {
		return Vote{}, persistence.ErrNotFound
	}
	m.votes[vote.ID] = vote
	return vote, nil
}

func (m *memStore) ListTurnVotes(ctx context.Context, turnID string) ([]Vote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var votes []Vote
	for _, vote := range m.votes {
		if vote.TurnID == turnID {
			votes = append(votes, vote)
		}
	}
	sort.Slice(votes, func(i, j int) bool {
		if !votes[i].CreatedAt.Equal(votes[j].CreatedAt) {
			return votes[i].CreatedAt.Before(votes[j].CreatedAt)
		}
		return votes[i].ID < votes[j].ID
	})
	return votes, nil
}

// identityShuffle keeps slices in their original order so tests can
// reason about positions and team labels deterministically.
func identityShuffle(n int, swap func(i, j int)) {}

// fixedTime is the baseline instant used by the service tests.
var fixedTime = time.Date(2024, time.March, 14, 9, 0, 0, 0, time.UTC)
