package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"time"

	"github.com/example/village-api/internal/persistence"
)

// Game constants carried over from the original rules: a village holds
// between 3 and 12 players and always exactly 12 huts.
const (
	MinPlayers        = 3
	MaxPlayers        = 12
	RequiredResidents = 12
)

// GameRepository captures the persistence operations needed for game records.
type GameRepository interface {
	CreateGame(ctx context.Context, game Game) (Game, error)
	GetGame(ctx context.Context, id string) (Game, error)
	UpdateGame(ctx context.Context, game Game) (Game, error)
	// StartGame persists the whole start mutation as a single atomic unit:
	// the stamped game, every reassigned player and hut, and the opening
	// turn. A join arriving mid-start must not interleave.
	StartGame(ctx context.Context, game Game, players []Player, huts []Hut, turn Turn) (Turn, error)
}

// PlayerRepository captures the persistence operations needed for seats.
type PlayerRepository interface {
	CreatePlayer(ctx context.Context, player Player) (Player, error)
	UpdatePlayer(ctx context.Context, player Player) (Player, error)
	GetPlayer(ctx context.Context, id string) (Player, error)
	GetPlayerByUser(ctx context.Context, gameID, userID string) (Player, error)
	// ListActivePlayers returns non-withdrawn players ordered by position.
	ListActivePlayers(ctx context.Context, gameID string) ([]Player, error)
}

// RoleRepository exposes lookups against the seeded role catalog.
type RoleRepository interface {
	GetRoleByKind(ctx context.Context, kind RoleKind) (Role, error)
	ListRoles(ctx context.Context) ([]Role, error)
}

// ResidentRepository captures the persistence operations needed for the hidden board.
type ResidentRepository interface {
	CreateResident(ctx context.Context, resident Resident) (Resident, error)
	GetResident(ctx context.Context, id string) (Resident, error)
	CountResidents(ctx context.Context, gameID string) (int, error)
	CountResidentsByRole(ctx context.Context, gameID, roleID string) (int, error)
}

// HutRepository captures the persistence operations needed for position slots.
type HutRepository interface {
	CreateHut(ctx context.Context, hut Hut) (Hut, error)
	GetHut(ctx context.Context, id string) (Hut, error)
	UpdateHut(ctx context.Context, hut Hut) (Hut, error)
	GetHutByResident(ctx context.Context, residentID string) (Hut, error)
	ListHuts(ctx context.Context, gameID string) ([]Hut, error)
}

// TurnWriter is the slice of turn persistence the game service needs to
// open a game's first turn.
type TurnWriter interface {
	CreateTurn(ctx context.Context, turn Turn) (Turn, error)
}

// ShuffleFunc randomizes n elements in place through swap. The default is
// a uniform Fisher-Yates permutation.
type ShuffleFunc func(n int, swap func(i, j int))

// GameService orchestrates the session lifecycle: creation, roster
// changes, board population, start, and end.
type GameService struct {
	games       GameRepository
	players     PlayerRepository
	roles       RoleRepository
	residents   ResidentRepository
	huts        HutRepository
	idGenerator func() string
	now         func() time.Time
	shuffle     ShuffleFunc
	locks       *gameLockRegistry
	logger      *slog.Logger
}

// NewGameService constructs a game service with the provided dependencies.
func NewGameService(games GameRepository, players PlayerRepository, roles RoleRepository, residents ResidentRepository, huts HutRepository, idGenerator func() string, now func() time.Time) *GameService {
	return NewGameServiceWithLogger(games, players, roles, residents, huts, idGenerator, now, nil, nil)
}

// NewGameServiceWithLogger constructs a game service with a shuffle source and logger.
func NewGameServiceWithLogger(games GameRepository, players PlayerRepository, roles RoleRepository, residents ResidentRepository, huts HutRepository, idGenerator func() string, now func() time.Time, shuffle ShuffleFunc, logger *slog.Logger) *GameService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if shuffle == nil {
		shuffle = rand.Shuffle
	}
	return &GameService{
		games:       games,
		players:     players,
		roles:       roles,
		residents:   residents,
		huts:        huts,
		idGenerator: idGenerator,
		now:         now,
		shuffle:     shuffle,
		locks:       newGameLockRegistry(),
		logger:      defaultLogger(logger),
	}
}

func (s *GameService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "GameService", operation, attrs...)
}

// CreateGame creates a game and seats its owner at position 1.
func (s *GameService) CreateGame(ctx context.Context, principal Principal) (game Game, owner Player, err error) {
	if s == nil {
		err = fmt.Errorf("GameService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateGame", "principal_id", principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create game", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("game_id", game.ID, "owner_player_id", owner.ID).InfoContext(ctx, "game created")
	}()

	now := s.now()
	game = Game{ID: s.idGenerator(), CreatedAt: now}
	game, err = s.games.CreateGame(ctx, game)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	owner = Player{
		ID:        s.idGenerator(),
		GameID:    game.ID,
		UserID:    principal.UserID,
		IsOwner:   true,
		Team:      TeamVillager,
		Position:  1,
		CreatedAt: now,
	}
	owner, err = s.players.CreatePlayer(ctx, owner)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	game.OwnerPlayerID = &owner.ID
	game, err = s.games.UpdateGame(ctx, game)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	return
}

// GetGame retrieves a game by ID.
func (s *GameService) GetGame(ctx context.Context, id string) (Game, error) {
	if s == nil {
		return Game{}, fmt.Errorf("GameService is nil")
	}
	game, err := s.games.GetGame(ctx, id)
	if err != nil {
		return Game{}, mapRepoError(err)
	}
	return game, nil
}

// GetPlayerByUser resolves the seat a user identity holds in a game.
func (s *GameService) GetPlayerByUser(ctx context.Context, gameID, userID string) (Player, error) {
	if s == nil {
		return Player{}, fmt.Errorf("GameService is nil")
	}
	player, err := s.players.GetPlayerByUser(ctx, gameID, userID)
	if err != nil {
		return Player{}, mapRepoError(err)
	}
	return player, nil
}

// JoinGame seats a user in a game. Rejoining after a withdrawal restores
// the original seat with its position and history intact.
func (s *GameService) JoinGame(ctx context.Context, principal Principal, gameID string) (player Player, err error) {
	if s == nil {
		err = fmt.Errorf("GameService is nil")
		return
	}

	logger := s.loggerWith(ctx, "JoinGame",
		"principal_id", principal.UserID,
		"game_id", gameID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to join game", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("player_id", player.ID, "position", player.Position).InfoContext(ctx, "player joined")
	}()

	unlock := s.locks.acquire(gameID)
	defer unlock()

	var game Game
	game, err = s.games.GetGame(ctx, gameID)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	if game.HasStarted() {
		err = ErrGameAlreadyStarted
		return
	}
	if game.HasEnded() {
		err = ErrGameAlreadyEnded
		return
	}

	var existing Player
	var seated bool
	existing, err = s.players.GetPlayerByUser(ctx, gameID, principal.UserID)
	switch {
	case err == nil:
		if !existing.HasLeft() {
			err = ErrPlayerAlreadyJoined
			return
		}
		seated = true
	case errors.Is(err, persistence.ErrNotFound):
		err = nil
	default:
		err = mapRepoError(err)
		return
	}

	var active []Player
	active, err = s.players.ListActivePlayers(ctx, gameID)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	if len(active) >= MaxPlayers {
		err = ErrMaxPlayersReached
		return
	}

	if seated {
		existing.WithdrawnAt = nil
		player, err = s.players.UpdatePlayer(ctx, existing)
		if err != nil {
			err = mapRepoError(err)
		}
		return
	}

	player = Player{
		ID:        s.idGenerator(),
		GameID:    gameID,
		UserID:    principal.UserID,
		Team:      TeamVillager,
		Position:  len(active) + 1,
		CreatedAt: s.now(),
	}
	player, err = s.players.CreatePlayer(ctx, player)
	if err != nil {
		err = mapRepoError(err)
	}
	return
}

// LeaveGame withdraws the principal's seat. The record is kept; only the
// withdrawal is stamped.
func (s *GameService) LeaveGame(ctx context.Context, principal Principal, gameID string) (err error) {
	if s == nil {
		return fmt.Errorf("GameService is nil")
	}

	logger := s.loggerWith(ctx, "LeaveGame",
		"principal_id", principal.UserID,
		"game_id", gameID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to leave game", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "player left")
	}()

	unlock := s.locks.acquire(gameID)
	defer unlock()

	var game Game
	game, err = s.games.GetGame(ctx, gameID)
	if err != nil {
		return mapRepoError(err)
	}

	var player Player
	player, err = s.players.GetPlayerByUser(ctx, gameID, principal.UserID)
	if err != nil {
		return mapRepoError(err)
	}

	if player.HasLeft() {
		return ErrPlayerAlreadyLeft
	}
	if game.HasStarted() {
		return ErrGameAlreadyStarted
	}
	if game.HasEnded() {
		return ErrGameAlreadyEnded
	}

	withdrawn := s.now()
	player.WithdrawnAt = &withdrawn
	if _, err = s.players.UpdatePlayer(ctx, player); err != nil {
		return mapRepoError(err)
	}
	return nil
}

// AddResident places a hidden role-holder on the board together with its
// hut. Legal only before start; the role's population cap is enforced
// here, not at start time.
func (s *GameService) AddResident(ctx context.Context, gameID string, kind RoleKind) (resident Resident, err error) {
	if s == nil {
		err = fmt.Errorf("GameService is nil")
		return
	}

	logger := s.loggerWith(ctx, "AddResident",
		"game_id", gameID,
		"role", string(kind),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to add resident", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("resident_id", resident.ID).InfoContext(ctx, "resident added")
	}()

	unlock := s.locks.acquire(gameID)
	defer unlock()

	var game Game
	game, err = s.games.GetGame(ctx, gameID)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	if game.HasStarted() {
		err = ErrGameAlreadyStarted
		return
	}
	if game.HasEnded() {
		err = ErrGameAlreadyEnded
		return
	}

	var role Role
	role, err = s.roles.GetRoleByKind(ctx, kind)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	if role.MaxCount != nil {
		var count int
		count, err = s.residents.CountResidentsByRole(ctx, gameID, role.ID)
		if err != nil {
			err = mapRepoError(err)
			return
		}
		if count >= *role.MaxCount {
			err = ErrMaxResidentForRoleReached
			return
		}
	}

	resident = Resident{
		ID:     s.idGenerator(),
		GameID: gameID,
		RoleID: role.ID,
	}
	resident, err = s.residents.CreateResident(ctx, resident)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	// Placeholder position until the start shuffle assigns 1..N.
	hut := Hut{
		ID:         s.idGenerator(),
		GameID:     gameID,
		ResidentID: resident.ID,
		Position:   0,
	}
	if _, err = s.huts.CreateHut(ctx, hut); err != nil {
		err = mapRepoError(err)
		return
	}

	return
}

// StartGame freezes the roster and opens turn 1. Hut positions and the
// player/team pairing are shuffled independently so that turn order never
// correlates with team.
func (s *GameService) StartGame(ctx context.Context, gameID string) (turn Turn, err error) {
	if s == nil {
		err = fmt.Errorf("GameService is nil")
		return
	}

	logger := s.loggerWith(ctx, "StartGame", "game_id", gameID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to start game", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("turn_id", turn.ID).InfoContext(ctx, "game started")
	}()

	unlock := s.locks.acquire(gameID)
	defer unlock()

	var game Game
	game, err = s.games.GetGame(ctx, gameID)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	if game.HasStarted() {
		err = ErrGameAlreadyStarted
		return
	}
	if game.HasEnded() {
		err = ErrGameAlreadyEnded
		return
	}

	var players []Player
	players, err = s.players.ListActivePlayers(ctx, gameID)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	if len(players) < MinPlayers {
		err = ErrInsufficientPlayers
		return
	}

	var residentCount int
	residentCount, err = s.residents.CountResidents(ctx, gameID)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	if residentCount != RequiredResidents {
		err = ErrIncorrectResidentCount
		return
	}

	var huts []Hut
	huts, err = s.huts.ListHuts(ctx, gameID)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	// Uniform permutation of hut positions over 1..N.
	positions := make([]int, len(huts))
	for i := range positions {
		positions[i] = i + 1
	}
	s.shuffle(len(positions), func(i, j int) {
		positions[i], positions[j] = positions[j], positions[i]
	})
	for i := range huts {
		huts[i].Position = positions[i]
	}

	// First shuffle decides turn order, the second which seats get which
	// team label.
	s.shuffle(len(players), func(i, j int) {
		players[i], players[j] = players[j], players[i]
	})
	labels := AllocateTeams(len(players)).Labels()
	s.shuffle(len(labels), func(i, j int) {
		labels[i], labels[j] = labels[j], labels[i]
	})

	var grandInquisitor Player
	for i := range players {
		players[i].Position = i + 1
		players[i].Team = labels[i]
		if players[i].Position == 1 {
			grandInquisitor = players[i]
		}
	}

	now := s.now()
	game.StartedAt = &now

	turn = Turn{
		ID:                s.idGenerator(),
		GameID:            gameID,
		Number:            1,
		Phase:             PhaseInitial,
		IsActive:          true,
		GrandInquisitorID: grandInquisitor.ID,
		CurrentPlayerID:   grandInquisitor.ID,
		CreatedAt:         now,
	}

	turn, err = s.games.StartGame(ctx, game, players, huts, turn)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	return
}

// EndGame stamps the terminal timestamp. Ending twice is rejected, in
// line with the turn machine's guard.
func (s *GameService) EndGame(ctx context.Context, gameID string) (err error) {
	if s == nil {
		return fmt.Errorf("GameService is nil")
	}

	logger := s.loggerWith(ctx, "EndGame", "game_id", gameID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to end game", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "game ended")
	}()

	unlock := s.locks.acquire(gameID)
	defer unlock()

	var game Game
	game, err = s.games.GetGame(ctx, gameID)
	if err != nil {
		return mapRepoError(err)
	}
	if game.HasEnded() {
		return ErrGameAlreadyEnded
	}

	ended := s.now()
	game.EndedAt = &ended
	if _, err = s.games.UpdateGame(ctx, game); err != nil {
		return mapRepoError(err)
	}

	s.locks.forget(gameID)
	return nil
}

// NextPlayer returns the cyclic successor of a player among the
// non-withdrawn roster ordered by position, wrapping from the maximum
// position back to the minimum.
func (s *GameService) NextPlayer(ctx context.Context, gameID, playerID string) (Player, error) {
	if s == nil {
		return Player{}, fmt.Errorf("GameService is nil")
	}

	current, err := s.players.GetPlayer(ctx, playerID)
	if err != nil {
		return Player{}, mapRepoError(err)
	}

	active, err := s.players.ListActivePlayers(ctx, gameID)
	if err != nil {
		return Player{}, mapRepoError(err)
	}
	return nextByPosition(active, current.Position)
}

// nextByPosition picks the seat with the smallest position greater than
// the given one, wrapping to the smallest position overall.
func nextByPosition(active []Player, position int) (Player, error) {
	if len(active) == 0 {
		return Player{}, ErrNotFound
	}

	sorted := make([]Player, len(active))
	copy(sorted, active)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Position < sorted[j].Position })

	for _, p := range sorted {
		if p.Position > position {
			return p, nil
		}
	}
	return sorted[0], nil
}

// mapRepoError translates persistence sentinels into application errors.
func mapRepoError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrDuplicate):
		return ErrAlreadyExists
	default:
		return err
	}
}
