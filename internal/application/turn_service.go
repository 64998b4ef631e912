package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/village-api/internal/persistence"
)

// TurnRepository captures the persistence operations for the turn machine.
// The active turn is a derived lookup, never a stored back-reference on
// the game.
type TurnRepository interface {
	CreateTurn(ctx context.Context, turn Turn) (Turn, error)
	GetTurn(ctx context.Context, id string) (Turn, error)
	UpdateTurn(ctx context.Context, turn Turn) (Turn, error)
	GetActiveTurn(ctx context.Context, gameID string) (Turn, error)
	// EndTurn atomically deactivates the given turn and inserts its
	// successor. It returns persistence.ErrConflict when the turn was
	// already inactive, turning a concurrent double-end into a typed
	// rejection.
	EndTurn(ctx context.Context, endedTurnID string, next Turn) (Turn, error)
}

// TurnService drives the turn state machine: ending turns, rotating the
// grand inquisitor, and caller-driven phase progression.
type TurnService struct {
	turns       TurnRepository
	players     PlayerRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewTurnService constructs a turn service with the provided dependencies.
func NewTurnService(turns TurnRepository, players PlayerRepository, idGenerator func() string, now func() time.Time) *TurnService {
	return NewTurnServiceWithLogger(turns, players, idGenerator, now, nil)
}

// NewTurnServiceWithLogger constructs a turn service with a specified logger.
func NewTurnServiceWithLogger(turns TurnRepository, players PlayerRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *TurnService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &TurnService{
		turns:       turns,
		players:     players,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *TurnService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "TurnService", operation, attrs...)
}

// ActiveTurn returns the unique active turn of a game.
func (s *TurnService) ActiveTurn(ctx context.Context, gameID string) (Turn, error) {
	if s == nil {
		return Turn{}, fmt.Errorf("TurnService is nil")
	}
	turn, err := s.turns.GetActiveTurn(ctx, gameID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return Turn{}, ErrGameNotStarted
		}
		return Turn{}, mapRepoError(err)
	}
	return turn, nil
}

// EndTurn closes an active turn and opens its successor: number + 1,
// phase Day, with the grand inquisitorship rotated to the cyclic
// successor. The ended turn becomes immutable history.
func (s *TurnService) EndTurn(ctx context.Context, turnID string) (next Turn, err error) {
	if s == nil {
		err = fmt.Errorf("TurnService is nil")
		return
	}

	logger := s.loggerWith(ctx, "EndTurn", "turn_id", turnID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to end turn", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("next_turn_id", next.ID, "turn_number", next.Number).InfoContext(ctx, "turn ended")
	}()

	var turn Turn
	turn, err = s.turns.GetTurn(ctx, turnID)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	if !turn.IsActive {
		err = ErrTurnAlreadyEnded
		return
	}

	var inquisitor Player
	inquisitor, err = s.players.GetPlayer(ctx, turn.GrandInquisitorID)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	var active []Player
	active, err = s.players.ListActivePlayers(ctx, turn.GameID)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	var successor Player
	successor, err = nextByPosition(active, inquisitor.Position)
	if err != nil {
		return
	}

	next = Turn{
		ID:                s.idGenerator(),
		GameID:            turn.GameID,
		Number:            turn.Number + 1,
		Phase:             PhaseDay,
		IsActive:          true,
		GrandInquisitorID: successor.ID,
		CurrentPlayerID:   successor.ID,
		CreatedAt:         s.now(),
	}

	next, err = s.turns.EndTurn(ctx, turn.ID, next)
	if err != nil {
		if errors.Is(err, persistence.ErrConflict) {
			err = ErrTurnAlreadyEnded
			return
		}
		err = mapRepoError(err)
		return
	}
	return
}

// AdvancePhase moves an active turn one phase forward (Initial or Day
// toward Night). The engine exposes the transition; when to trigger it is
// the caller's concern.
func (s *TurnService) AdvancePhase(ctx context.Context, turnID string) (turn Turn, err error) {
	if s == nil {
		err = fmt.Errorf("TurnService is nil")
		return
	}

	logger := s.loggerWith(ctx, "AdvancePhase", "turn_id", turnID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to advance phase", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("phase", turn.Phase.String()).InfoContext(ctx, "phase advanced")
	}()

	turn, err = s.turns.GetTurn(ctx, turnID)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	if !turn.IsActive {
		err = ErrTurnAlreadyEnded
		return
	}
	if turn.Phase >= PhaseNight {
		err = ErrTurnPhaseExhausted
		return
	}

	turn.Phase++
	turn, err = s.turns.UpdateTurn(ctx, turn)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	return
}
