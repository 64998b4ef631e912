package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/village-api/internal/application"
)

const actionColumns = "id, turn_id, player_id, resident_id, created_at"

// CreateAction inserts an action row. The UNIQUE indexes on
// (turn_id, player_id) and (turn_id, resident_id) are the atomic backstop
// for the one-action-per-turn rule; a collision surfaces as
// persistence.ErrDuplicate.
func (s *Storage) CreateAction(ctx context.Context, action application.Action) (application.Action, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO actions (id, turn_id, player_id, resident_id, created_at)
		VALUES (?, ?, ?, ?, ?)
	`,
		action.ID,
		action.TurnID,
		action.PlayerID,
		action.ResidentID,
		formatTime(action.CreatedAt),
	)
	if err != nil {
		return application.Action{}, fmt.Errorf("insert action: %w", mapError(err))
	}
	return action, nil
}

// GetTurnActionByPlayer fetches the action a player took in a turn.
func (s *Storage) GetTurnActionByPlayer(ctx context.Context, turnID, playerID string) (application.Action, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+actionColumns+` FROM actions WHERE turn_id = ? AND player_id = ?
	`, turnID, playerID)
	return scanAction(row)
}

// GetTurnActionByResident fetches the action a resident was spent on in a turn.
func (s *Storage) GetTurnActionByResident(ctx context.Context, turnID, residentID string) (application.Action, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+actionColumns+` FROM actions WHERE turn_id = ? AND resident_id = ?
	`, turnID, residentID)
	return scanAction(row)
}

// CreateActionTarget records a target reference for an action.
func (s *Storage) CreateActionTarget(ctx context.Context, target application.ActionTarget) (application.ActionTarget, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO action_targets (id, action_id, player_id, hut_id)
		VALUES (?, ?, ?, ?)
	`,
		target.ID,
		target.ActionID,
		nullString(target.PlayerID),
		nullString(target.HutID),
	)
	if err != nil {
		return application.ActionTarget{}, fmt.Errorf("insert action target: %w", mapError(err))
	}
	return target, nil
}

func scanAction(row *sql.Row) (application.Action, error) {
	var (
		action    application.Action
		createdAt string
	)
	if err := row.Scan(
		&action.ID,
		&action.TurnID,
		&action.PlayerID,
		&action.ResidentID,
		&createdAt,
	); err != nil {
		return application.Action{}, mapError(err)
	}

	var err error
	if action.CreatedAt, err = parseTime(createdAt); err != nil {
		return application.Action{}, err
	}
	return action, nil
}
