package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/village-api/internal/application"
	"github.com/example/village-api/internal/persistence"
)

const turnColumns = "id, game_id, number, phase, is_active, grand_inquisitor_id, current_player_id, created_at"

// CreateTurn inserts a turn record.
func (s *Storage) CreateTurn(ctx context.Context, turn application.Turn) (application.Turn, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO turns (id, game_id, number, phase, is_active, grand_inquisitor_id, current_player_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		turn.ID,
		turn.GameID,
		turn.Number,
		int(turn.Phase),
		boolToInt(turn.IsActive),
		turn.GrandInquisitorID,
		nullString(&turn.CurrentPlayerID),
		formatTime(turn.CreatedAt),
	)
	if err != nil {
		return application.Turn{}, fmt.Errorf("insert turn: %w", mapError(err))
	}
	return turn, nil
}

// GetTurn fetches a turn by ID.
func (s *Storage) GetTurn(ctx context.Context, id string) (application.Turn, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+turnColumns+` FROM turns WHERE id = ?`, id)
	return scanTurn(row)
}

// UpdateTurn persists mutable turn fields.
func (s *Storage) UpdateTurn(ctx context.Context, turn application.Turn) (application.Turn, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE turns
		SET phase = ?, is_active = ?, grand_inquisitor_id = ?, current_player_id = ?
		WHERE id = ?
	`,
		int(turn.Phase),
		boolToInt(turn.IsActive),
		turn.GrandInquisitorID,
		nullString(&turn.CurrentPlayerID),
		turn.ID,
	)
	if err != nil {
		return application.Turn{}, fmt.Errorf("update turn: %w", mapError(err))
	}
	if err := requireAffected(result); err != nil {
		return application.Turn{}, err
	}
	return turn, nil
}

// GetActiveTurn fetches the single active turn of a game.
func (s *Storage) GetActiveTurn(ctx context.Context, gameID string) (application.Turn, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+turnColumns+` FROM turns WHERE game_id = ? AND is_active = 1
	`, gameID)
	return scanTurn(row)
}

// EndTurn closes the given turn and opens the next one in a single
// transaction. The close is a guarded update: if the turn is no longer
// active the whole mutation fails with persistence.ErrConflict, so two
// concurrent end requests cannot both advance the game.
func (s *Storage) EndTurn(ctx context.Context, endedTurnID string, next application.Turn) (application.Turn, error) {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE turns SET is_active = 0 WHERE id = ? AND is_active = 1
		`, endedTurnID)
		if err != nil {
			return fmt.Errorf("close turn: %w", mapError(err))
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			return persistence.ErrConflict
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO turns (id, game_id, number, phase, is_active, grand_inquisitor_id, current_player_id, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`,
			next.ID,
			next.GameID,
			next.Number,
			int(next.Phase),
			boolToInt(next.IsActive),
			next.GrandInquisitorID,
			nullString(&next.CurrentPlayerID),
			formatTime(next.CreatedAt),
		); err != nil {
			return fmt.Errorf("open next turn: %w", mapError(err))
		}
		return nil
	})
	if err != nil {
		return application.Turn{}, err
	}
	return next, nil
}

func scanTurn(row *sql.Row) (application.Turn, error) {
	var (
		turn          application.Turn
		phase         int
		isActive      int
		currentPlayer sql.NullString
		createdAt     string
	)
	if err := row.Scan(
		&turn.ID,
		&turn.GameID,
		&turn.Number,
		&phase,
		&isActive,
		&turn.GrandInquisitorID,
		&currentPlayer,
		&createdAt,
	); err != nil {
		return application.Turn{}, mapError(err)
	}

	turn.Phase = application.Phase(phase)
	turn.IsActive = isActive != 0
	if currentPlayer.Valid {
		turn.CurrentPlayerID = currentPlayer.String
	}

	var err error
	if turn.CreatedAt, err = parseTime(createdAt); err != nil {
		return application.Turn{}, err
	}
	return turn, nil
}
