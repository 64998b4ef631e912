package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/village-api/internal/application"
	"github.com/example/village-api/internal/persistence"
)

const gameColumns = "id, owner_player_id, winning_team, created_at, started_at, ended_at"

// CreateGame inserts a game record.
func (s *Storage) CreateGame(ctx context.Context, game application.Game) (application.Game, error) {
	var winning sql.NullString
	if game.WinningTeam != nil {
		winning = sql.NullString{String: string(*game.WinningTeam), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO games (id, owner_player_id, winning_team, created_at, started_at, ended_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		game.ID,
		nullString(game.OwnerPlayerID),
		winning,
		formatTime(game.CreatedAt),
		formatNullTime(game.StartedAt),
		formatNullTime(game.EndedAt),
	)
	if err != nil {
		return application.Game{}, fmt.Errorf("insert game: %w", mapError(err))
	}
	return game, nil
}

// GetGame fetches a game by ID.
func (s *Storage) GetGame(ctx context.Context, id string) (application.Game, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+gameColumns+` FROM games WHERE id = ?`, id)
	return scanGame(row)
}

// UpdateGame persists mutable game fields.
func (s *Storage) UpdateGame(ctx context.Context, game application.Game) (application.Game, error) {
	var winning sql.NullString
	if game.WinningTeam != nil {
		winning = sql.NullString{String: string(*game.WinningTeam), Valid: true}
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE games
		SET owner_player_id = ?, winning_team = ?, started_at = ?, ended_at = ?
		WHERE id = ?
	`,
		nullString(game.OwnerPlayerID),
		winning,
		formatNullTime(game.StartedAt),
		formatNullTime(game.EndedAt),
		game.ID,
	)
	if err != nil {
		return application.Game{}, fmt.Errorf("update game: %w", mapError(err))
	}
	if err := requireAffected(result); err != nil {
		return application.Game{}, err
	}
	return game, nil
}

// StartGame commits the whole start mutation in one transaction: the
// stamped game, every reassigned player and hut, and the opening turn.
func (s *Storage) StartGame(ctx context.Context, game application.Game, players []application.Player, huts []application.Hut, turn application.Turn) (application.Turn, error) {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var winning sql.NullString
		if game.WinningTeam != nil {
			winning = sql.NullString{String: string(*game.WinningTeam), Valid: true}
		}
		result, err := tx.ExecContext(ctx, `
			UPDATE games
			SET owner_player_id = ?, winning_team = ?, started_at = ?, ended_at = ?
			WHERE id = ? AND started_at IS NULL
		`,
			nullString(game.OwnerPlayerID),
			winning,
			formatNullTime(game.StartedAt),
			formatNullTime(game.EndedAt),
			game.ID,
		)
		if err != nil {
			return fmt.Errorf("stamp game start: %w", mapError(err))
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			// The guarded update saw the game already started (or gone).
			return persistence.ErrConflict
		}

		for _, player := range players {
			result, err := tx.ExecContext(ctx, `
				UPDATE players SET team = ?, position = ? WHERE id = ?
			`, string(player.Team), player.Position, player.ID)
			if err != nil {
				return fmt.Errorf("assign player %s: %w", player.ID, mapError(err))
			}
			if err := requireAffected(result); err != nil {
				return err
			}
		}

		for _, hut := range huts {
			result, err := tx.ExecContext(ctx, `
				UPDATE huts SET position = ? WHERE id = ?
			`, hut.Position, hut.ID)
			if err != nil {
				return fmt.Errorf("assign hut %s: %w", hut.ID, mapError(err))
			}
			if err := requireAffected(result); err != nil {
				return err
			}
		}

		if _, err := tx.ExecContext(ctx, `
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
		); err != nil {
			return fmt.Errorf("open first turn: %w", mapError(err))
		}
		return nil
	})
	if err != nil {
		return application.Turn{}, err
	}
	return turn, nil
}

func scanGame(row *sql.Row) (application.Game, error) {
	var (
		game      application.Game
		owner     sql.NullString
		winning   sql.NullString
		createdAt string
		startedAt sql.NullString
		endedAt   sql.NullString
	)
	if err := row.Scan(&game.ID, &owner, &winning, &createdAt, &startedAt, &endedAt); err != nil {
		return application.Game{}, mapError(err)
	}

	game.OwnerPlayerID = fromNullString(owner)
	if winning.Valid {
		team := application.Team(winning.String)
		game.WinningTeam = &team
	}

	var err error
	if game.CreatedAt, err = parseTime(createdAt); err != nil {
		return application.Game{}, err
	}
	if game.StartedAt, err = parseNullTime(startedAt); err != nil {
		return application.Game{}, err
	}
	if game.EndedAt, err = parseNullTime(endedAt); err != nil {
		return application.Game{}, err
	}
	return game, nil
}

// requireAffected turns a zero-row update into ErrNotFound so services
// can distinguish a missing record from a silent no-op.
func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return mapError(sql.ErrNoRows)
	}
	return nil
}
