package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/village-api/internal/application"
)

const playerColumns = "id, game_id, user_id, is_owner, team, position, created_at, withdrawn_at"

// CreatePlayer inserts a seat record.
func (s *Storage) CreatePlayer(ctx context.Context, player application.Player) (application.Player, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO players (id, game_id, user_id, is_owner, team, position, created_at, withdrawn_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		player.ID,
		player.GameID,
		player.UserID,
		boolToInt(player.IsOwner),
		string(player.Team),
		player.Position,
		formatTime(player.CreatedAt),
		formatNullTime(player.WithdrawnAt),
	)
	if err != nil {
		return application.Player{}, fmt.Errorf("insert player: %w", mapError(err))
	}
	return player, nil
}

// UpdatePlayer persists mutable seat fields.
func (s *Storage) UpdatePlayer(ctx context.Context, player application.Player) (application.Player, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE players
		SET is_owner = ?, team = ?, position = ?, withdrawn_at = ?
		WHERE id = ?
	`,
		boolToInt(player.IsOwner),
		string(player.Team),
		player.Position,
		formatNullTime(player.WithdrawnAt),
		player.ID,
	)
	if err != nil {
		return application.Player{}, fmt.Errorf("update player: %w", mapError(err))
	}
	if err := requireAffected(result); err != nil {
		return application.Player{}, err
	}
	return player, nil
}

// GetPlayer fetches a seat by ID.
func (s *Storage) GetPlayer(ctx context.Context, id string) (application.Player, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+playerColumns+` FROM players WHERE id = ?`, id)
	return scanPlayer(row)
}

// GetPlayerByUser fetches the seat a user holds in a game, withdrawn or not.
func (s *Storage) GetPlayerByUser(ctx context.Context, gameID, userID string) (application.Player, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+playerColumns+` FROM players WHERE game_id = ? AND user_id = ?
	`, gameID, userID)
	return scanPlayer(row)
}

// ListActivePlayers returns non-withdrawn seats ordered by position.
func (s *Storage) ListActivePlayers(ctx context.Context, gameID string) ([]application.Player, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+playerColumns+`
		FROM players
		WHERE game_id = ? AND withdrawn_at IS NULL
		ORDER BY position
	`, gameID)
	if err != nil {
		return nil, fmt.Errorf("list active players: %w", mapError(err))
	}
	defer rows.Close()

	var players []application.Player
	for rows.Next() {
		player, err := scanPlayerRows(rows)
		if err != nil {
			return nil, err
		}
		players = append(players, player)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate players: %w", err)
	}
	return players, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlayer(row *sql.Row) (application.Player, error) {
	return scanPlayerFrom(row)
}

func scanPlayerRows(rows *sql.Rows) (application.Player, error) {
	return scanPlayerFrom(rows)
}

func scanPlayerFrom(scanner rowScanner) (application.Player, error) {
	var (
		player      application.Player
		isOwner     int
		team        string
		createdAt   string
		withdrawnAt sql.NullString
	)
	if err := scanner.Scan(
		&player.ID,
		&player.GameID,
		&player.UserID,
		&isOwner,
		&team,
		&player.Position,
		&createdAt,
		&withdrawnAt,
	); err != nil {
		return application.Player{}, mapError(err)
	}

	player.IsOwner = isOwner != 0
	player.Team = application.Team(team)

	var err error
	if player.CreatedAt, err = parseTime(createdAt); err != nil {
		return application.Player{}, err
	}
	if player.WithdrawnAt, err = parseNullTime(withdrawnAt); err != nil {
		return application.Player{}, err
	}
	return player, nil
}
