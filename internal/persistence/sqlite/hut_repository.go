package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/village-api/internal/application"
)

const hutColumns = "id, game_id, resident_id, position, is_visited, eliminated_at"

// CreateHut inserts a position slot bound to a resident.
func (s *Storage) CreateHut(ctx context.Context, hut application.Hut) (application.Hut, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO huts (id, game_id, resident_id, position, is_visited, eliminated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		hut.ID,
		hut.GameID,
		hut.ResidentID,
		hut.Position,
		boolToInt(hut.IsVisited),
		formatNullTime(hut.EliminatedAt),
	)
	if err != nil {
		return application.Hut{}, fmt.Errorf("insert hut: %w", mapError(err))
	}
	return hut, nil
}

// GetHut fetches a hut by ID.
func (s *Storage) GetHut(ctx context.Context, id string) (application.Hut, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+hutColumns+` FROM huts WHERE id = ?`, id)
	return scanHut(row)
}

// UpdateHut persists mutable hut fields.
func (s *Storage) UpdateHut(ctx context.Context, hut application.Hut) (application.Hut, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE huts
		SET position = ?, is_visited = ?, eliminated_at = ?
		WHERE id = ?
	`,
		hut.Position,
		boolToInt(hut.IsVisited),
		formatNullTime(hut.EliminatedAt),
		hut.ID,
	)
	if err != nil {
		return application.Hut{}, fmt.Errorf("update hut: %w", mapError(err))
	}
	if err := requireAffected(result); err != nil {
		return application.Hut{}, err
	}
	return hut, nil
}

// GetHutByResident fetches the hut concealing the given resident.
func (s *Storage) GetHutByResident(ctx context.Context, residentID string) (application.Hut, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+hutColumns+` FROM huts WHERE resident_id = ?`, residentID)
	return scanHut(row)
}

// ListHuts returns a game's huts ordered by position.
func (s *Storage) ListHuts(ctx context.Context, gameID string) ([]application.Hut, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+hutColumns+` FROM huts WHERE game_id = ? ORDER BY position
	`, gameID)
	if err != nil {
		return nil, fmt.Errorf("list huts: %w", mapError(err))
	}
	defer rows.Close()

	var huts []application.Hut
	for rows.Next() {
		hut, err := scanHutFrom(rows)
		if err != nil {
			return nil, err
		}
		huts = append(huts, hut)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate huts: %w", err)
	}
	return huts, nil
}

func scanHut(row *sql.Row) (application.Hut, error) {
	return scanHutFrom(row)
}

func scanHutFrom(scanner rowScanner) (application.Hut, error) {
	var (
		hut          application.Hut
		isVisited    int
		eliminatedAt sql.NullString
	)
	if err := scanner.Scan(
		&hut.ID,
		&hut.GameID,
		&hut.ResidentID,
		&hut.Position,
		&isVisited,
		&eliminatedAt,
	); err != nil {
		return application.Hut{}, mapError(err)
	}

	hut.IsVisited = isVisited != 0

	var err error
	if hut.EliminatedAt, err = parseNullTime(eliminatedAt); err != nil {
		return application.Hut{}, err
	}
	return hut, nil
}
