package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/village-api/internal/application"
)

const residentColumns = "id, game_id, role_id, eliminated_at"

// CreateResident inserts a hidden role-holder.
func (s *Storage) CreateResident(ctx context.Context, resident application.Resident) (application.Resident, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO residents (id, game_id, role_id, eliminated_at)
		VALUES (?, ?, ?, ?)
	`,
		resident.ID,
		resident.GameID,
		resident.RoleID,
		formatNullTime(resident.EliminatedAt),
	)
	if err != nil {
		return application.Resident{}, fmt.Errorf("insert resident: %w", mapError(err))
	}
	return resident, nil
}

// GetResident fetches a resident by ID.
func (s *Storage) GetResident(ctx context.Context, id string) (application.Resident, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+residentColumns+` FROM residents WHERE id = ?`, id)
	return scanResident(row)
}

// CountResidents counts the residents placed in a game.
func (s *Storage) CountResidents(ctx context.Context, gameID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM residents WHERE game_id = ?
	`, gameID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count residents: %w", mapError(err))
	}
	return count, nil
}

// CountResidentsByRole counts residents of one role in a game, for the
// population cap check.
func (s *Storage) CountResidentsByRole(ctx context.Context, gameID, roleID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM residents WHERE game_id = ? AND role_id = ?
	`, gameID, roleID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count residents by role: %w", mapError(err))
	}
	return count, nil
}

func scanResident(row *sql.Row) (application.Resident, error) {
	var (
		resident     application.Resident
		eliminatedAt sql.NullString
	)
	if err := row.Scan(&resident.ID, &resident.GameID, &resident.RoleID, &eliminatedAt); err != nil {
		return application.Resident{}, mapError(err)
	}

	var err error
	if resident.EliminatedAt, err = parseNullTime(eliminatedAt); err != nil {
		return application.Resident{}, err
	}
	return resident, nil
}
