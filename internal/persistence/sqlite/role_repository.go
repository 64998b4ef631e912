package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/village-api/internal/application"
)

const roleColumns = "id, name, kind, team, max_count"

// GetRoleByKind fetches a catalog entry by its kind.
func (s *Storage) GetRoleByKind(ctx context.Context, kind application.RoleKind) (application.Role, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+roleColumns+` FROM roles WHERE kind = ?
	`, string(kind))
	return scanRole(row)
}

// ListRoles returns the full catalog ordered by name.
func (s *Storage) ListRoles(ctx context.Context) ([]application.Role, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+roleColumns+` FROM roles ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", mapError(err))
	}
	defer rows.Close()

	var roles []application.Role
	for rows.Next() {
		role, err := scanRoleFrom(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate roles: %w", err)
	}
	return roles, nil
}

func scanRole(row *sql.Row) (application.Role, error) {
	return scanRoleFrom(row)
}

func scanRoleFrom(scanner rowScanner) (application.Role, error) {
	var (
		role     application.Role
		kind     string
		team     string
		maxCount sql.NullInt64
	)
	if err := scanner.Scan(&role.ID, &role.Name, &kind, &team, &maxCount); err != nil {
		return application.Role{}, mapError(err)
	}

	role.Kind = application.RoleKind(kind)
	role.Team = application.Team(team)
	if maxCount.Valid {
		count := int(maxCount.Int64)
		role.MaxCount = &count
	}
	return role, nil
}
