package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/village-api/internal/application"
)

const voteColumns = "id, turn_id, player_id, hut_id, created_at, removed_at"

// CreateVote inserts a ballot.
func (s *Storage) CreateVote(ctx context.Context, vote application.Vote) (application.Vote, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO votes (id, turn_id, player_id, hut_id, created_at, removed_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		vote.ID,
		vote.TurnID,
		vote.PlayerID,
		nullString(vote.HutID),
		formatTime(vote.CreatedAt),
		formatNullTime(vote.RemovedAt),
	)
	if err != nil {
		return application.Vote{}, fmt.Errorf("insert vote: %w", mapError(err))
	}
	return vote, nil
}

// GetVote fetches a ballot by ID.
func (s *Storage) GetVote(ctx context.Context, id string) (application.Vote, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+voteColumns+` FROM votes WHERE id = ?`, id)
	return scanVote(row)
}

// UpdateVote persists mutable ballot fields. Rescinding stamps RemovedAt;
// rows are never deleted.
func (s *Storage) UpdateVote(ctx context.Context, vote application.Vote) (application.Vote, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE votes SET hut_id = ?, removed_at = ? WHERE id = ?
	`,
		nullString(vote.HutID),
		formatNullTime(vote.RemovedAt),
		vote.ID,
	)
	if err != nil {
		return application.Vote{}, fmt.Errorf("update vote: %w", mapError(err))
	}
	if err := requireAffected(result); err != nil {
		return application.Vote{}, err
	}
	return vote, nil
}

// ListTurnVotes returns every ballot of a turn, rescinded ones included,
// in casting order.
func (s *Storage) ListTurnVotes(ctx context.Context, turnID string) ([]application.Vote, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+voteColumns+` FROM votes WHERE turn_id = ? ORDER BY created_at, id
	`, turnID)
	if err != nil {
		return nil, fmt.Errorf("list turn votes: %w", mapError(err))
	}
	defer rows.Close()

	var votes []application.Vote
	for rows.Next() {
		vote, err := scanVoteFrom(rows)
		if err != nil {
			return nil, err
		}
		votes = append(votes, vote)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate votes: %w", err)
	}
	return votes, nil
}

func scanVote(row *sql.Row) (application.Vote, error) {
	return scanVoteFrom(row)
}

func scanVoteFrom(scanner rowScanner) (application.Vote, error) {
	var (
		vote      application.Vote
		hutID     sql.NullString
		createdAt string
		removedAt sql.NullString
	)
	if err := scanner.Scan(
		&vote.ID,
		&vote.TurnID,
		&vote.PlayerID,
		&hutID,
		&createdAt,
		&removedAt,
	); err != nil {
		return application.Vote{}, mapError(err)
	}

	vote.HutID = fromNullString(hutID)

	var err error
	if vote.CreatedAt, err = parseTime(createdAt); err != nil {
		return application.Vote{}, err
	}
	if vote.RemovedAt, err = parseNullTime(removedAt); err != nil {
		return application.Vote{}, err
	}
	return vote, nil
}
