package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/gdugdh24/spark-backend/internal/domain"
	"github.com/gdugdh24/spark-backend/internal/repository"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const matchColumns = `id, user1_id, user2_id, status, created_by, icebreakers, created_at, updated_at`

type matchRepository struct {
	db *sqlx.DB
}

func NewMatchRepository(db *sqlx.DB) repository.MatchRepository {
	return &matchRepository{db: db}
}

func (r *matchRepository) Create(ctx context.Context, match *domain.Match) error {
	// Ensure user1_id < user2_id for constraint
	match.User1ID, match.User2ID = domain.OrderPair(match.User1ID, match.User2ID)
	if match.Icebreakers == nil {
		match.Icebreakers = pq.StringArray{}
	}

	query := `
		INSERT INTO matches (user1_id, user2_id, status, created_by, icebreakers)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(
		ctx, query,
		match.User1ID, match.User2ID, match.Status, match.CreatedBy, pq.Array([]string(match.Icebreakers)),
	).Scan(&match.ID, &match.CreatedAt, &match.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrMatchAlreadyExists
		}
		return translateError(err)
	}
	return nil
}

func (r *matchRepository) GetByID(ctx context.Context, id int) (*domain.Match, error) {
	var match domain.Match
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	if err := r.db.GetContext(ctx, &match, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrMatchNotFound
		}
		return nil, translateError(err)
	}
	return &match, nil
}

func (r *matchRepository) GetByUsers(ctx context.Context, user1ID, user2ID int) (*domain.Match, error) {
	user1ID, user2ID = domain.OrderPair(user1ID, user2ID)

	var match domain.Match
	query := `SELECT ` + matchColumns + ` FROM matches WHERE user1_id = $1 AND user2_id = $2`
	if err := r.db.GetContext(ctx, &match, query, user1ID, user2ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrMatchNotFound
		}
		return nil, translateError(err)
	}
	return &match, nil
}

func (r *matchRepository) GetUserMatches(ctx context.Context, userID int) ([]*domain.Match, error) {
	matches := []*domain.Match{}
	query := `SELECT ` + matchColumns + ` FROM matches
		WHERE user1_id = $1 OR user2_id = $1
		ORDER BY created_at DESC, id DESC`
	if err := r.db.SelectContext(ctx, &matches, query, userID); err != nil {
		return nil, translateError(err)
	}
	return matches, nil
}

func (r *matchRepository) UpdateStatus(ctx context.Context, id int, status domain.MatchStatus) error {
	query := `UPDATE matches SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return translateError(err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrMatchNotFound
	}
	return nil
}

func (r *matchRepository) Delete(ctx context.Context, id int) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE match_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete messages: %w", translateError(err))
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM matches WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete match: %w", translateError(err))
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrMatchNotFound
	}

	return tx.Commit()
}

func (r *matchRepository) UpdateIcebreakers(ctx context.Context, matchID int, icebreakers []string) error {
	query := `UPDATE matches SET icebreakers = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, pq.Array(icebreakers), matchID)
	return translateError(err)
}
