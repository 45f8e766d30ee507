package postgres

import (
	"context"

	"github.com/gdugdh24/spark-backend/internal/domain"
	"github.com/gdugdh24/spark-backend/internal/repository"
	"github.com/jmoiron/sqlx"
)

type blockRepository struct {
	db *sqlx.DB
}

func NewBlockRepository(db *sqlx.DB) repository.BlockRepository {
	return &blockRepository{db: db}
}

// Block is idempotent: blocking twice keeps the first blocked_at.
func (r *blockRepository) Block(ctx context.Context, blockerID, blockedID int) (*domain.Block, error) {
	query := `
		INSERT INTO blocks (blocker_id, blocked_id)
		VALUES ($1, $2)
		ON CONFLICT (blocker_id, blocked_id) DO UPDATE SET blocked_at = blocks.blocked_at
		RETURNING blocker_id, blocked_id, blocked_at
	`
	var block domain.Block
	if err := r.db.GetContext(ctx, &block, query, blockerID, blockedID); err != nil {
		return nil, translateError(err)
	}
	return &block, nil
}

func (r *blockRepository) Unblock(ctx context.Context, blockerID, blockedID int) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM blocks WHERE blocker_id = $1 AND blocked_id = $2`, blockerID, blockedID)
	return translateError(err)
}

func (r *blockRepository) ListBlocked(ctx context.Context, blockerID int) ([]*domain.Block, error) {
	blocks := []*domain.Block{}
	query := `SELECT blocker_id, blocked_id, blocked_at FROM blocks WHERE blocker_id = $1 ORDER BY blocked_at DESC`
	if err := r.db.SelectContext(ctx, &blocks, query, blockerID); err != nil {
		return nil, translateError(err)
	}
	return blocks, nil
}
