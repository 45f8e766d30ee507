package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/gdugdh24/spark-backend/internal/domain"
	"github.com/gdugdh24/spark-backend/internal/repository"
	"github.com/jmoiron/sqlx"
)

type swipeRepository struct {
	db *sqlx.DB
}

func NewSwipeRepository(db *sqlx.DB) repository.SwipeRepository {
	return &swipeRepository{db: db}
}

func (r *swipeRepository) Create(ctx context.Context, swipe *domain.Swipe) error {
	query := `
		INSERT INTO swipes (swiper_id, swiped_id, is_like, is_super)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query, swipe.SwiperID, swipe.SwipedID, swipe.IsLike, swipe.IsSuper).
		Scan(&swipe.ID, &swipe.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrSwipeAlreadyExists
		}
		return translateError(err)
	}
	return nil
}

func (r *swipeRepository) GetByUsers(ctx context.Context, swiperID, swipedID int) (*domain.Swipe, error) {
	var swipe domain.Swipe
	query := `SELECT id, swiper_id, swiped_id, is_like, is_super, created_at
		FROM swipes WHERE swiper_id = $1 AND swiped_id = $2`
	if err := r.db.GetContext(ctx, &swipe, query, swiperID, swipedID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, translateError(err)
	}
	return &swipe, nil
}

func (r *swipeRepository) CheckMutualLike(ctx context.Context, user1ID, user2ID int) (bool, error) {
	var count int
	query := `
		SELECT COUNT(*) FROM swipes
		WHERE is_like = true
		  AND ((swiper_id = $1 AND swiped_id = $2) OR (swiper_id = $2 AND swiped_id = $1))
	`
	if err := r.db.GetContext(ctx, &count, query, user1ID, user2ID); err != nil {
		return false, translateError(err)
	}
	return count == 2, nil
}
