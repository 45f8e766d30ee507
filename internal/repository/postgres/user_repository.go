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

const userColumns = `id, email, password_hash, username, profile_picture, age,
	gender_identity, sexual_orientation, bio, location_lat, location_lng, interests,
	pref_min_age, pref_max_age, pref_distance_km, membership_tier, created_at, updated_at`

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) repository.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (
			email, password_hash, username, interests,
			pref_min_age, pref_max_age, pref_distance_km, membership_tier
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(
		ctx, query,
		user.Email, user.PasswordHash, user.Username, pq.Array([]string(user.Interests)),
		user.PrefMinAge, user.PrefMaxAge, user.PrefDistanceKm, user.MembershipTier,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEmailTaken
		}
		return translateError(err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id int) (*domain.User, error) {
	var user domain.User
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, translateError(err)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, translateError(err)
	}
	return &user, nil
}

func (r *userRepository) GetByIDs(ctx context.Context, ids []int) ([]*domain.User, error) {
	users := []*domain.User{}
	if len(ids) == 0 {
		return users, nil
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ANY($1)`
	if err := r.db.SelectContext(ctx, &users, query, pq.Array(ids)); err != nil {
		return nil, translateError(err)
	}
	return users, nil
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET username = $1, age = $2, gender_identity = $3, sexual_orientation = $4,
		    bio = $5, interests = $6, pref_min_age = $7, pref_max_age = $8,
		    pref_distance_km = $9, updated_at = CURRENT_TIMESTAMP
		WHERE id = $10
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(
		ctx, query,
		user.Username, user.Age, user.GenderIdentity, user.SexualOrientation,
		user.Bio, pq.Array([]string(user.Interests)), user.PrefMinAge, user.PrefMaxAge,
		user.PrefDistanceKm, user.ID,
	).Scan(&user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrUserNotFound
		}
		return translateError(err)
	}
	return nil
}

func (r *userRepository) UpdateLocation(ctx context.Context, id int, lat, lng float64) error {
	query := `
		UPDATE users
		SET location_lat = $1, location_lng = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $3
	`
	return r.execOne(ctx, query, lat, lng, id)
}

func (r *userRepository) UpdateProfilePicture(ctx context.Context, id int, url string) error {
	query := `UPDATE users SET profile_picture = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`
	return r.execOne(ctx, query, url, id)
}

func (r *userRepository) UpdateTier(ctx context.Context, id int, tier domain.Tier) error {
	query := `UPDATE users SET membership_tier = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`
	return r.execOne(ctx, query, tier, id)
}

func (r *userRepository) ListFeed(ctx context.Context, viewerID int, after *repository.FeedCursor, limit int) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u
		WHERE u.id <> $1
		  AND NOT EXISTS (
			SELECT 1 FROM blocks b WHERE b.blocker_id = $1 AND b.blocked_id = u.id
		  )`
	args := []interface{}{viewerID}
	argCount := 2

	if after != nil {
		query += fmt.Sprintf(" AND (u.created_at, u.id) < ($%d, $%d)", argCount, argCount+1)
		args = append(args, after.CreatedAt, after.ID)
		argCount += 2
	}

	query += fmt.Sprintf(" ORDER BY u.created_at DESC, u.id DESC LIMIT $%d", argCount)
	args = append(args, limit)

	users := []*domain.User{}
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, translateError(err)
	}
	return users, nil
}

func (r *userRepository) execOne(ctx context.Context, query string, args ...interface{}) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return translateError(err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
