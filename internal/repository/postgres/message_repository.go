package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/gdugdh24/spark-backend/internal/domain"
	"github.com/gdugdh24/spark-backend/internal/repository"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const messageColumns = `id, match_id, sender_id, content, content_type, metadata, status, read, read_at, created_at`

type messageRepository struct {
	db *sqlx.DB
}

func NewMessageRepository(db *sqlx.DB) repository.MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, message *domain.Message) error {
	query := `
		INSERT INTO messages (match_id, sender_id, content, content_type, metadata, status, read)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(
		ctx, query,
		message.MatchID, message.SenderID, message.Content, message.ContentType,
		message.Metadata, message.Status, message.Read,
	).Scan(&message.ID, &message.CreatedAt)
	return translateError(err)
}

func (r *messageRepository) GetByID(ctx context.Context, id int) (*domain.Message, error) {
	var message domain.Message
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id = $1`
	if err := r.db.GetContext(ctx, &message, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrMessageNotFound
		}
		return nil, translateError(err)
	}
	return &message, nil
}

func (r *messageRepository) ListByMatch(ctx context.Context, matchID int, limit int) ([]*domain.Message, error) {
	messages := []*domain.Message{}
	// newest window, returned oldest first
	query := `SELECT ` + messageColumns + ` FROM (
			SELECT ` + messageColumns + ` FROM messages
			WHERE match_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2
		) AS recent
		ORDER BY created_at ASC, id ASC`
	if err := r.db.SelectContext(ctx, &messages, query, matchID, limit); err != nil {
		return nil, translateError(err)
	}
	return messages, nil
}

func (r *messageRepository) MarkDelivered(ctx context.Context, matchID, readerID int) error {
	query := `
		UPDATE messages SET status = $1
		WHERE match_id = $2 AND sender_id <> $3 AND status = $4
	`
	_, err := r.db.ExecContext(ctx, query, domain.MessageDelivered, matchID, readerID, domain.MessageSent)
	return translateError(err)
}

func (r *messageRepository) MarkRead(ctx context.Context, matchID, readerID int, ids []int, at time.Time) ([]int, error) {
	if len(ids) == 0 {
		return []int{}, nil
	}
	query := `
		UPDATE messages SET read = true, read_at = $1, status = $2
		WHERE match_id = $3 AND sender_id <> $4 AND id = ANY($5) AND read = false
		RETURNING id
	`
	updated := []int{}
	err := r.db.SelectContext(ctx, &updated, query, at, domain.MessageRead, matchID, readerID, pq.Array(ids))
	if err != nil {
		return nil, translateError(err)
	}
	return updated, nil
}

func (r *messageRepository) GetLastMessage(ctx context.Context, matchID int) (*domain.Message, error) {
	var message domain.Message
	query := `SELECT ` + messageColumns + ` FROM messages
		WHERE match_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1`
	if err := r.db.GetContext(ctx, &message, query, matchID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, translateError(err)
	}
	return &message, nil
}

func (r *messageRepository) CountUnread(ctx context.Context, matchID, readerID int) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM messages WHERE match_id = $1 AND sender_id <> $2 AND read = false`
	if err := r.db.GetContext(ctx, &count, query, matchID, readerID); err != nil {
		return 0, translateError(err)
	}
	return count, nil
}
