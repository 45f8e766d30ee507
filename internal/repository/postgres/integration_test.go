//go:build integration

package postgres

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	m "github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/gdugdh24/spark-backend/internal/domain"
)

var (
	db  *sqlx.DB
	ctx = context.Background()
)

func TestMain(t *testing.M) {
	shutdown := setup()
	code := t.Run()
	shutdown()
	os.Exit(code)
}

func setup() func() {
	log := zap.Must(zap.NewDevelopment())

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16",
		Env:          map[string]string{"POSTGRES_PASSWORD": "root"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp"),
	}
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		log.Fatal("failed to start container", zap.Error(err))
	}

	host, err := c.Host(ctx)
	if err != nil {
		log.Fatal("failed to get host", zap.Error(err))
	}
	port, err := c.MappedPort(ctx, "5432")
	if err != nil {
		log.Fatal("failed to map port", zap.Error(err))
	}

	dsn := fmt.Sprintf("host=%s port=%d user=postgres password=root sslmode=disable", host, port.Int())
	for i := 0; i < 10; i++ {
		if db, err = sqlx.Connect("postgres", dsn); err == nil {
			break
		}
		time.Sleep(time.Second)
	}
	if err != nil {
		log.Fatal("failed to connect", zap.Error(err))
	}

	migrate(log, fmt.Sprintf("postgres://postgres:root@%s:%d/postgres?sslmode=disable", host, port.Int()))

	return func() {
		_ = db.Close()
		_ = c.Terminate(ctx)
	}
}

func migrate(log *zap.Logger, url string) {
	_, currFile, _, ok := runtime.Caller(0)
	if !ok {
		log.Fatal("failed to get current file location")
	}
	migrations := filepath.Join(currFile, "../../../../migrations/")

	migrator, err := m.New(fmt.Sprintf("file://%s", migrations), url)
	if err != nil {
		log.Fatal("failed to create migrator", zap.Error(err))
	}
	defer migrator.Close()

	if err := migrator.Up(); err != nil {
		log.Fatal("failed to migrate", zap.Error(err))
	}
}

func cleanup(t *testing.T) {
	_, err := db.ExecContext(ctx, `TRUNCATE messages, matches, swipes, blocks, sessions, users RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
}

func createUser(t *testing.T, email string) *domain.User {
	u := &domain.User{
		Email:          email,
		PasswordHash:   "hash",
		Username:       email,
		PrefMinAge:     domain.DefaultMinAgePref,
		PrefMaxAge:     domain.DefaultMaxAgePref,
		PrefDistanceKm: domain.DefaultDistanceKm,
		MembershipTier: domain.TierFree,
	}
	require.NoError(t, NewUserRepository(db).Create(ctx, u))
	return u
}

func TestFeed_ExcludesBlockedAndSelf(t *testing.T) {
	defer cleanup(t)

	me := createUser(t, "me@example.com")
	blocked := createUser(t, "blocked@example.com")
	other := createUser(t, "other@example.com")

	_, err := NewBlockRepository(db).Block(ctx, me.ID, blocked.ID)
	require.NoError(t, err)

	users, err := NewUserRepository(db).ListFeed(ctx, me.ID, nil, 10)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, other.ID, users[0].ID)
}

func TestMatch_DeleteRemovesMessages(t *testing.T) {
	defer cleanup(t)

	a := createUser(t, "a@example.com")
	b := createUser(t, "b@example.com")

	matches := NewMatchRepository(db)
	messages := NewMessageRepository(db)

	match := &domain.Match{User1ID: a.ID, User2ID: b.ID, Status: domain.MatchStatusMatched, CreatedBy: a.ID}
	require.NoError(t, matches.Create(ctx, match))

	msg := &domain.Message{MatchID: match.ID, SenderID: a.ID, Content: "hi", ContentType: domain.ContentText, Status: domain.MessageSent}
	require.NoError(t, messages.Create(ctx, msg))

	require.NoError(t, matches.Delete(ctx, match.ID))

	_, err := messages.GetByID(ctx, msg.ID)
	assert.ErrorIs(t, err, domain.ErrMessageNotFound)
}

func TestMessages_HistoryKeepsNewest(t *testing.T) {
	defer cleanup(t)

	a := createUser(t, "a@example.com")
	b := createUser(t, "b@example.com")

	match := &domain.Match{User1ID: a.ID, User2ID: b.ID, Status: domain.MatchStatusMatched, CreatedBy: a.ID}
	require.NoError(t, NewMatchRepository(db).Create(ctx, match))

	messages := NewMessageRepository(db)
	var last *domain.Message
	for i := 0; i <= domain.MessagePageSize; i++ {
		last = &domain.Message{
			MatchID:     match.ID,
			SenderID:    a.ID,
			Content:     fmt.Sprintf("message %d", i),
			ContentType: domain.ContentText,
			Status:      domain.MessageSent,
		}
		require.NoError(t, messages.Create(ctx, last))
	}

	history, err := messages.ListByMatch(ctx, match.ID, domain.MessagePageSize)
	require.NoError(t, err)
	require.Len(t, history, domain.MessagePageSize)
	assert.Equal(t, "message 1", history[0].Content)
	assert.Equal(t, last.ID, history[len(history)-1].ID)
}
