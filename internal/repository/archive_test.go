package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/database"
	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/model"
)

func TestArchiveRepository_MessagesAndProfiles(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	repo := NewArchiveRepository(db)
	now := time.Now().UTC().Truncate(time.Second)

	_, err := db.ExecContext(ctx, `DELETE FROM chat_messages WHERE contact_key = 'test-archive'`)
	require.NoError(t, err)

	for i, text := range []string{"hola", "dama"} {
		require.NoError(t, repo.AppendMessage(ctx, model.HistoryEntry{
			ID:         "test-archive-" + text,
			ContactKey: "test-archive",
			Direction:  model.DirectionInbound,
			Text:       text,
			Timestamp:  now.Add(time.Duration(i) * time.Second),
		}))
	}

	count, err := repo.CountMessagesByContact(ctx, "test-archive")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	msgs, err := repo.FindMessagesByContact(ctx, "test-archive", 10, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "dama", msgs[0].Text)

	deleted, err := repo.DeleteMessagesBefore(ctx, now.Add(500*time.Millisecond))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, deleted, int64(1))

	p := model.NewProfile("test-archive", "Ana", now)
	p.MessagesIn = 2
	p.Intents[model.IntentGreeting] = 1
	require.NoError(t, repo.UpsertProfiles(ctx, []model.Profile{p}))

	found, err := repo.FindProfile(ctx, "test-archive")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, int64(2), found.MessagesIn)
	assert.Equal(t, 1, found.Intents[model.IntentGreeting])

	missing, err := repo.FindProfile(ctx, "test-archive-missing")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func setupTestDB(t *testing.T) *database.DB {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	db, err := database.Connect(url)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(context.Background()))
	return db
}
