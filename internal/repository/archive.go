package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/database"
	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/model"
)

// ArchiveRepository persists chat history and contact profiles beyond the
// in-memory ring.
type ArchiveRepository interface {
	AppendMessage(ctx context.Context, entry model.HistoryEntry) error
	FindMessagesByContact(ctx context.Context, contactKey string, limit, offset int) ([]model.HistoryEntry, error)
	CountMessagesByContact(ctx context.Context, contactKey string) (int, error)
	DeleteMessagesBefore(ctx context.Context, before time.Time) (int64, error)
	UpsertProfiles(ctx context.Context, profiles []model.Profile) error
	FindProfile(ctx context.Context, contactKey string) (*model.Profile, error)
	LoadProfiles(ctx context.Context) ([]model.Profile, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) ArchiveRepository
}

type archiveRepo struct {
	db   database.DBTX
	conn *database.DB
}

func NewArchiveRepository(db *database.DB) ArchiveRepository {
	return &archiveRepo{db: db.DB, conn: db}
}

func (r *archiveRepo) WithTx(tx *sqlx.Tx) ArchiveRepository {
	return &archiveRepo{db: tx, conn: r.conn}
}

// profileRow mirrors contact_profiles; intents are stored as JSONB.
type profileRow struct {
	model.Profile
	IntentsJSON []byte `db:"intents"`
}

func (row profileRow) toModel() (model.Profile, error) {
	p := row.Profile
	p.Intents = map[model.Intent]int{}
	if len(row.IntentsJSON) > 0 {
		if err := json.Unmarshal(row.IntentsJSON, &p.Intents); err != nil {
			return p, fmt.Errorf("decode intents for %s: %w", p.ContactKey, err)
		}
	}
	return p, nil
}

func (r *archiveRepo) AppendMessage(ctx context.Context, entry model.HistoryEntry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO chat_messages (id, contact_key, display, direction, text, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`, entry.ID, entry.ContactKey, entry.Display, entry.Direction, entry.Text, entry.Timestamp)
	return err
}

func (r *archiveRepo) FindMessagesByContact(ctx context.Context, contactKey string, limit, offset int) ([]model.HistoryEntry, error) {
	var entries []model.HistoryEntry
	err := r.db.SelectContext(ctx, &entries, `
		SELECT id, contact_key, display, direction, text, created_at
		FROM chat_messages
		WHERE contact_key = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, contactKey, limit, offset)
	return entries, err
}

func (r *archiveRepo) CountMessagesByContact(ctx context.Context, contactKey string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM chat_messages WHERE contact_key = $1
	`, contactKey)
	return count, err
}

func (r *archiveRepo) DeleteMessagesBefore(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM chat_messages WHERE created_at < $1
	`, before)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const upsertProfileQuery = `
	INSERT INTO contact_profiles
		(contact_key, display, messages_in, messages_out, quotes_sent,
		 confirmations, handoffs, fallbacks, intents, first_seen_at, last_seen_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (contact_key) DO UPDATE SET
		display = EXCLUDED.display,
		messages_in = EXCLUDED.messages_in,
		messages_out = EXCLUDED.messages_out,
		quotes_sent = EXCLUDED.quotes_sent,
		confirmations = EXCLUDED.confirmations,
		handoffs = EXCLUDED.handoffs,
		fallbacks = EXCLUDED.fallbacks,
		intents = EXCLUDED.intents,
		last_seen_at = EXCLUDED.last_seen_at
`

// UpsertProfiles writes all profiles in one transaction.
func (r *archiveRepo) UpsertProfiles(ctx context.Context, profiles []model.Profile) error {
	if len(profiles) == 0 {
		return nil
	}
	return r.conn.WithTx(ctx, func(tx *sqlx.Tx) error {
		for _, p := range profiles {
			intents, err := json.Marshal(p.Intents)
			if err != nil {
				return fmt.Errorf("encode intents for %s: %w", p.ContactKey, err)
			}
			if _, err := tx.ExecContext(ctx, upsertProfileQuery,
				p.ContactKey, p.Display, p.MessagesIn, p.MessagesOut, p.QuotesSent,
				p.Confirmations, p.Handoffs, p.Fallbacks, intents, p.FirstSeenAt, p.LastSeenAt,
			); err != nil {
				return fmt.Errorf("upsert profile %s: %w", p.ContactKey, err)
			}
		}
		return nil
	})
}

func (r *archiveRepo) FindProfile(ctx context.Context, contactKey string) (*model.Profile, error) {
	var row profileRow
	err := r.db.GetContext(ctx, &row, `
		SELECT * FROM contact_profiles WHERE contact_key = $1
	`, contactKey)
	found, err := HandleNotFound(&row, err)
	if err != nil || found == nil {
		return nil, err
	}
	p, err := found.toModel()
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *archiveRepo) LoadProfiles(ctx context.Context) ([]model.Profile, error) {
	var rows []profileRow
	if err := r.db.SelectContext(ctx, &rows, `
		SELECT * FROM contact_profiles ORDER BY last_seen_at DESC
	`); err != nil {
		return nil, err
	}

	profiles := make([]model.Profile, 0, len(rows))
	for _, row := range rows {
		p, err := row.toModel()
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}
