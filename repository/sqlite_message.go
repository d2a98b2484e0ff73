package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"chatsphere/models"
)

// sqliteMessageRepo, MessageRepository interface'inin SQLite implementasyonu.
type sqliteMessageRepo struct {
	db *sql.DB
}

// NewSQLiteMessageRepo, constructor — interface döner.
func NewSQLiteMessageRepo(db *sql.DB) MessageRepository {
	return &sqliteMessageRepo{db: db}
}

func (r *sqliteMessageRepo) Create(ctx context.Context, message *models.Message) error {
	message.ID = uuid.NewString()
	message.Timestamp = time.Now().UTC().Truncate(time.Second)

	query := `
		INSERT INTO messages (id, channel_id, user_id, user_name, content, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		message.ID,
		message.ChannelID,
		message.UserID,
		message.UserName,
		message.Content,
		message.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}

	return nil
}

func (r *sqliteMessageRepo) ListByChannel(ctx context.Context, channelID string, limit int) ([]models.Message, error) {
	// En eskiden yeniye sıralı — chat görünümü bu sırayı bekler.
	query := `
		SELECT id, channel_id, user_id, user_name, content, timestamp
		FROM messages
		WHERE channel_id = ?
		ORDER BY timestamp ASC, id ASC
		LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, channelID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages by channel: %w", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(
			&m.ID, &m.ChannelID, &m.UserID, &m.UserName, &m.Content, &m.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		messages = append(messages, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating message rows: %w", err)
	}

	return messages, nil
}
