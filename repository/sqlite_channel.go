package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"chatsphere/models"
	"chatsphere/pkg"
)

// sqliteChannelRepo, ChannelRepository interface'inin SQLite implementasyonu.
type sqliteChannelRepo struct {
	db *sql.DB
}

// NewSQLiteChannelRepo, constructor — interface döner.
func NewSQLiteChannelRepo(db *sql.DB) ChannelRepository {
	return &sqliteChannelRepo{db: db}
}

func (r *sqliteChannelRepo) Create(ctx context.Context, channel *models.Channel) error {
	channel.ID = uuid.NewString()
	channel.CreatedAt = time.Now().UTC().Truncate(time.Second)

	query := `
		INSERT INTO channels (id, server_id, name, created_at)
		VALUES (?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		channel.ID, channel.ServerID, channel.Name, channel.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create channel: %w", err)
	}

	return nil
}

func (r *sqliteChannelRepo) GetByID(ctx context.Context, id string) (*models.Channel, error) {
	query := `SELECT id, server_id, name, created_at FROM channels WHERE id = ?`

	channel := &models.Channel{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&channel.ID, &channel.ServerID, &channel.Name, &channel.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get channel by id: %w", err)
	}

	return channel, nil
}

func (r *sqliteChannelRepo) ListByServer(ctx context.Context, serverID string) ([]models.Channel, error) {
	query := `
		SELECT id, server_id, name, created_at
		FROM channels
		WHERE server_id = ?
		ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, serverID)
	if err != nil {
		return nil, fmt.Errorf("failed to list channels by server: %w", err)
	}
	defer rows.Close()

	var channels []models.Channel
	for rows.Next() {
		var c models.Channel
		if err := rows.Scan(&c.ID, &c.ServerID, &c.Name, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan channel row: %w", err)
		}
		channels = append(channels, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating channel rows: %w", err)
	}

	return channels, nil
}
