package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"chatsphere/database"
	"chatsphere/models"
	"chatsphere/pkg"
)

// sqliteServerRepo, ServerRepository interface'inin SQLite implementasyonu.
type sqliteServerRepo struct {
	db *sql.DB
}

// NewSQLiteServerRepo, constructor — interface döner.
func NewSQLiteServerRepo(db *sql.DB) ServerRepository {
	return &sqliteServerRepo{db: db}
}

// Create, sunucuyu ve sahibinin üyeliğini tek transaction'da oluşturur.
// İkisi birlikte başarılı olmalı: üyeliği olmayan bir sahip yarım kalmış
// durumdur, o yüzden WithTx.
func (r *sqliteServerRepo) Create(ctx context.Context, server *models.Server) error {
	server.ID = uuid.NewString()
	server.CreatedAt = time.Now().UTC().Truncate(time.Second)

	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO servers (id, name, owner_id, created_at)
			VALUES (?, ?, ?, ?)`,
			server.ID, server.Name, server.OwnerID, server.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create server: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO server_members (server_id, user_id, is_muted, joined_at)
			VALUES (?, ?, 0, ?)`,
			server.ID, server.OwnerID, server.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to add owner membership: %w", err)
		}

		return nil
	})
}

func (r *sqliteServerRepo) GetByID(ctx context.Context, id string) (*models.Server, error) {
	query := `SELECT id, name, owner_id, created_at FROM servers WHERE id = ?`

	server := &models.Server{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&server.ID, &server.Name, &server.OwnerID, &server.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get server by id: %w", err)
	}

	return server, nil
}

func (r *sqliteServerRepo) ListByMember(ctx context.Context, userID string) ([]models.Server, error) {
	query := `
		SELECT s.id, s.name, s.owner_id, s.created_at
		FROM servers s
		JOIN server_members sm ON sm.server_id = s.id
		WHERE sm.user_id = ?
		ORDER BY s.created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list servers by member: %w", err)
	}
	defer rows.Close()

	var servers []models.Server
	for rows.Next() {
		var s models.Server
		if err := rows.Scan(&s.ID, &s.Name, &s.OwnerID, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan server row: %w", err)
		}
		servers = append(servers, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating server rows: %w", err)
	}

	return servers, nil
}

func (r *sqliteServerRepo) AddMember(ctx context.Context, serverID, userID string) error {
	// INSERT OR IGNORE: zaten üyeyse sessizce geç — join idempotent.
	now := time.Now().UTC().Truncate(time.Second)
	query := `
		INSERT OR IGNORE INTO server_members (server_id, user_id, is_muted, joined_at)
		VALUES (?, ?, 0, ?)`

	if _, err := r.db.ExecContext(ctx, query, serverID, userID, now); err != nil {
		return fmt.Errorf("failed to add server member: %w", err)
	}

	return nil
}

func (r *sqliteServerRepo) IsMember(ctx context.Context, serverID, userID string) (bool, error) {
	var exists int
	err := r.db.QueryRowContext(ctx, `
		SELECT 1 FROM server_members WHERE server_id = ? AND user_id = ?`,
		serverID, userID,
	).Scan(&exists)

	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check server membership: %w", err)
	}

	return true, nil
}

func (r *sqliteServerRepo) ListMembers(ctx context.Context, serverID string) ([]models.ServerMember, error) {
	query := `
		SELECT u.id, u.username, u.display_name, sm.is_muted, sm.joined_at
		FROM server_members sm
		JOIN users u ON u.id = sm.user_id
		WHERE sm.server_id = ?
		ORDER BY sm.joined_at ASC`

	rows, err := r.db.QueryContext(ctx, query, serverID)
	if err != nil {
		return nil, fmt.Errorf("failed to list server members: %w", err)
	}
	defer rows.Close()

	var members []models.ServerMember
	for rows.Next() {
		var m models.ServerMember
		if err := rows.Scan(&m.UserID, &m.Username, &m.DisplayName, &m.IsMuted, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan member row: %w", err)
		}
		members = append(members, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating member rows: %w", err)
	}

	return members, nil
}

func (r *sqliteServerRepo) SetMemberMuted(ctx context.Context, serverID, userID string, muted bool) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE server_members SET is_muted = ? WHERE server_id = ? AND user_id = ?`,
		muted, serverID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to set member muted: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return pkg.ErrNotFound
	}

	return nil
}

func (r *sqliteServerRepo) IsMemberMuted(ctx context.Context, serverID, userID string) (bool, error) {
	var muted bool
	err := r.db.QueryRowContext(ctx, `
		SELECT is_muted FROM server_members WHERE server_id = ? AND user_id = ?`,
		serverID, userID,
	).Scan(&muted)

	// Üye değilse susturulmuş sayılmaz — üyelik kontrolü ayrı yapılır.
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check member mute: %w", err)
	}

	return muted, nil
}
