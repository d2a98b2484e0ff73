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

// sqliteScheduledMessageRepo, ScheduledMessageRepository interface'inin
// SQLite implementasyonu.
type sqliteScheduledMessageRepo struct {
	db *sql.DB
}

// NewSQLiteScheduledMessageRepo, constructor — interface döner.
func NewSQLiteScheduledMessageRepo(db *sql.DB) ScheduledMessageRepository {
	return &sqliteScheduledMessageRepo{db: db}
}

const scheduledMessageColumns = `
	id, server_id, channel_id, content, author_id, author_name,
	scheduled_for, status, created_at, updated_at, sent_at`

func (r *sqliteScheduledMessageRepo) Create(ctx context.Context, sm *models.ScheduledMessage) error {
	sm.ID = uuid.NewString()
	sm.Status = models.ScheduledStatusPending
	// Zamanları saniye hassasiyetinde UTC olarak yaz — DATETIME
	// kolonlarının string karşılaştırması ancak tek biçimle tutarlı.
	now := time.Now().UTC().Truncate(time.Second)
	sm.CreatedAt = now
	sm.UpdatedAt = now
	sm.ScheduledFor = sm.ScheduledFor.UTC().Truncate(time.Second)

	query := `
		INSERT INTO scheduled_messages
			(id, server_id, channel_id, content, author_id, author_name,
			 scheduled_for, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		sm.ID, sm.ServerID, sm.ChannelID, sm.Content, sm.AuthorID, sm.AuthorName,
		sm.ScheduledFor, sm.Status, sm.CreatedAt, sm.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create scheduled message: %w", err)
	}

	return nil
}

func (r *sqliteScheduledMessageRepo) GetByID(ctx context.Context, id string) (*models.ScheduledMessage, error) {
	query := `SELECT ` + scheduledMessageColumns + ` FROM scheduled_messages WHERE id = ?`

	sm, err := scanScheduledMessage(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scheduled message by id: %w", err)
	}

	return sm, nil
}

func (r *sqliteScheduledMessageRepo) Update(ctx context.Context, id, content string, scheduledFor time.Time) (*models.ScheduledMessage, error) {
	now := time.Now().UTC().Truncate(time.Second)
	scheduledFor = scheduledFor.UTC().Truncate(time.Second)

	// Koşullu UPDATE: sadece hâlâ pending olan kayıt düzenlenebilir.
	result, err := r.db.ExecContext(ctx, `
		UPDATE scheduled_messages
		SET content = ?, scheduled_for = ?, updated_at = ?
		WHERE id = ? AND status = 'pending'`,
		content, scheduledFor, now, id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update scheduled message: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		// Kayıt yok mu, yoksa var ama terminal durumda mı? Ayrıştır:
		// yok → ErrNotFound, terminal → ErrGone.
		if _, err := r.GetByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, pkg.ErrGone
	}

	return r.GetByID(ctx, id)
}

func (r *sqliteScheduledMessageRepo) Cancel(ctx context.Context, id string) error {
	now := time.Now().UTC().Truncate(time.Second)

	result, err := r.db.ExecContext(ctx, `
		UPDATE scheduled_messages
		SET status = 'cancelled', updated_at = ?
		WHERE id = ? AND status = 'pending'`,
		now, id,
	)
	if err != nil {
		return fmt.Errorf("failed to cancel scheduled message: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		// Kayıt hiç yoksa hata; zaten terminal durumdaysa no-op başarı.
		// İkinci cancel çağrısı updated_at'i değiştirmez.
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}

	return nil
}

func (r *sqliteScheduledMessageRepo) ListDue(ctx context.Context, authorID string, now time.Time, limit int) ([]models.ScheduledMessage, error) {
	query := `
		SELECT ` + scheduledMessageColumns + `
		FROM scheduled_messages
		WHERE status = 'pending' AND author_id = ? AND scheduled_for <= ?
		ORDER BY scheduled_for ASC
		LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query,
		authorID, now.UTC().Truncate(time.Second), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list due scheduled messages: %w", err)
	}
	defer rows.Close()

	return collectScheduledMessages(rows)
}

func (r *sqliteScheduledMessageRepo) ListPendingForChannel(ctx context.Context, channelID, authorID string) ([]models.ScheduledMessage, error) {
	query := `
		SELECT ` + scheduledMessageColumns + `
		FROM scheduled_messages
		WHERE channel_id = ? AND author_id = ? AND status = 'pending'
		ORDER BY scheduled_for ASC`

	rows, err := r.db.QueryContext(ctx, query, channelID, authorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending scheduled messages: %w", err)
	}
	defer rows.Close()

	return collectScheduledMessages(rows)
}

func (r *sqliteScheduledMessageRepo) MarkSent(ctx context.Context, id string) error {
	now := time.Now().UTC().Truncate(time.Second)

	// Çifte teslimata karşı koruma: WHERE status = 'pending' şartı
	// sayesinde aynı kaydı yarışan iki worker'dan sadece biri sent
	// yapabilir. Kaybeden 0 satır etkiler ve ErrGone alır.
	result, err := r.db.ExecContext(ctx, `
		UPDATE scheduled_messages
		SET status = 'sent', sent_at = ?, updated_at = ?
		WHERE id = ? AND status = 'pending'`,
		now, now, id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark scheduled message sent: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return pkg.ErrGone
	}

	return nil
}

// rowScanner, *sql.Row ve *sql.Rows'un ortak Scan yüzeyi.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanScheduledMessage(row rowScanner) (*models.ScheduledMessage, error) {
	sm := &models.ScheduledMessage{}
	var sentAt sql.NullTime

	err := row.Scan(
		&sm.ID, &sm.ServerID, &sm.ChannelID, &sm.Content,
		&sm.AuthorID, &sm.AuthorName,
		&sm.ScheduledFor, &sm.Status, &sm.CreatedAt, &sm.UpdatedAt, &sentAt,
	)
	if err != nil {
		return nil, err
	}

	if sentAt.Valid {
		t := sentAt.Time
		sm.SentAt = &t
	}

	return sm, nil
}

func collectScheduledMessages(rows *sql.Rows) ([]models.ScheduledMessage, error) {
	var items []models.ScheduledMessage
	for rows.Next() {
		sm, err := scanScheduledMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scheduled message row: %w", err)
		}
		items = append(items, *sm)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scheduled message rows: %w", err)
	}

	return items, nil
}
