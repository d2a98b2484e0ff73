package repository

import (
	"context"
	"time"

	"chatsphere/models"
)

// ScheduledMessageRepository, zamanlanmış mesajların durum makinesini
// veritabanı seviyesinde uygulayan interface.
//
// Durum geçişleri:
//
//	pending → sent      (MarkSent, teslimat worker'ı)
//	pending → cancelled (Cancel, yazar)
//
// Terminal durumlardan çıkış yoktur. MarkSent ve Cancel bu kuralı
// koşullu UPDATE ile uygular: WHERE status = 'pending' şartı sayesinde
// yarışan iki geçişten yalnızca biri kazanır, kaybeden 0 satır etkiler.
type ScheduledMessageRepository interface {
	Create(ctx context.Context, sm *models.ScheduledMessage) error
	GetByID(ctx context.Context, id string) (*models.ScheduledMessage, error)

	// Update, pending bir kaydın content ve scheduled_for alanlarını
	// değiştirir. Kayıt pending değilse pkg.ErrGone döner.
	Update(ctx context.Context, id, content string, scheduledFor time.Time) (*models.ScheduledMessage, error)

	// Cancel idempotent'tir: kayıt zaten terminal durumdaysa hata
	// dönmez ve updated_at'e dokunmaz.
	Cancel(ctx context.Context, id string) error

	// ListDue, vadesi gelmiş pending kayıtları scheduled_for artan
	// sırayla, en fazla limit adet döner. Tarama anındaki durumu
	// yansıtır; canlı bir abonelik değildir.
	ListDue(ctx context.Context, authorID string, now time.Time, limit int) ([]models.ScheduledMessage, error)

	// ListPendingForChannel, panel görünümü için (kanal, yazar)
	// çiftinin pending kayıtlarını scheduled_for artan sırayla döner.
	ListPendingForChannel(ctx context.Context, channelID, authorID string) ([]models.ScheduledMessage, error)

	// MarkSent, pending → sent geçişini yapar ve sent_at'i işler.
	// Kayıt yoksa pkg.ErrNotFound, artık pending değilse pkg.ErrGone.
	MarkSent(ctx context.Context, id string) error
}
