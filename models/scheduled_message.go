package models

import (
	"errors"
	"strings"
	"time"
)

// Zamanlanmış mesaj durumları.
// pending başlangıç durumudur; sent ve cancelled terminal durumlar.
// Terminal bir durumdan geri dönüş yoktur: sent → pending veya
// cancelled → pending gibi geçişler asla yapılmaz.
const (
	ScheduledStatusPending   = "pending"
	ScheduledStatusSent      = "sent"
	ScheduledStatusCancelled = "cancelled"
)

// Doğrulama hataları.
// Neden sentinel error? Handler katmanı errors.Is ile hangi alanın
// hatalı olduğunu ayırt edip kullanıcıya net bir mesaj dönebilsin diye.
var (
	ErrEmptyContent = errors.New("message content is required")
	ErrMissingTime  = errors.New("scheduled time is required")
	ErrInvalidTime  = errors.New("scheduled time is not a valid timestamp")
	ErrPastTime     = errors.New("scheduled time must be in the future")
)

// ScheduledMessage, ileri bir tarihe ertelenmiş mesajı temsil eder.
// Teslim edildiğinde içeriği bir Message'a kopyalanır, kendisi sent
// durumuna geçer ve kalıcı olarak saklanır (fiziksel silme yok).
type ScheduledMessage struct {
	ID           string     `json:"id"`
	ServerID     string     `json:"server_id"`
	ChannelID    string     `json:"channel_id"`
	Content      string     `json:"content"`
	AuthorID     string     `json:"author_id"`
	AuthorName   string     `json:"author_name"`
	ScheduledFor time.Time  `json:"scheduled_for"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	SentAt       *time.Time `json:"sent_at,omitempty"`
}

// ScheduleMessageRequest, yeni zamanlanmış mesaj oluşturma isteği.
// ScheduledFor RFC3339 string olarak gelir; Validate parse edip
// time.Time döner.
type ScheduleMessageRequest struct {
	Content      string `json:"content"`
	ScheduledFor string `json:"scheduled_for"`
}

// Validate, isteği "now" anına göre doğrular ve parse edilmiş hedef
// zamanı döner. Saf bir fonksiyon: yan etkisi yok, aynı girdilerle
// her zaman aynı sonucu verir. "now" parametre olarak alınır ki
// testlerde sabit bir saatle deterministik çalışabilsin.
func (r *ScheduleMessageRequest) Validate(now time.Time) (time.Time, error) {
	r.Content = strings.TrimSpace(r.Content)
	if r.Content == "" {
		return time.Time{}, ErrEmptyContent
	}

	return validateScheduledFor(r.ScheduledFor, now)
}

// UpdateScheduledMessageRequest, pending bir zamanlanmış mesajı
// düzenleme isteği. İki alan da zorunludur; düzenleme sırasında
// hedef zaman, orijinal oluşturma anına göre değil o anki "now"a
// göre yeniden doğrulanır.
type UpdateScheduledMessageRequest struct {
	Content      string `json:"content"`
	ScheduledFor string `json:"scheduled_for"`
}

// Validate, düzenleme isteğini "now" anına göre doğrular ve parse
// edilmiş hedef zamanı döner.
func (r *UpdateScheduledMessageRequest) Validate(now time.Time) (time.Time, error) {
	r.Content = strings.TrimSpace(r.Content)
	if r.Content == "" {
		return time.Time{}, ErrEmptyContent
	}

	return validateScheduledFor(r.ScheduledFor, now)
}

// validateScheduledFor, hedef zamanın parse edilebilir ve kesinlikle
// gelecekte olduğunu kontrol eder. Tam "now"a eşit bir zaman geçmiş
// sayılır; strictly greater şartı var.
func validateScheduledFor(raw string, now time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, ErrMissingTime
	}

	target, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, ErrInvalidTime
	}

	if !target.After(now) {
		return time.Time{}, ErrPastTime
	}

	return target, nil
}
