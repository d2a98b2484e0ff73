package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"chatsphere/models"
	"chatsphere/pkg"
	"chatsphere/repository"
	"chatsphere/ws"
)

// DeliveryWorker, vadesi gelmiş tek bir zamanlanmış mesajı teslim eder:
// içeriği görünür bir Message olarak yazar, sonra kaydı sent'e çeker.
//
// İki adımlı hand-off ve yarış davranışı:
//
//  1. Message yazılır (yeni ID, taze timestamp).
//  2. MarkSent koşullu UPDATE ile pending → sent geçişi yapılır.
//
// Adım 1 başarılı olup adım 2 başarısız olursa (DB hatası) kayıt pending
// kalır ve SONRAKİ taramada yeniden işlenir — teslimat at-least-once'tır,
// duplicate Message bilinen ve kabul edilen bir risktir. Adım 2'de 0 satır
// etkilenmesi (ErrGone) ise kaybedilen bir yarıştır: başka bir oturum kaydı
// zaten teslim etmiş. Bu durumda hata DEĞİL, sessiz başarı döneriz —
// tekrar denenmemeli.
type DeliveryWorker interface {
	Deliver(ctx context.Context, sm *models.ScheduledMessage) error
}

type deliveryWorker struct {
	messageRepo   repository.MessageRepository
	scheduledRepo repository.ScheduledMessageRepository
	hub           ws.EventPublisher
}

// NewDeliveryWorker, constructor.
func NewDeliveryWorker(
	messageRepo repository.MessageRepository,
	scheduledRepo repository.ScheduledMessageRepository,
	hub ws.EventPublisher,
) DeliveryWorker {
	return &deliveryWorker{
		messageRepo:   messageRepo,
		scheduledRepo: scheduledRepo,
		hub:           hub,
	}
}

func (w *deliveryWorker) Deliver(ctx context.Context, sm *models.ScheduledMessage) error {
	// İçerik olduğu gibi kopyalanır; timestamp teslim anıdır,
	// scheduled_for değil. Yazar bilgisi kayıttan taşınır.
	message := &models.Message{
		ChannelID: sm.ChannelID,
		UserID:    sm.AuthorID,
		UserName:  sm.AuthorName,
		Content:   sm.Content,
	}

	if err := w.messageRepo.Create(ctx, message); err != nil {
		return fmt.Errorf("failed to write delivered message: %w", err)
	}

	if err := w.scheduledRepo.MarkSent(ctx, sm.ID); err != nil {
		if errors.Is(err, pkg.ErrGone) {
			// Yarış kaybedildi: başka bir oturum aynı kaydı teslim etti.
			// Message zaten yazıldı — duplicate oluştu ama kayıt sent,
			// tekrar deneme olmayacak.
			log.Printf("[delivery] lost mark-sent race for scheduled message %s", sm.ID)
			return nil
		}
		// DB hatası: kayıt pending kaldı, sonraki taramada tekrar denenir.
		return fmt.Errorf("failed to mark scheduled message sent: %w", err)
	}

	w.hub.BroadcastToAll(ws.Event{Op: ws.OpMessageCreate, Data: message})
	w.hub.BroadcastToUser(sm.AuthorID, ws.Event{Op: ws.OpScheduledSent, Data: map[string]string{"id": sm.ID}})

	log.Printf("[delivery] delivered scheduled message %s to channel %s", sm.ID, sm.ChannelID)
	return nil
}
