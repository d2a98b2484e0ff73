package services

import (
	"context"
	"fmt"
	"time"

	"chatsphere/models"
	"chatsphere/pkg"
	"chatsphere/repository"
	"chatsphere/ws"
)

// ScheduledMessageService, zamanlanmış mesajların compose/edit/cancel
// yaşam döngüsünü yönetir.
//
// pending → sent geçişi bu servise AİT DEĞİLDİR — o geçişin sahibi
// DeliveryWorker'dır. Burası sadece yazarın yapabildiği işlemleri kapsar:
// oluşturma, düzenleme, iptal ve panel listesi.
type ScheduledMessageService interface {
	// Schedule, yeni bir zamanlanmış mesaj oluşturur.
	// Kontrol sırası: üyelik → mute → validation. Susturulmuş üyenin
	// isteği içerik doğrulamasına hiç ulaşmadan reddedilir.
	Schedule(ctx context.Context, channelID, userID string, req *models.ScheduleMessageRequest) (*models.ScheduledMessage, error)

	// Edit, pending bir kaydın içeriğini ve hedef zamanını değiştirir.
	// Hedef zaman, düzenleme anındaki "now"a göre yeniden doğrulanır.
	// Yazar değilse pkg.ErrForbidden, kayıt pending değilse pkg.ErrGone.
	Edit(ctx context.Context, id, userID string, req *models.UpdateScheduledMessageRequest) (*models.ScheduledMessage, error)

	// Cancel idempotent'tir: zaten terminal durumdaki bir kaydı iptal
	// etmek hata değildir ve kaydı değiştirmez.
	Cancel(ctx context.Context, id, userID string) error

	// ListPendingForChannel, panel görünümü: (kanal, yazar) çiftinin
	// pending kayıtları, scheduled_for artan sırayla.
	ListPendingForChannel(ctx context.Context, channelID, userID string) ([]models.ScheduledMessage, error)
}

type scheduledMessageService struct {
	scheduledRepo repository.ScheduledMessageRepository
	channelRepo   repository.ChannelRepository
	serverRepo    repository.ServerRepository
	userRepo      repository.UserRepository
	hub           ws.EventPublisher
}

// NewScheduledMessageService, constructor.
func NewScheduledMessageService(
	scheduledRepo repository.ScheduledMessageRepository,
	channelRepo repository.ChannelRepository,
	serverRepo repository.ServerRepository,
	userRepo repository.UserRepository,
	hub ws.EventPublisher,
) ScheduledMessageService {
	return &scheduledMessageService{
		scheduledRepo: scheduledRepo,
		channelRepo:   channelRepo,
		serverRepo:    serverRepo,
		userRepo:      userRepo,
		hub:           hub,
	}
}

func (s *scheduledMessageService) Schedule(ctx context.Context, channelID, userID string, req *models.ScheduleMessageRequest) (*models.ScheduledMessage, error) {
	channel, err := s.channelRepo.GetByID(ctx, channelID)
	if err != nil {
		return nil, err
	}

	isMember, err := s.serverRepo.IsMember(ctx, channel.ServerID, userID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, fmt.Errorf("%w: not a member of this server", pkg.ErrForbidden)
	}

	muted, err := s.serverRepo.IsMemberMuted(ctx, channel.ServerID, userID)
	if err != nil {
		return nil, err
	}
	if muted {
		return nil, fmt.Errorf("%w: you are muted on this server", pkg.ErrForbidden)
	}

	scheduledFor, err := req.Validate(time.Now())
	if err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	sm := &models.ScheduledMessage{
		ServerID:     channel.ServerID,
		ChannelID:    channelID,
		Content:      req.Content,
		AuthorID:     userID,
		AuthorName:   user.Name(),
		ScheduledFor: scheduledFor,
	}

	if err := s.scheduledRepo.Create(ctx, sm); err != nil {
		return nil, err
	}

	// Panel event'leri sadece yazara gider — zamanlanmış mesaj teslim
	// edilene kadar başkası için görünmezdir.
	s.hub.BroadcastToUser(userID, ws.Event{Op: ws.OpScheduledCreate, Data: sm})

	return sm, nil
}

func (s *scheduledMessageService) Edit(ctx context.Context, id, userID string, req *models.UpdateScheduledMessageRequest) (*models.ScheduledMessage, error) {
	existing, err := s.scheduledRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if existing.AuthorID != userID {
		return nil, fmt.Errorf("%w: only the author can edit a scheduled message", pkg.ErrForbidden)
	}

	scheduledFor, err := req.Validate(time.Now())
	if err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	// Koşullu UPDATE: kayıt bu arada sent/cancelled olduysa ErrGone.
	updated, err := s.scheduledRepo.Update(ctx, id, req.Content, scheduledFor)
	if err != nil {
		return nil, err
	}

	s.hub.BroadcastToUser(userID, ws.Event{Op: ws.OpScheduledUpdate, Data: updated})

	return updated, nil
}

func (s *scheduledMessageService) Cancel(ctx context.Context, id, userID string) error {
	existing, err := s.scheduledRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if existing.AuthorID != userID {
		return fmt.Errorf("%w: only the author can cancel a scheduled message", pkg.ErrForbidden)
	}

	// Zaten terminal durumdaysa no-op başarı — event de gönderilmez,
	// panelde değişen bir şey yok.
	if existing.Status != models.ScheduledStatusPending {
		return nil
	}

	if err := s.scheduledRepo.Cancel(ctx, id); err != nil {
		return err
	}

	s.hub.BroadcastToUser(userID, ws.Event{Op: ws.OpScheduledCancel, Data: map[string]string{"id": id}})

	return nil
}

func (s *scheduledMessageService) ListPendingForChannel(ctx context.Context, channelID, userID string) ([]models.ScheduledMessage, error) {
	channel, err := s.channelRepo.GetByID(ctx, channelID)
	if err != nil {
		return nil, err
	}

	isMember, err := s.serverRepo.IsMember(ctx, channel.ServerID, userID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, fmt.Errorf("%w: not a member of this server", pkg.ErrForbidden)
	}

	return s.scheduledRepo.ListPendingForChannel(ctx, channelID, userID)
}
