package services

import (
	"context"
	"fmt"

	"chatsphere/models"
	"chatsphere/pkg"
	"chatsphere/repository"
	"chatsphere/ws"
)

// Kanal geçmişi tek seferde en fazla bu kadar mesaj döner.
const messageHistoryLimit = 100

// MessageService, anlık mesaj gönderme ve kanal geçmişi iş kuralları.
type MessageService interface {
	Send(ctx context.Context, channelID, userID string, req *models.CreateMessageRequest) (*models.Message, error)
	ListForChannel(ctx context.Context, channelID, requesterID string) ([]models.Message, error)
}

type messageService struct {
	messageRepo repository.MessageRepository
	channelRepo repository.ChannelRepository
	serverRepo  repository.ServerRepository
	userRepo    repository.UserRepository
	hub         ws.EventPublisher
}

// NewMessageService, constructor.
func NewMessageService(
	messageRepo repository.MessageRepository,
	channelRepo repository.ChannelRepository,
	serverRepo repository.ServerRepository,
	userRepo repository.UserRepository,
	hub ws.EventPublisher,
) MessageService {
	return &messageService{
		messageRepo: messageRepo,
		channelRepo: channelRepo,
		serverRepo:  serverRepo,
		userRepo:    userRepo,
		hub:         hub,
	}
}

// Send, kanala anlık mesaj gönderir.
//
// Kontrol sırası: üyelik → mute → validation.
// Mute kontrolü validation'dan ÖNCE gelir — susturulmuş kullanıcının
// isteği içeriğine hiç bakılmadan reddedilir.
func (s *messageService) Send(ctx context.Context, channelID, userID string, req *models.CreateMessageRequest) (*models.Message, error) {
	channel, err := s.channelRepo.GetByID(ctx, channelID)
	if err != nil {
		return nil, err
	}

	if err := s.requireCanPost(ctx, channel.ServerID, userID); err != nil {
		return nil, err
	}

	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	message := &models.Message{
		ChannelID: channelID,
		UserID:    userID,
		UserName:  user.Name(),
		Content:   req.Content,
	}

	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, err
	}

	s.hub.BroadcastToAll(ws.Event{Op: ws.OpMessageCreate, Data: message})

	return message, nil
}

func (s *messageService) ListForChannel(ctx context.Context, channelID, requesterID string) ([]models.Message, error) {
	channel, err := s.channelRepo.GetByID(ctx, channelID)
	if err != nil {
		return nil, err
	}

	isMember, err := s.serverRepo.IsMember(ctx, channel.ServerID, requesterID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, fmt.Errorf("%w: not a member of this server", pkg.ErrForbidden)
	}

	return s.messageRepo.ListByChannel(ctx, channelID, messageHistoryLimit)
}

// requireCanPost, kullanıcının sunucuya üye ve susturulmamış olduğunu doğrular.
func (s *messageService) requireCanPost(ctx context.Context, serverID, userID string) error {
	isMember, err := s.serverRepo.IsMember(ctx, serverID, userID)
	if err != nil {
		return err
	}
	if !isMember {
		return fmt.Errorf("%w: not a member of this server", pkg.ErrForbidden)
	}

	muted, err := s.serverRepo.IsMemberMuted(ctx, serverID, userID)
	if err != nil {
		return err
	}
	if muted {
		return fmt.Errorf("%w: you are muted on this server", pkg.ErrForbidden)
	}

	return nil
}
