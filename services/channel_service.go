package services

import (
	"context"
	"fmt"

	"chatsphere/models"
	"chatsphere/pkg"
	"chatsphere/repository"
)

// ChannelService, kanal iş kuralları.
type ChannelService interface {
	Create(ctx context.Context, serverID, requesterID string, req *models.CreateChannelRequest) (*models.Channel, error)
	ListForServer(ctx context.Context, serverID, requesterID string) ([]models.Channel, error)
}

type channelService struct {
	channelRepo repository.ChannelRepository
	serverRepo  repository.ServerRepository
}

// NewChannelService, constructor.
func NewChannelService(
	channelRepo repository.ChannelRepository,
	serverRepo repository.ServerRepository,
) ChannelService {
	return &channelService{
		channelRepo: channelRepo,
		serverRepo:  serverRepo,
	}
}

func (s *channelService) Create(ctx context.Context, serverID, requesterID string, req *models.CreateChannelRequest) (*models.Channel, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	// Sadece sunucu sahibi kanal açabilir.
	server, err := s.serverRepo.GetByID(ctx, serverID)
	if err != nil {
		return nil, err
	}
	if server.OwnerID != requesterID {
		return nil, fmt.Errorf("%w: only the server owner can create channels", pkg.ErrForbidden)
	}

	channel := &models.Channel{
		ServerID: serverID,
		Name:     req.Name,
	}

	if err := s.channelRepo.Create(ctx, channel); err != nil {
		return nil, err
	}

	return channel, nil
}

func (s *channelService) ListForServer(ctx context.Context, serverID, requesterID string) ([]models.Channel, error) {
	isMember, err := s.serverRepo.IsMember(ctx, serverID, requesterID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, fmt.Errorf("%w: not a member of this server", pkg.ErrForbidden)
	}

	return s.channelRepo.ListByServer(ctx, serverID)
}
