package services

import (
	"context"
	"fmt"

	"chatsphere/models"
	"chatsphere/pkg"
	"chatsphere/repository"
)

// ServerService, sunucu ve üyelik iş kuralları.
type ServerService interface {
	Create(ctx context.Context, ownerID string, req *models.CreateServerRequest) (*models.Server, error)
	Get(ctx context.Context, serverID, requesterID string) (*models.Server, error)
	ListForUser(ctx context.Context, userID string) ([]models.Server, error)
	Join(ctx context.Context, serverID, userID string) error
	ListMembers(ctx context.Context, serverID, requesterID string) ([]models.ServerMember, error)

	// SetMemberMuted, üye susturma/açma. Sadece sunucu sahibi çağırabilir.
	// Susturulan üye o sunucuda mesaj gönderemez ve zamanlayamaz.
	SetMemberMuted(ctx context.Context, serverID, requesterID, targetUserID string, muted bool) error
}

type serverService struct {
	serverRepo repository.ServerRepository
}

// NewServerService, constructor.
func NewServerService(serverRepo repository.ServerRepository) ServerService {
	return &serverService{serverRepo: serverRepo}
}

func (s *serverService) Create(ctx context.Context, ownerID string, req *models.CreateServerRequest) (*models.Server, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	server := &models.Server{
		Name:    req.Name,
		OwnerID: ownerID,
	}

	// Repo, sunucu + sahip üyeliğini tek transaction'da yazar.
	if err := s.serverRepo.Create(ctx, server); err != nil {
		return nil, err
	}

	return server, nil
}

func (s *serverService) Get(ctx context.Context, serverID, requesterID string) (*models.Server, error) {
	if err := s.requireMember(ctx, serverID, requesterID); err != nil {
		return nil, err
	}

	return s.serverRepo.GetByID(ctx, serverID)
}

func (s *serverService) ListForUser(ctx context.Context, userID string) ([]models.Server, error) {
	return s.serverRepo.ListByMember(ctx, userID)
}

func (s *serverService) Join(ctx context.Context, serverID, userID string) error {
	// Sunucu var mı?
	if _, err := s.serverRepo.GetByID(ctx, serverID); err != nil {
		return err
	}

	return s.serverRepo.AddMember(ctx, serverID, userID)
}

func (s *serverService) ListMembers(ctx context.Context, serverID, requesterID string) ([]models.ServerMember, error) {
	if err := s.requireMember(ctx, serverID, requesterID); err != nil {
		return nil, err
	}

	return s.serverRepo.ListMembers(ctx, serverID)
}

func (s *serverService) SetMemberMuted(ctx context.Context, serverID, requesterID, targetUserID string, muted bool) error {
	server, err := s.serverRepo.GetByID(ctx, serverID)
	if err != nil {
		return err
	}

	if server.OwnerID != requesterID {
		return fmt.Errorf("%w: only the server owner can mute members", pkg.ErrForbidden)
	}

	// Sahip kendini susturamaz — kilitlenmeyi önler.
	if targetUserID == server.OwnerID {
		return fmt.Errorf("%w: cannot mute the server owner", pkg.ErrBadRequest)
	}

	return s.serverRepo.SetMemberMuted(ctx, serverID, targetUserID, muted)
}

// requireMember, istek sahibinin sunucu üyesi olduğunu doğrular.
func (s *serverService) requireMember(ctx context.Context, serverID, userID string) error {
	isMember, err := s.serverRepo.IsMember(ctx, serverID, userID)
	if err != nil {
		return err
	}
	if !isMember {
		return fmt.Errorf("%w: not a member of this server", pkg.ErrForbidden)
	}

	return nil
}
