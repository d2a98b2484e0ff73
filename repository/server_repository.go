package repository

import (
	"context"

	"chatsphere/models"
)

// ServerRepository, sunucu ve üyelik veritabanı işlemleri için interface.
//
// IsMemberMuted, zamanlanmış mesaj akışının kapı bekçisidir:
// susturulmuş bir üyenin mesaj oluşturma isteği Validator'a bile
// ulaşmadan reddedilir.
type ServerRepository interface {
	Create(ctx context.Context, server *models.Server) error
	GetByID(ctx context.Context, id string) (*models.Server, error)
	ListByMember(ctx context.Context, userID string) ([]models.Server, error)

	AddMember(ctx context.Context, serverID, userID string) error
	IsMember(ctx context.Context, serverID, userID string) (bool, error)
	ListMembers(ctx context.Context, serverID string) ([]models.ServerMember, error)

	SetMemberMuted(ctx context.Context, serverID, userID string, muted bool) error
	IsMemberMuted(ctx context.Context, serverID, userID string) (bool, error)
}
