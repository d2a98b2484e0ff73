package repository

import (
	"context"

	"chatsphere/models"
)

// ChannelRepository, kanal veritabanı işlemleri için interface.
type ChannelRepository interface {
	Create(ctx context.Context, channel *models.Channel) error
	GetByID(ctx context.Context, id string) (*models.Channel, error)
	ListByServer(ctx context.Context, serverID string) ([]models.Channel, error)
}
