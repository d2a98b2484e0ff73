package repository

import (
	"context"

	"chatsphere/models"
)

// MessageRepository, kanal mesajları için interface.
//
// Create iki yoldan çağrılır: kullanıcının anlık mesaj göndermesi ve
// teslimat worker'ının vadesi gelmiş zamanlanmış mesajı yazması.
// İki yol da aynı tabloya, aynı şekilde yazar.
type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	ListByChannel(ctx context.Context, channelID string, limit int) ([]models.Message, error)
}
