package repository

import (
	"context"

	"chatsphere/models"
)

// SessionRepository, refresh token oturum kayıtları için interface.
//
// Access token stateless JWT'dir; session tablosu sadece refresh
// token'ları tutar. Logout = ilgili session satırını silmek.
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	GetByRefreshToken(ctx context.Context, refreshToken string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context) error
}
