package repository

import (
	"context"

	"chatsphere/models"
)

// UserRepository, kullanıcı veritabanı işlemleri için interface.
//
// Neden interface?
// Service katmanı somut SQLite tipine değil bu interface'e bağımlı.
// Testlerde in-memory fake ile değiştirilebilir, ileride Postgres'e
// geçiş sadece yeni bir implementasyon yazmak demek.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}
