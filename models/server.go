// Package models — Server domain modeli.
//
// Server, Discord'daki "guild" benzeri bir sohbet sunucusunu temsil eder.
// Üyelik ve üye susturma (mute) bilgisi server_members tablosundadır —
// susturulan üye o sunucunun kanallarına mesaj gönderemez ve zamanlayamaz.
package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Server, sunucu verisini temsil eder.
type Server struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ServerMember, bir sunucu üyesini üyelik bilgisiyle birlikte temsil eder.
// JOIN sonucu — users + server_members birleşimi.
type ServerMember struct {
	UserID      string    `json:"user_id"`
	Username    string    `json:"username"`
	DisplayName *string   `json:"display_name"`
	IsMuted     bool      `json:"is_muted"`
	JoinedAt    time.Time `json:"joined_at"`
}

// CreateServerRequest, yeni sunucu oluşturma isteği.
type CreateServerRequest struct {
	Name string `json:"name"`
}

// Validate, CreateServerRequest kontrolü.
func (r *CreateServerRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	nameLen := utf8.RuneCountInString(r.Name)
	if nameLen < 1 || nameLen > 100 {
		return fmt.Errorf("server name must be between 1 and 100 characters")
	}
	return nil
}

// MuteMemberRequest, üye susturma/susturmayı kaldırma isteği.
// Tek endpoint, Muted alanı ile toggle yerine explicit set — idempotent.
type MuteMemberRequest struct {
	Muted bool `json:"muted"`
}
