package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// maxMessageLength, bir mesaj içeriğinin izin verilen maksimum uzunluğu (rune).
const maxMessageLength = 2000

// Message, bir kanala gönderilmiş mesajı temsil eder.
// Zamanlanmış mesajlar teslim edildiğinde de bu modele dönüşür;
// yani "messages" tablosu hem anlık hem ertelenmiş mesajların son durağı.
type Message struct {
	ID        string    `json:"id"`
	ChannelID string    `json:"channel_id"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// CreateMessageRequest, anlık mesaj gönderme isteği.
type CreateMessageRequest struct {
	Content string `json:"content"`
}

// Validate, CreateMessageRequest'in geçerli olup olmadığını kontrol eder.
func (r *CreateMessageRequest) Validate() error {
	r.Content = strings.TrimSpace(r.Content)
	if r.Content == "" {
		return fmt.Errorf("message content is required")
	}
	if utf8.RuneCountInString(r.Content) > maxMessageLength {
		return fmt.Errorf("message content must be at most %d characters", maxMessageLength)
	}

	return nil
}
