package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"chatsphere/models"
	"chatsphere/pkg"
	"chatsphere/pkg/ratelimit"
	"chatsphere/services"
)

// MessageHandler, anlık mesaj endpoint'lerini yöneten struct.
type MessageHandler struct {
	messageService services.MessageService
	composeLimiter *ratelimit.ComposeRateLimiter
}

// NewMessageHandler, constructor.
// composeLimiter, ScheduledMessageHandler ile paylaşılır — anlık gönderme
// ve zamanlama tek spam bütçesinden düşer. nil ise devre dışı.
func NewMessageHandler(
	messageService services.MessageService,
	composeLimiter *ratelimit.ComposeRateLimiter,
) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
		composeLimiter: composeLimiter,
	}
}

// List godoc
// GET /api/channels/{id}/messages
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	messages, err := h.messageService.ListForChannel(r.Context(), r.PathValue("id"), user.ID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, messages)
}

// Create godoc
// POST /api/channels/{id}/messages
// Body: { "content": "..." }
func (h *MessageHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	if h.composeLimiter != nil && !h.composeLimiter.Allow(user.ID) {
		cooldown := h.composeLimiter.CooldownSeconds(user.ID)
		w.Header().Set("Retry-After", fmt.Sprintf("%d", cooldown))
		pkg.ErrorWithMessage(w, http.StatusTooManyRequests, "slow down, you are sending messages too fast")
		return
	}

	var req models.CreateMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	message, err := h.messageService.Send(r.Context(), r.PathValue("id"), user.ID, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, message)
}
