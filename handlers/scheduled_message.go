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

// ScheduledMessageHandler, zamanlanmış mesaj endpoint'lerini yöneten struct.
//
// Hata → HTTP status eşlemesi (pkg.Error üzerinden):
//   - ErrNotFound  → 404 (kayıt yok)
//   - ErrForbidden → 403 (yazar değil / üye değil / muted)
//   - ErrGone      → 410 (kayıt var ama artık pending değil)
//   - ErrBadRequest→ 400 (validation: içerik/zaman)
type ScheduledMessageHandler struct {
	scheduledService services.ScheduledMessageService
	composeLimiter   *ratelimit.ComposeRateLimiter
}

// NewScheduledMessageHandler, constructor.
func NewScheduledMessageHandler(
	scheduledService services.ScheduledMessageService,
	composeLimiter *ratelimit.ComposeRateLimiter,
) *ScheduledMessageHandler {
	return &ScheduledMessageHandler{
		scheduledService: scheduledService,
		composeLimiter:   composeLimiter,
	}
}

// Create godoc
// POST /api/channels/{id}/scheduled
// Body: { "content": "...", "scheduled_for": "2026-09-01T09:00:00Z" }
func (h *ScheduledMessageHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	// Zamanlama mesaj gönderme ile aynı spam bütçesinden düşer.
	if h.composeLimiter != nil && !h.composeLimiter.Allow(user.ID) {
		cooldown := h.composeLimiter.CooldownSeconds(user.ID)
		w.Header().Set("Retry-After", fmt.Sprintf("%d", cooldown))
		pkg.ErrorWithMessage(w, http.StatusTooManyRequests, "slow down, you are scheduling too fast")
		return
	}

	var req models.ScheduleMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sm, err := h.scheduledService.Schedule(r.Context(), r.PathValue("id"), user.ID, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, sm)
}

// List godoc
// GET /api/channels/{id}/scheduled
// Panel görünümü: bu kanaldaki KENDİ pending kayıtların, vade sırasıyla.
func (h *ScheduledMessageHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	pending, err := h.scheduledService.ListPendingForChannel(r.Context(), r.PathValue("id"), user.ID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, pending)
}

// Update godoc
// PATCH /api/scheduled/{id}
// Body: { "content": "...", "scheduled_for": "..." }
func (h *ScheduledMessageHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	var req models.UpdateScheduledMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sm, err := h.scheduledService.Edit(r.Context(), r.PathValue("id"), user.ID, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, sm)
}

// Cancel godoc
// DELETE /api/scheduled/{id}
// İdempotent: zaten sent/cancelled bir kayda ikinci DELETE yine 200 döner.
func (h *ScheduledMessageHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	if err := h.scheduledService.Cancel(r.Context(), r.PathValue("id"), user.ID); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "cancelled"})
}
