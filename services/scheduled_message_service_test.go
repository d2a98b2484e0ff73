package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chatsphere/database"
	"chatsphere/models"
	"chatsphere/pkg"
	"chatsphere/repository"
	"chatsphere/ws"
)

// fakeHub, EventPublisher'ın test implementasyonu — event'leri kaydeder.
type fakeHub struct {
	mu     sync.Mutex
	events []ws.Event
}

func (f *fakeHub) BroadcastToAll(event ws.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func (f *fakeHub) BroadcastToUser(userID string, event ws.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func (f *fakeHub) ops() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ops := make([]string, 0, len(f.events))
	for _, e := range f.events {
		ops = append(ops, e.Op)
	}
	return ops
}

// serviceFixture, in-memory DB üzerinde tam bir service ortamı kurar.
type serviceFixture struct {
	hub       *fakeHub
	scheduled ScheduledMessageService
	worker    DeliveryWorker

	scheduledRepo repository.ScheduledMessageRepository
	messageRepo   repository.MessageRepository
	serverRepo    repository.ServerRepository
	userRepo      repository.UserRepository

	author  *models.User
	server  *models.Server
	channel *models.Channel
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	ctx := context.Background()

	db, err := database.New(":memory:", database.Migrations())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	userRepo := repository.NewSQLiteUserRepo(db.Conn)
	serverRepo := repository.NewSQLiteServerRepo(db.Conn)
	channelRepo := repository.NewSQLiteChannelRepo(db.Conn)
	messageRepo := repository.NewSQLiteMessageRepo(db.Conn)
	scheduledRepo := repository.NewSQLiteScheduledMessageRepo(db.Conn)

	author := &models.User{Username: "alice", PasswordHash: "x"}
	require.NoError(t, userRepo.Create(ctx, author))

	server := &models.Server{Name: "test server", OwnerID: author.ID}
	require.NoError(t, serverRepo.Create(ctx, server))

	channel := &models.Channel{ServerID: server.ID, Name: "general"}
	require.NoError(t, channelRepo.Create(ctx, channel))

	hub := &fakeHub{}

	return &serviceFixture{
		hub:           hub,
		scheduled:     NewScheduledMessageService(scheduledRepo, channelRepo, serverRepo, userRepo, hub),
		worker:        NewDeliveryWorker(messageRepo, scheduledRepo, hub),
		scheduledRepo: scheduledRepo,
		messageRepo:   messageRepo,
		serverRepo:    serverRepo,
		userRepo:      userRepo,
		author:        author,
		server:        server,
		channel:       channel,
	}
}

func futureRFC3339(d time.Duration) string {
	return time.Now().Add(d).UTC().Format(time.RFC3339)
}

func TestScheduleCreatesPendingRecord(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	req := &models.ScheduleMessageRequest{
		Content:      "  see you tomorrow  ",
		ScheduledFor: futureRFC3339(time.Hour),
	}

	sm, err := f.scheduled.Schedule(ctx, f.channel.ID, f.author.ID, req)
	require.NoError(t, err)
	require.Equal(t, models.ScheduledStatusPending, sm.Status)
	require.Equal(t, "see you tomorrow", sm.Content)
	require.Equal(t, f.author.ID, sm.AuthorID)
	require.Equal(t, f.author.Name(), sm.AuthorName)
	require.Equal(t, f.server.ID, sm.ServerID)

	require.Contains(t, f.hub.ops(), ws.OpScheduledCreate)
}

func TestScheduleRejectsInvalidInput(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	cases := []struct {
		name string
		req  models.ScheduleMessageRequest
	}{
		{"empty content", models.ScheduleMessageRequest{Content: "  ", ScheduledFor: futureRFC3339(time.Hour)}},
		{"missing time", models.ScheduleMessageRequest{Content: "hi"}},
		{"invalid time", models.ScheduleMessageRequest{Content: "hi", ScheduledFor: "not-a-date"}},
		{"past time", models.ScheduleMessageRequest{Content: "hi", ScheduledFor: "2020-01-01T00:00:00Z"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := tc.req
			_, err := f.scheduled.Schedule(ctx, f.channel.ID, f.author.ID, &req)
			require.ErrorIs(t, err, pkg.ErrBadRequest)
		})
	}
}

func TestScheduleRejectsMutedMemberBeforeValidation(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	require.NoError(t, f.serverRepo.SetMemberMuted(ctx, f.server.ID, f.author.ID, true))

	// İçerik de geçersiz ama mute kontrolü önce gelir:
	// Forbidden dönmeli, BadRequest değil.
	req := &models.ScheduleMessageRequest{Content: "   "}
	_, err := f.scheduled.Schedule(ctx, f.channel.ID, f.author.ID, req)
	require.ErrorIs(t, err, pkg.ErrForbidden)
}

func TestScheduleRejectsNonMember(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	outsider := &models.User{Username: "mallory", PasswordHash: "x"}
	require.NoError(t, f.userRepo.Create(ctx, outsider))

	req := &models.ScheduleMessageRequest{
		Content:      "hi",
		ScheduledFor: futureRFC3339(time.Hour),
	}

	_, err := f.scheduled.Schedule(ctx, f.channel.ID, outsider.ID, req)
	require.ErrorIs(t, err, pkg.ErrForbidden)
}

func TestEditRevalidatesAndUpdates(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	sm, err := f.scheduled.Schedule(ctx, f.channel.ID, f.author.ID, &models.ScheduleMessageRequest{
		Content:      "original",
		ScheduledFor: futureRFC3339(time.Hour),
	})
	require.NoError(t, err)

	updated, err := f.scheduled.Edit(ctx, sm.ID, f.author.ID, &models.UpdateScheduledMessageRequest{
		Content:      "edited",
		ScheduledFor: futureRFC3339(2 * time.Hour),
	})
	require.NoError(t, err)
	require.Equal(t, "edited", updated.Content)
	require.True(t, updated.ScheduledFor.After(sm.ScheduledFor))

	// Geçmiş zamana düzenleme reddedilir.
	_, err = f.scheduled.Edit(ctx, sm.ID, f.author.ID, &models.UpdateScheduledMessageRequest{
		Content:      "edited again",
		ScheduledFor: "2020-01-01T00:00:00Z",
	})
	require.ErrorIs(t, err, pkg.ErrBadRequest)
}

func TestEditRejectsNonAuthor(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	sm, err := f.scheduled.Schedule(ctx, f.channel.ID, f.author.ID, &models.ScheduleMessageRequest{
		Content:      "mine",
		ScheduledFor: futureRFC3339(time.Hour),
	})
	require.NoError(t, err)

	other := &models.User{Username: "bob", PasswordHash: "x"}
	require.NoError(t, f.userRepo.Create(ctx, other))
	require.NoError(t, f.serverRepo.AddMember(ctx, f.server.ID, other.ID))

	_, err = f.scheduled.Edit(ctx, sm.ID, other.ID, &models.UpdateScheduledMessageRequest{
		Content:      "hijacked",
		ScheduledFor: futureRFC3339(time.Hour),
	})
	require.ErrorIs(t, err, pkg.ErrForbidden)
}

func TestEditRejectsTerminalRecord(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	sm, err := f.scheduled.Schedule(ctx, f.channel.ID, f.author.ID, &models.ScheduleMessageRequest{
		Content:      "soon gone",
		ScheduledFor: futureRFC3339(time.Hour),
	})
	require.NoError(t, err)

	require.NoError(t, f.scheduled.Cancel(ctx, sm.ID, f.author.ID))

	_, err = f.scheduled.Edit(ctx, sm.ID, f.author.ID, &models.UpdateScheduledMessageRequest{
		Content:      "too late",
		ScheduledFor: futureRFC3339(time.Hour),
	})
	require.ErrorIs(t, err, pkg.ErrGone)

	// Kayıt değişmemiş.
	got, err := f.scheduledRepo.GetByID(ctx, sm.ID)
	require.NoError(t, err)
	require.Equal(t, "soon gone", got.Content)
}

func TestCancelIsIdempotent(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	sm, err := f.scheduled.Schedule(ctx, f.channel.ID, f.author.ID, &models.ScheduleMessageRequest{
		Content:      "never mind",
		ScheduledFor: futureRFC3339(time.Hour),
	})
	require.NoError(t, err)

	require.NoError(t, f.scheduled.Cancel(ctx, sm.ID, f.author.ID))
	require.NoError(t, f.scheduled.Cancel(ctx, sm.ID, f.author.ID))

	got, err := f.scheduledRepo.GetByID(ctx, sm.ID)
	require.NoError(t, err)
	require.Equal(t, models.ScheduledStatusCancelled, got.Status)
}

func TestCancelRejectsNonAuthor(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	sm, err := f.scheduled.Schedule(ctx, f.channel.ID, f.author.ID, &models.ScheduleMessageRequest{
		Content:      "mine",
		ScheduledFor: futureRFC3339(time.Hour),
	})
	require.NoError(t, err)

	other := &models.User{Username: "bob", PasswordHash: "x"}
	require.NoError(t, f.userRepo.Create(ctx, other))
	require.NoError(t, f.serverRepo.AddMember(ctx, f.server.ID, other.ID))

	err = f.scheduled.Cancel(ctx, sm.ID, other.ID)
	require.ErrorIs(t, err, pkg.ErrForbidden)
}

func TestListPendingForChannelOrdering(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	later, err := f.scheduled.Schedule(ctx, f.channel.ID, f.author.ID, &models.ScheduleMessageRequest{
		Content:      "later",
		ScheduledFor: futureRFC3339(3 * time.Hour),
	})
	require.NoError(t, err)

	sooner, err := f.scheduled.Schedule(ctx, f.channel.ID, f.author.ID, &models.ScheduleMessageRequest{
		Content:      "sooner",
		ScheduledFor: futureRFC3339(time.Hour),
	})
	require.NoError(t, err)

	cancelled, err := f.scheduled.Schedule(ctx, f.channel.ID, f.author.ID, &models.ScheduleMessageRequest{
		Content:      "cancelled",
		ScheduledFor: futureRFC3339(2 * time.Hour),
	})
	require.NoError(t, err)
	require.NoError(t, f.scheduled.Cancel(ctx, cancelled.ID, f.author.ID))

	pending, err := f.scheduled.ListPendingForChannel(ctx, f.channel.ID, f.author.ID)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	require.Equal(t, sooner.ID, pending[0].ID)
	require.Equal(t, later.ID, pending[1].ID)
}
