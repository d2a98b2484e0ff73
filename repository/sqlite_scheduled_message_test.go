package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chatsphere/database"
	"chatsphere/models"
	"chatsphere/pkg"
)

// newTestDB, her test için izole bir in-memory SQLite açar.
func newTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.New(":memory:", database.Migrations())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}

// testFixture, foreign key zincirini (user → server → channel) kurar.
type testFixture struct {
	db        *database.DB
	scheduled ScheduledMessageRepository
	messages  MessageRepository

	user    *models.User
	server  *models.Server
	channel *models.Channel
}

func newFixture(t *testing.T) *testFixture {
	t.Helper()
	ctx := context.Background()
	db := newTestDB(t)

	users := NewSQLiteUserRepo(db.Conn)
	servers := NewSQLiteServerRepo(db.Conn)
	channels := NewSQLiteChannelRepo(db.Conn)

	user := &models.User{Username: "alice", PasswordHash: "x"}
	require.NoError(t, users.Create(ctx, user))

	server := &models.Server{Name: "test server", OwnerID: user.ID}
	require.NoError(t, servers.Create(ctx, server))

	channel := &models.Channel{ServerID: server.ID, Name: "general"}
	require.NoError(t, channels.Create(ctx, channel))

	return &testFixture{
		db:        db,
		scheduled: NewSQLiteScheduledMessageRepo(db.Conn),
		messages:  NewSQLiteMessageRepo(db.Conn),
		user:      user,
		server:    server,
		channel:   channel,
	}
}

// schedule, verilen hedef zamanla pending bir kayıt oluşturur.
// Repo katmanı gelecek kontrolü yapmaz (o Validator'ın işi), bu yüzden
// testler geçmiş tarihli "due" kayıtları doğrudan yaratabilir.
func (f *testFixture) schedule(t *testing.T, content string, at time.Time) *models.ScheduledMessage {
	t.Helper()

	sm := &models.ScheduledMessage{
		ServerID:     f.server.ID,
		ChannelID:    f.channel.ID,
		Content:      content,
		AuthorID:     f.user.ID,
		AuthorName:   f.user.Name(),
		ScheduledFor: at,
	}
	require.NoError(t, f.scheduled.Create(context.Background(), sm))

	return sm
}

func TestScheduledMessageCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	at := time.Now().Add(time.Hour)
	sm := f.schedule(t, "hello", at)

	require.NotEmpty(t, sm.ID)
	require.Equal(t, models.ScheduledStatusPending, sm.Status)

	got, err := f.scheduled.GetByID(ctx, sm.ID)
	require.NoError(t, err)
	require.Equal(t, sm.ID, got.ID)
	require.Equal(t, "hello", got.Content)
	require.Equal(t, models.ScheduledStatusPending, got.Status)
	require.Nil(t, got.SentAt)
	require.True(t, got.ScheduledFor.Equal(at.UTC().Truncate(time.Second)))
}

func TestScheduledMessageGetByIDNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.scheduled.GetByID(context.Background(), "missing")
	require.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestScheduledMessageListDue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now()

	// Sırayı karışık ekle: ListDue scheduled_for artan sırada dönmeli.
	late := f.schedule(t, "late", now.Add(-1*time.Minute))
	early := f.schedule(t, "early", now.Add(-3*time.Hour))
	mid := f.schedule(t, "mid", now.Add(-30*time.Minute))
	f.schedule(t, "future", now.Add(2*time.Hour)) // vadesi gelmemiş

	due, err := f.scheduled.ListDue(ctx, f.user.ID, now, 10)
	require.NoError(t, err)
	require.Len(t, due, 3)
	require.Equal(t, early.ID, due[0].ID)
	require.Equal(t, mid.ID, due[1].ID)
	require.Equal(t, late.ID, due[2].ID)
}

func TestScheduledMessageListDueLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now()

	for i := 0; i < 15; i++ {
		f.schedule(t, "m", now.Add(-time.Duration(i+1)*time.Minute))
	}

	due, err := f.scheduled.ListDue(ctx, f.user.ID, now, 10)
	require.NoError(t, err)
	require.Len(t, due, 10)

	// Limit en erken vadelileri tutmalı.
	for i := 1; i < len(due); i++ {
		require.False(t, due[i].ScheduledFor.Before(due[i-1].ScheduledFor))
	}
}

func TestScheduledMessageListDueFiltersAuthorAndStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now()

	mine := f.schedule(t, "mine", now.Add(-time.Minute))
	cancelled := f.schedule(t, "cancelled", now.Add(-time.Minute))
	require.NoError(t, f.scheduled.Cancel(ctx, cancelled.ID))

	// Başka bir yazarın vadesi gelmiş kaydı.
	users := NewSQLiteUserRepo(f.db.Conn)
	servers := NewSQLiteServerRepo(f.db.Conn)
	other := &models.User{Username: "bob", PasswordHash: "x"}
	require.NoError(t, users.Create(ctx, other))
	require.NoError(t, servers.AddMember(ctx, f.server.ID, other.ID))

	theirs := &models.ScheduledMessage{
		ServerID:     f.server.ID,
		ChannelID:    f.channel.ID,
		Content:      "theirs",
		AuthorID:     other.ID,
		AuthorName:   other.Name(),
		ScheduledFor: now.Add(-time.Minute),
	}
	require.NoError(t, f.scheduled.Create(ctx, theirs))

	due, err := f.scheduled.ListDue(ctx, f.user.ID, now, 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	require.Equal(t, mine.ID, due[0].ID)
}

func TestScheduledMessageMarkSent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sm := f.schedule(t, "deliver me", time.Now().Add(-time.Minute))

	require.NoError(t, f.scheduled.MarkSent(ctx, sm.ID))

	got, err := f.scheduled.GetByID(ctx, sm.ID)
	require.NoError(t, err)
	require.Equal(t, models.ScheduledStatusSent, got.Status)
	require.NotNil(t, got.SentAt)

	// İkinci MarkSent kaybeden taraftır: koşullu UPDATE 0 satır etkiler.
	err = f.scheduled.MarkSent(ctx, sm.ID)
	require.ErrorIs(t, err, pkg.ErrGone)

	// Olmayan kayıt.
	err = f.scheduled.MarkSent(ctx, "missing")
	require.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestScheduledMessageCancelIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sm := f.schedule(t, "cancel me", time.Now().Add(time.Hour))

	require.NoError(t, f.scheduled.Cancel(ctx, sm.ID))

	first, err := f.scheduled.GetByID(ctx, sm.ID)
	require.NoError(t, err)
	require.Equal(t, models.ScheduledStatusCancelled, first.Status)

	// İkinci cancel: no-op başarı, updated_at değişmez.
	require.NoError(t, f.scheduled.Cancel(ctx, sm.ID))

	second, err := f.scheduled.GetByID(ctx, sm.ID)
	require.NoError(t, err)
	require.True(t, second.UpdatedAt.Equal(first.UpdatedAt))

	// Olmayan kayıt için hata.
	err = f.scheduled.Cancel(ctx, "missing")
	require.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestScheduledMessageCancelAfterSent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sm := f.schedule(t, "raced", time.Now().Add(-time.Minute))
	require.NoError(t, f.scheduled.MarkSent(ctx, sm.ID))

	// sent bir kaydı cancel etmek no-op'tur; durum sent kalır.
	require.NoError(t, f.scheduled.Cancel(ctx, sm.ID))

	got, err := f.scheduled.GetByID(ctx, sm.ID)
	require.NoError(t, err)
	require.Equal(t, models.ScheduledStatusSent, got.Status)
}

func TestScheduledMessageUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sm := f.schedule(t, "original", time.Now().Add(time.Hour))
	newTime := time.Now().Add(2 * time.Hour)

	updated, err := f.scheduled.Update(ctx, sm.ID, "edited", newTime)
	require.NoError(t, err)
	require.Equal(t, "edited", updated.Content)
	require.True(t, updated.ScheduledFor.Equal(newTime.UTC().Truncate(time.Second)))
	require.Equal(t, models.ScheduledStatusPending, updated.Status)
}

func TestScheduledMessageUpdateNotPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sm := f.schedule(t, "original", time.Now().Add(time.Hour))
	require.NoError(t, f.scheduled.Cancel(ctx, sm.ID))

	_, err := f.scheduled.Update(ctx, sm.ID, "edited", time.Now().Add(2*time.Hour))
	require.ErrorIs(t, err, pkg.ErrGone)

	// Kayıt değişmemiş olmalı.
	got, err := f.scheduled.GetByID(ctx, sm.ID)
	require.NoError(t, err)
	require.Equal(t, "original", got.Content)

	_, err = f.scheduled.Update(ctx, "missing", "x", time.Now().Add(time.Hour))
	require.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestScheduledMessageListPendingForChannel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now()

	second := f.schedule(t, "second", now.Add(2*time.Hour))
	first := f.schedule(t, "first", now.Add(1*time.Hour))
	cancelled := f.schedule(t, "gone", now.Add(3*time.Hour))
	require.NoError(t, f.scheduled.Cancel(ctx, cancelled.ID))

	pending, err := f.scheduled.ListPendingForChannel(ctx, f.channel.ID, f.user.ID)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	require.Equal(t, first.ID, pending[0].ID)
	require.Equal(t, second.ID, pending[1].ID)
}
