package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chatsphere/models"
	"chatsphere/ws"
)

// scheduleDue, vadesi geçmiş (hemen teslim edilebilir) pending bir kayıt
// yaratır. Service katmanı geçmiş zamanı reddettiği için repo doğrudan
// kullanılır — Validator'ın gelecek şartı mevcut kayıtlara retroaktif
// uygulanmaz, kayıt zaman geçtikçe kendiliğinden "due" olur.
func scheduleDue(t *testing.T, f *serviceFixture, content string, at time.Time) *models.ScheduledMessage {
	t.Helper()

	sm := &models.ScheduledMessage{
		ServerID:     f.server.ID,
		ChannelID:    f.channel.ID,
		Content:      content,
		AuthorID:     f.author.ID,
		AuthorName:   f.author.Name(),
		ScheduledFor: at,
	}
	require.NoError(t, f.scheduledRepo.Create(context.Background(), sm))

	return sm
}

func TestDeliverWritesMessageAndMarksSent(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	sm := scheduleDue(t, f, "good morning", time.Now().Add(-time.Minute))

	require.NoError(t, f.worker.Deliver(ctx, sm))

	// Kanala tam bir Message düşmüş olmalı: içerik aynen, yazar
	// bilgisi kayıttan, timestamp teslim anından.
	messages, err := f.messageRepo.ListByChannel(ctx, f.channel.ID, 10)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	require.Equal(t, "good morning", messages[0].Content)
	require.Equal(t, f.author.ID, messages[0].UserID)
	require.Equal(t, f.author.Name(), messages[0].UserName)
	require.WithinDuration(t, time.Now(), messages[0].Timestamp, 5*time.Second)

	// Kaynak kayıt sent'e geçmiş, sent_at işlenmiş.
	got, err := f.scheduledRepo.GetByID(ctx, sm.ID)
	require.NoError(t, err)
	require.Equal(t, models.ScheduledStatusSent, got.Status)
	require.NotNil(t, got.SentAt)

	ops := f.hub.ops()
	require.Contains(t, ops, ws.OpMessageCreate)
	require.Contains(t, ops, ws.OpScheduledSent)
}

func TestDeliverLostRaceIsNotAnError(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	sm := scheduleDue(t, f, "raced", time.Now().Add(-time.Minute))

	// Başka bir oturum kaydı bizden önce teslim etmiş gibi davran.
	require.NoError(t, f.scheduledRepo.MarkSent(ctx, sm.ID))

	// Kaybedilen yarış sessiz başarıdır — tekrar denenmemeli.
	require.NoError(t, f.worker.Deliver(ctx, sm))

	got, err := f.scheduledRepo.GetByID(ctx, sm.ID)
	require.NoError(t, err)
	require.Equal(t, models.ScheduledStatusSent, got.Status)
}

func TestPollerDeliversDueAndSkipsOthers(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	now := time.Now()

	dueA := scheduleDue(t, f, "due a", now.Add(-2*time.Minute))
	dueB := scheduleDue(t, f, "due b", now.Add(-time.Minute))
	future := scheduleDue(t, f, "future", now.Add(time.Hour))
	cancelled := scheduleDue(t, f, "cancelled", now.Add(-time.Minute))
	require.NoError(t, f.scheduledRepo.Cancel(ctx, cancelled.ID))

	identity := models.SessionIdentity{UserID: f.author.ID, DisplayName: f.author.Name()}
	poller := NewDeliveryPoller(f.scheduledRepo, f.worker, identity, time.Minute, 10)

	poller.Start()
	defer poller.Stop()

	// İlk tarama hemen çalışır — tick beklemeye gerek yok.
	require.Eventually(t, func() bool {
		a, err := f.scheduledRepo.GetByID(ctx, dueA.ID)
		if err != nil || a.Status != models.ScheduledStatusSent {
			return false
		}
		b, err := f.scheduledRepo.GetByID(ctx, dueB.ID)
		return err == nil && b.Status == models.ScheduledStatusSent
	}, 5*time.Second, 20*time.Millisecond)

	// İki due kayıt, iki mesaj — ne eksik ne fazla.
	messages, err := f.messageRepo.ListByChannel(ctx, f.channel.ID, 10)
	require.NoError(t, err)
	require.Len(t, messages, 2)

	// Vadesi gelmemiş kayıt pending kaldı.
	got, err := f.scheduledRepo.GetByID(ctx, future.ID)
	require.NoError(t, err)
	require.Equal(t, models.ScheduledStatusPending, got.Status)

	// İptal edilmiş kayıt asla teslim edilmez.
	got, err = f.scheduledRepo.GetByID(ctx, cancelled.ID)
	require.NoError(t, err)
	require.Equal(t, models.ScheduledStatusCancelled, got.Status)
	require.Nil(t, got.SentAt)
}

func TestPollerStopIsIdempotent(t *testing.T) {
	f := newServiceFixture(t)

	identity := models.SessionIdentity{UserID: f.author.ID}
	poller := NewDeliveryPoller(f.scheduledRepo, f.worker, identity, time.Minute, 10)

	poller.Start()
	poller.Stop()
	poller.Stop() // ikinci çağrı panic'lememeli
}

func TestPollerCancelBeforeDueEndToEnd(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	// Kayıt oluştur, vadesi gelmeden iptal et: hiçbir tarama onu
	// seçmemeli, hiçbir Message üretilmemeli.
	sm, err := f.scheduled.Schedule(ctx, f.channel.ID, f.author.ID, &models.ScheduleMessageRequest{
		Content:      "never delivered",
		ScheduledFor: time.Now().Add(2 * time.Second).UTC().Format(time.RFC3339),
	})
	require.NoError(t, err)
	require.NoError(t, f.scheduled.Cancel(ctx, sm.ID, f.author.ID))

	identity := models.SessionIdentity{UserID: f.author.ID}
	poller := NewDeliveryPoller(f.scheduledRepo, f.worker, identity, time.Second, 10)

	poller.Start()
	time.Sleep(3500 * time.Millisecond) // vade geçti, birkaç tick çalıştı
	poller.Stop()

	messages, err := f.messageRepo.ListByChannel(ctx, f.channel.ID, 10)
	require.NoError(t, err)
	require.Empty(t, messages)

	got, err := f.scheduledRepo.GetByID(ctx, sm.ID)
	require.NoError(t, err)
	require.Equal(t, models.ScheduledStatusCancelled, got.Status)
}
