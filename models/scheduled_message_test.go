package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestScheduleMessageRequestValidate(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	t.Run("valid future time", func(t *testing.T) {
		req := ScheduleMessageRequest{
			Content:      "  hello world  ",
			ScheduledFor: "2026-03-15T13:00:00Z",
		}

		target, err := req.Validate(now)
		require.NoError(t, err)
		require.Equal(t, "hello world", req.Content) // trim edilmiş olmalı
		require.Equal(t, time.Date(2026, 3, 15, 13, 0, 0, 0, time.UTC), target.UTC())
	})

	t.Run("empty content", func(t *testing.T) {
		req := ScheduleMessageRequest{
			Content:      "   ",
			ScheduledFor: "2026-03-15T13:00:00Z",
		}

		_, err := req.Validate(now)
		require.ErrorIs(t, err, ErrEmptyContent)
	})

	t.Run("missing time", func(t *testing.T) {
		req := ScheduleMessageRequest{Content: "hello"}

		_, err := req.Validate(now)
		require.ErrorIs(t, err, ErrMissingTime)
	})

	t.Run("unparseable time", func(t *testing.T) {
		req := ScheduleMessageRequest{
			Content:      "hello",
			ScheduledFor: "next tuesday",
		}

		_, err := req.Validate(now)
		require.ErrorIs(t, err, ErrInvalidTime)
	})

	t.Run("past time", func(t *testing.T) {
		req := ScheduleMessageRequest{
			Content:      "hello",
			ScheduledFor: "2026-03-15T11:00:00Z",
		}

		_, err := req.Validate(now)
		require.ErrorIs(t, err, ErrPastTime)
	})

	t.Run("exactly now is rejected", func(t *testing.T) {
		// strictly future şartı: now'a eşit zaman geçersiz.
		req := ScheduleMessageRequest{
			Content:      "hello",
			ScheduledFor: "2026-03-15T12:00:00Z",
		}

		_, err := req.Validate(now)
		require.ErrorIs(t, err, ErrPastTime)
	})

	t.Run("timezone offset is honored", func(t *testing.T) {
		// UTC'de gelecekte ama offset'li yazılmış bir zaman.
		req := ScheduleMessageRequest{
			Content:      "hello",
			ScheduledFor: "2026-03-15T15:00:00+02:00",
		}

		target, err := req.Validate(now)
		require.NoError(t, err)
		require.True(t, target.After(now))
	})
}

func TestUpdateScheduledMessageRequestValidate(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	t.Run("revalidates against current now", func(t *testing.T) {
		// Oluşturma anında gelecekte olan bir zaman, düzenleme
		// anında geçmişte kalmışsa reddedilir.
		req := UpdateScheduledMessageRequest{
			Content:      "edited",
			ScheduledFor: "2026-03-15T11:30:00Z",
		}

		_, err := req.Validate(now)
		require.ErrorIs(t, err, ErrPastTime)
	})

	t.Run("valid edit", func(t *testing.T) {
		req := UpdateScheduledMessageRequest{
			Content:      "edited",
			ScheduledFor: "2026-03-16T09:00:00Z",
		}

		target, err := req.Validate(now)
		require.NoError(t, err)
		require.True(t, target.After(now))
	})

	t.Run("empty content", func(t *testing.T) {
		req := UpdateScheduledMessageRequest{
			Content:      "",
			ScheduledFor: "2026-03-16T09:00:00Z",
		}

		_, err := req.Validate(now)
		require.ErrorIs(t, err, ErrEmptyContent)
	})
}
