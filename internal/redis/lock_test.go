package redisclient

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestLockKeys(t *testing.T) {
	doctorID := uuid.MustParse("7d7b2b4e-3f0a-4c53-9d5e-2f1b8a3c9e01")

	assert.Equal(t,
		"lock:slot:7d7b2b4e-3f0a-4c53-9d5e-2f1b8a3c9e01:2026-10-19:09:00",
		SlotLockKey(doctorID, "2026-10-19", "09:00"))
}

func TestNoopLocker_RunsFn(t *testing.T) {
	locker := NewNoopLocker()

	called := false
	err := locker.WithLock(context.Background(), "any", func(ctx context.Context) error {
		called = true
		return nil
	})

	assert.NoError(t, err)
	assert.True(t, called)
}

func TestNoopLocker_PropagatesError(t *testing.T) {
	want := errors.New("inner failure")

	err := NewNoopLocker().WithLock(context.Background(), "any", func(ctx context.Context) error {
		return want
	})

	assert.ErrorIs(t, err, want)
}
