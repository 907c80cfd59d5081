package store

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursor_DefaultsToZero(t *testing.T) {
	s := createTestStore(t)

	got, err := s.Cursor(context.Background(), KeyOrderCursor)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got)
}

func TestAdvanceCursor_Monotonic(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	tests := []struct {
		candidate int64
		want      int64
	}{
		{candidate: 5, want: 5},
		{candidate: 9, want: 9},
		{candidate: 3, want: 9},
		{candidate: 9, want: 9},
		{candidate: 0, want: 9},
		{candidate: 10, want: 10},
	}

	for _, tt := range tests {
		got, err := s.AdvanceCursor(ctx, KeyOrderCursor, tt.candidate)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "AdvanceCursor(%d)", tt.candidate)
	}

	stored, err := s.Cursor(ctx, KeyOrderCursor)
	require.NoError(t, err)
	assert.Equal(t, int64(10), stored)
}

func TestAdvanceCursor_RejectsNegative(t *testing.T) {
	s := createTestStore(t)

	_, err := s.AdvanceCursor(context.Background(), KeyOrderCursor, -1)
	assert.Error(t, err)
}

func TestAdvanceCursor_KeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	_, err := s.AdvanceCursor(ctx, KeyOrderCursor, 12)
	require.NoError(t, err)
	_, err = s.AdvanceCursor(ctx, KeyReservationCursor, 3)
	require.NoError(t, err)

	all, err := s.Cursors(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{
		KeyOrderCursor:       12,
		KeyReservationCursor: 3,
	}, all)
}

func TestAdvanceCursor_ConcurrentHandlesNeverRegress(t *testing.T) {
	ctx := context.Background()
	a, b := openTwice(t)

	var wg sync.WaitGroup
	for i := int64(1); i <= 20; i++ {
		wg.Add(2)
		go func(id int64) {
			defer wg.Done()
			_, err := a.AdvanceCursor(ctx, KeyOrderCursor, id)
			assert.NoError(t, err)
		}(i)
		go func(id int64) {
			defer wg.Done()
			_, err := b.AdvanceCursor(ctx, KeyOrderCursor, 21-id)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, err := a.Cursor(ctx, KeyOrderCursor)
	require.NoError(t, err)
	assert.Equal(t, int64(20), got)
}
