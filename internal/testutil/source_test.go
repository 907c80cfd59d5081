package testutil

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeSource_QueuedResponsesThenRepeatLast(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("offline")
	f := NewFakeSource().
		QueueOrders(Orders(1, 2), nil).
		QueueOrders(nil, boom)

	got, err := f.FetchRecentOrders(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = f.FetchRecentOrders(ctx, 10)
	assert.ErrorIs(t, err, boom)

	_, err = f.FetchRecentOrders(ctx, 10)
	assert.ErrorIs(t, err, boom, "last response repeats")
	assert.Equal(t, 3, f.OrderCalls())
}

func TestFakeSource_EmptyByDefaultAndLimit(t *testing.T) {
	ctx := context.Background()
	f := NewFakeSource()

	got, err := f.FetchRecentOrders(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, got)

	f.QueueOrders(Orders(1, 2, 3), nil)
	got, err = f.FetchRecentOrders(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, 2, f.LastLimit())

	res, err := f.QueueReservations(Reservations(4), nil).FetchRecentReservations(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(4), res[0].ID)
}

func TestFakeSource_Hold(t *testing.T) {
	f := NewFakeSource().QueueOrders(Orders(9), nil)
	release := f.Hold()

	done := make(chan int, 1)
	go func() {
		got, _ := f.FetchRecentOrders(context.Background(), 10)
		done <- len(got)
	}()

	select {
	case <-f.Entered():
	case <-time.After(time.Second):
		t.Fatal("fetch never started")
	}

	select {
	case <-done:
		t.Fatal("fetch returned while held")
	default:
	}

	release()
	release()
	assert.Equal(t, 1, <-done)
}

func TestBuilders(t *testing.T) {
	o := Orders(7)[0]
	assert.Equal(t, "ORD-7", o.OrderNumber)
	assert.Equal(t, int64(7000), o.TotalAmount)

	p := Pending("Budi", 2)
	require.NoError(t, p.Validate())
	assert.Equal(t, int64(20000), p.TotalAmount)
}
