package membership

import (
	"context"
	"testing"
	"time"

	"gymhub/internal/clock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweeper_SweepOnce(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewFake(now)
	repo := NewMemoryRepository()

	lapsing := sampleMembership(now)
	require.NoError(t, repo.CreateMembership(ctx, lapsing, now))
	later := sampleMembership(now)
	later.ID, later.UserID, later.EndDate = "ms-2", "m-2", now.AddDate(0, 0, 90)
	require.NoError(t, repo.CreateMembership(ctx, later, now))

	s := NewSweeper(repo, clk, time.Minute)

	n, err := s.SweepOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	clk.Advance(31 * 24 * time.Hour)
	n, err = s.SweepOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := repo.GetMembership(ctx, "ms-1")
	require.NoError(t, err)
	assert.Equal(t, StatusExpired, got.Status)

	n, err = s.SweepOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSweeper_RunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewSweeper(NewMemoryRepository(), clock.NewFake(now), time.Millisecond)

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestSweeper_RunWithoutInterval(t *testing.T) {
	for _, interval := range []time.Duration{0, -time.Minute} {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		s := NewSweeper(NewMemoryRepository(), clock.NewFake(now), interval)

		start := time.Now()
		assert.NotPanics(t, func() { s.Run(ctx) }, interval.String())
		assert.Less(t, time.Since(start), time.Second, interval.String())
		cancel()
	}
}
