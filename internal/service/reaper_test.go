package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/quizgate/config"
	"github.com/target/quizgate/internal/adapters/clock"
	"github.com/target/quizgate/internal/adapters/memory"
	"github.com/target/quizgate/internal/domain/ratelimit"
	"github.com/target/quizgate/internal/mocks"
	"go.uber.org/mock/gomock"
)

func TestNewReaperService_Validation(t *testing.T) {
	ctrl := gomock.NewController(t)
	sweeper := mocks.NewMockSweeper(ctrl)
	cfg := config.ReaperConfig{Interval: time.Minute}

	tests := []struct {
		name string
		opts ReaperServiceOptions
	}{
		{"no targets", ReaperServiceOptions{Config: cfg}},
		{"unnamed target", ReaperServiceOptions{Targets: []SweepTarget{{Sweeper: sweeper}}, Config: cfg}},
		{"nil sweeper", ReaperServiceOptions{Targets: []SweepTarget{{Name: "x"}}, Config: cfg}},
		{"zero interval", ReaperServiceOptions{Targets: []SweepTarget{{Name: "x", Sweeper: sweeper}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewReaperService(tt.opts)
			require.Error(t, err)
		})
	}
}

func TestReaperService_SweepOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	now := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	clk := clock.NewFixed(now)

	rates := mocks.NewMockSweeper(ctrl)
	revocations := mocks.NewMockSweeper(ctrl)
	rates.EXPECT().Sweep(gomock.Any(), now).Return(int64(3), nil)
	revocations.EXPECT().Sweep(gomock.Any(), now).Return(int64(2), nil)

	svc, err := NewReaperService(ReaperServiceOptions{
		Targets: []SweepTarget{
			{Name: "rate_counters", Sweeper: rates},
			{Name: "revocations", Sweeper: revocations},
		},
		Config: config.ReaperConfig{Interval: time.Minute},
		Clock:  clk,
		Logger: slog.Default(),
	})
	require.NoError(t, err)

	total, err := svc.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
}

func TestReaperService_SweepOnceContinuesPastFailure(t *testing.T) {
	ctrl := gomock.NewController(t)

	broken := mocks.NewMockSweeper(ctrl)
	healthy := mocks.NewMockSweeper(ctrl)
	boom := errors.New("connection reset")
	broken.EXPECT().Sweep(gomock.Any(), gomock.Any()).Return(int64(0), boom)
	healthy.EXPECT().Sweep(gomock.Any(), gomock.Any()).Return(int64(4), nil)

	svc, err := NewReaperService(ReaperServiceOptions{
		Targets: []SweepTarget{
			{Name: "revocations", Sweeper: broken},
			{Name: "rate_counters", Sweeper: healthy},
		},
		Config: config.ReaperConfig{Interval: time.Minute},
	})
	require.NoError(t, err)

	total, err := svc.SweepOnce(context.Background())
	require.Error(t, err)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "revocations")
	assert.Equal(t, int64(4), total)
}

func TestReaperService_SweepsMemoryStores(t *testing.T) {
	clk := clock.NewFixed(time.Unix(1000, 0))
	ctx := context.Background()

	rates := memory.NewRateCounterStore()
	policy := ratelimit.Policy{Max: 5, Window: time.Minute}
	_, err := rates.Consume(ctx, "login:1.2.3.4", policy, clk.Now())
	require.NoError(t, err)

	list := memory.NewRevocationList(clk)
	require.NoError(t, list.Revoke(ctx, "jti-1", clk.Now().Add(30*time.Second)))

	svc, err := NewReaperService(ReaperServiceOptions{
		Targets: []SweepTarget{
			{Name: "rate_counters", Sweeper: rates},
			{Name: "revocations", Sweeper: list},
		},
		Config: config.ReaperConfig{Interval: time.Minute},
		Clock:  clk,
	})
	require.NoError(t, err)

	total, err := svc.SweepOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, total)

	clk.Advance(2 * time.Minute)
	total, err = svc.SweepOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Zero(t, rates.Len())
}

func TestReaperService_RunStopsOnCancel(t *testing.T) {
	ctrl := gomock.NewController(t)
	sweeper := mocks.NewMockSweeper(ctrl)
	sweeper.EXPECT().Sweep(gomock.Any(), gomock.Any()).Return(int64(0), nil).AnyTimes()

	svc, err := NewReaperService(ReaperServiceOptions{
		Targets: []SweepTarget{{Name: "rate_counters", Sweeper: sweeper}},
		Config:  config.ReaperConfig{Interval: time.Minute},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("reaper did not stop after cancellation")
	}
}

func TestReaperService_RunReturnsDeadlineError(t *testing.T) {
	ctrl := gomock.NewController(t)
	sweeper := mocks.NewMockSweeper(ctrl)
	sweeper.EXPECT().Sweep(gomock.Any(), gomock.Any()).Return(int64(0), nil).AnyTimes()

	svc, err := NewReaperService(ReaperServiceOptions{
		Targets: []SweepTarget{{Name: "rate_counters", Sweeper: sweeper}},
		Config:  config.ReaperConfig{Interval: time.Minute},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err = svc.Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
