package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestNext_FridayNight(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	s, err := New("59 23 * * 5", loc, func(context.Context) (int64, error) { return 0, nil }, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}

	// среда 2026-10-14
	from := time.Date(2026, 10, 14, 10, 0, 0, 0, loc)
	got := s.Next(from)
	want := time.Date(2026, 10, 16, 23, 59, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("Next = %v, want %v", got, want)
	}

	// сразу после запуска следующий: через неделю
	if got := s.Next(want); !got.Equal(want.AddDate(0, 0, 7)) {
		t.Errorf("Next after run = %v", got)
	}
}

func TestNew_BadSchedule(t *testing.T) {
	if _, err := New("every friday", time.UTC, nil, zap.NewNop()); err == nil {
		t.Fatal("expected error for bad schedule")
	}
}

func TestRun_CallsPurger(t *testing.T) {
	calls := 0
	s, err := New("59 23 * * 5", time.UTC, func(ctx context.Context) (int64, error) {
		calls++
		if _, ok := ctx.Deadline(); !ok {
			t.Error("purge context has no deadline")
		}
		return 3, nil
	}, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	s.run()
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRun_ErrorIsLogged(t *testing.T) {
	s, err := New("* * * * *", time.UTC, func(context.Context) (int64, error) {
		return 0, errors.New("db down")
	}, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	s.run() // не паникует
}

func TestStartStop(t *testing.T) {
	s, err := New("59 23 * * 5", time.UTC, func(context.Context) (int64, error) { return 0, nil }, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	cancel()
	s.Stop()
}
