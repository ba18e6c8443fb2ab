package worker

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	_ "time/tzdata"

	"finledger/internal/trace"
)

func TestNextDaily(t *testing.T) {
	moscow, err := time.LoadLocation("Europe/Moscow")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}
	newYork, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}

	tests := []struct {
		name   string
		after  time.Time
		hour   int
		minute int
		loc    *time.Location
		want   string
	}{
		{"later today", time.Date(2024, 3, 15, 5, 0, 0, 0, time.UTC), 9, 30, time.UTC, "2024-03-15T09:30:00Z"},
		{"exactly at anchor moves to tomorrow", time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC), 9, 30, time.UTC, "2024-03-16T09:30:00Z"},
		{"midnight in Moscow", time.Date(2024, 3, 15, 20, 0, 0, 0, time.UTC), 0, 0, moscow, "2024-03-16T00:00:00+03:00"},
		{"Moscow day already rolled over", time.Date(2024, 3, 15, 22, 0, 0, 0, time.UTC), 0, 0, moscow, "2024-03-17T00:00:00+03:00"},
		{"month end", time.Date(2024, 2, 29, 23, 0, 0, 0, time.UTC), 0, 0, time.UTC, "2024-03-01T00:00:00Z"},
		{"across DST start", time.Date(2024, 3, 9, 12, 0, 0, 0, newYork), 0, 0, newYork, "2024-03-10T00:00:00-05:00"},
		{"after DST start", time.Date(2024, 3, 10, 12, 0, 0, 0, newYork), 0, 0, newYork, "2024-03-11T00:00:00-04:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextDaily(tt.after, tt.hour, tt.minute, tt.loc).Format(time.RFC3339)
			if got != tt.want {
				t.Errorf("NextDaily = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestNextWeekly(t *testing.T) {
	// 2024-03-15 is a Friday.
	tests := []struct {
		name  string
		after time.Time
		day   time.Weekday
		want  string
	}{
		{"next Monday", time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC), time.Monday, "2024-03-18T09:00:00Z"},
		{"later the same day", time.Date(2024, 3, 18, 8, 0, 0, 0, time.UTC), time.Monday, "2024-03-18T09:00:00Z"},
		{"same day after anchor", time.Date(2024, 3, 18, 9, 0, 0, 0, time.UTC), time.Monday, "2024-03-25T09:00:00Z"},
		{"Sunday", time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC), time.Sunday, "2024-03-17T09:00:00Z"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextWeekly(tt.after, tt.day, 9, 0, time.UTC).Format(time.RFC3339)
			if got != tt.want {
				t.Errorf("NextWeekly = %s, want %s", got, tt.want)
			}
		})
	}
}

func everyFewMillis(after time.Time) time.Time {
	return after.Add(5 * time.Millisecond)
}

func TestScheduler_RunsJobsUntilStopped(t *testing.T) {
	var fast, failing atomic.Int32
	s := NewScheduler(
		Job{Name: "fast", Next: everyFewMillis, Run: func(context.Context, time.Time) error {
			fast.Add(1)
			return nil
		}},
		Job{Name: "failing", Next: everyFewMillis, Run: func(context.Context, time.Time) error {
			failing.Add(1)
			return errors.New("boom")
		}},
	)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !s.IsRunning() {
		t.Error("scheduler should be running after Start")
	}

	deadline := time.Now().Add(2 * time.Second)
	for (fast.Load() < 3 || failing.Load() < 3) && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if fast.Load() < 3 || failing.Load() < 3 {
		t.Fatalf("jobs ran fast=%d failing=%d, want at least 3 each", fast.Load(), failing.Load())
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if s.IsRunning() {
		t.Error("scheduler should not be running after Stop")
	}

	after := fast.Load()
	time.Sleep(30 * time.Millisecond)
	if fast.Load() != after {
		t.Error("job ran after Stop")
	}
}

func TestScheduler_StartTwice(t *testing.T) {
	s := NewScheduler(Job{
		Name: "idle",
		Next: func(after time.Time) time.Time { return after.Add(time.Hour) },
		Run:  func(context.Context, time.Time) error { return nil },
	})
	ctx := context.Background()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	defer s.Stop(ctx)

	if err := s.Start(ctx); err == nil {
		t.Error("second Start should fail")
	}
}

func TestScheduler_StopNotRunning(t *testing.T) {
	s := NewScheduler()
	if err := s.Stop(context.Background()); err != nil {
		t.Errorf("Stop on idle scheduler: %v", err)
	}
}

func TestScheduler_ConcurrentStop(t *testing.T) {
	s := NewScheduler(Job{Name: "fast", Next: everyFewMillis, Run: func(context.Context, time.Time) error { return nil }})

	for round := 0; round < 3; round++ {
		if err := s.Start(context.Background()); err != nil {
			t.Fatalf("Start round %d: %v", round, err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		var wg sync.WaitGroup
		errs := make([]error, 4)
		for i := range errs {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs[i] = s.Stop(ctx)
			}()
		}
		wg.Wait()
		cancel()

		for i, err := range errs {
			if err != nil {
				t.Errorf("round %d: Stop %d: %v", round, i, err)
			}
		}
		if s.IsRunning() {
			t.Fatalf("round %d: scheduler still running after Stop", round)
		}
	}
}

func TestScheduler_ContextCancelEndsLoops(t *testing.T) {
	s := NewScheduler(Job{
		Name: "idle",
		Next: func(after time.Time) time.Time { return after.Add(time.Hour) },
		Run:  func(context.Context, time.Time) error { return nil },
	})
	ctx, cancel := context.WithCancel(context.Background())
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	cancel()

	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("scheduler did not exit after context cancel")
	}
}

func TestRunOnce_RecoversPanic(t *testing.T) {
	err := RunOnce(context.Background(), Job{
		Name: "panicky",
		Run:  func(context.Context, time.Time) error { panic("kaboom") },
	}, time.Now())
	if err == nil {
		t.Fatal("expected error from panicking job")
	}
	if m := trace.Default.Metrics("panicky"); m.FailedRuns < 1 {
		t.Errorf("failed runs = %d, want at least 1", m.FailedRuns)
	}
}

func TestRunOnce_CarriesRunID(t *testing.T) {
	var seen string
	err := RunOnce(context.Background(), Job{
		Name: "traced",
		Run: func(ctx context.Context, _ time.Time) error {
			seen = trace.RunID(ctx)
			return nil
		},
	}, time.Now())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if !strings.HasPrefix(seen, "run_") {
		t.Errorf("run id = %q", seen)
	}
}
