package daemon

import (
	"errors"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
)

func TestCronParse(t *testing.T) {
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	schedule, err := parser.Parse("@every 10m")
	if err != nil {
		t.Fatalf("failed to parse cron expression: %v", err)
	}

	now := time.Now()
	next1 := schedule.Next(now)
	t.Logf("next1: %v", next1)
	next2 := schedule.Next(next1)
	t.Logf("next2: %v", next2)

	if !next2.After(next1) {
		t.Fatalf("expected next2 to be after next1, got next1=%v next2=%v", next1, next2)
	}
}

func TestSchedulerScheduleStatus(t *testing.T) {
	s := NewScheduler(func() error { return nil }, nil)

	if err := s.Schedule("@every 1m"); err != nil {
		t.Fatalf("Schedule returned error: %v", err)
	}

	next, running := s.Status()
	if running {
		t.Fatalf("scheduler should not be running")
	}
	if next.IsZero() {
		t.Fatalf("next run should be set after scheduling")
	}
}

func TestSchedulerRejectsBadExpression(t *testing.T) {
	s := NewScheduler(func() error { return nil }, nil)
	if err := s.Schedule("not a cron expr"); err == nil {
		t.Fatalf("expected error for invalid cron expression")
	}
}

func TestSchedulerClearSchedule(t *testing.T) {
	s := NewScheduler(func() error { return nil }, nil)

	if err := s.Schedule("@every 1m"); err != nil {
		t.Fatalf("Schedule returned error: %v", err)
	}
	if err := s.Schedule(""); err != nil {
		t.Fatalf("clearing schedule returned error: %v", err)
	}

	next, _ := s.Status()
	if !next.IsZero() {
		t.Fatalf("next run should be cleared, got %v", next)
	}
}

func TestSchedulerRunCycle(t *testing.T) {
	refreshCh := make(chan struct{}, 1)
	errCh := make(chan error, 1)

	refresh := func() error {
		refreshCh <- struct{}{}
		return nil
	}

	onError := func(data any) {
		if err, ok := data.(error); ok {
			errCh <- err
		}
	}

	s := NewScheduler(refresh, onError)
	if err := s.Schedule("@every 1s"); err != nil {
		t.Fatalf("Schedule returned error: %v", err)
	}

	s.mu.Lock()
	s.nextRun = time.Now().Add(50 * time.Millisecond)
	s.mu.Unlock()

	s.Start()
	defer s.Stop()

	select {
	case <-refreshCh:
	case <-time.After(2 * time.Second):
		t.Fatalf("refresh did not execute in time")
	}

	select {
	case err := <-errCh:
		t.Fatalf("unexpected error callback: %v", err)
	default:
	}
}

func TestSchedulerRefreshError(t *testing.T) {
	errCh := make(chan error, 1)

	refresh := func() error {
		return errors.New("boom")
	}

	onError := func(data any) {
		if err, ok := data.(error); ok {
			errCh <- err
		}
	}

	s := NewScheduler(refresh, onError)
	if err := s.Schedule("@every 1s"); err != nil {
		t.Fatalf("Schedule returned error: %v", err)
	}

	s.mu.Lock()
	s.nextRun = time.Now().Add(50 * time.Millisecond)
	s.mu.Unlock()

	s.Start()
	defer s.Stop()

	select {
	case <-errCh:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected error callback from failed refresh")
	}
}

func TestSchedulerRescheduleWhileRunning(t *testing.T) {
	s := NewScheduler(func() error { return nil }, nil)
	if err := s.Schedule("@every 10m"); err != nil {
		t.Fatalf("Schedule returned error: %v", err)
	}

	orig, _ := s.Status()

	s.Start()
	defer s.Stop()

	if err := s.Schedule("@every 1h"); err != nil {
		t.Fatalf("reschedule returned error: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		next, _ := s.Status()
		if !next.Equal(orig) && !next.IsZero() {
			if !next.After(orig) {
				t.Fatalf("expected new schedule to be later, got %v <= %v", next, orig)
			}
			return
		}
		select {
		case <-deadline:
			t.Fatalf("schedule change was not applied in time")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
