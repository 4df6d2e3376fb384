package daemon

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

type NotifyFunc func(data any)

// RefreshFunc runs one scheduled deep telemetry refresh.
type RefreshFunc func() error

// Scheduler runs the telemetry refresh on a cron schedule, independent of
// the regular monitor cadence. Without a schedule it sits idle.
type Scheduler struct {
	OnError NotifyFunc  // called on refresh error
	Refresh RefreshFunc // refresh callback

	parser cron.Parser

	schedule cron.Schedule
	nextRun  time.Time

	mu      sync.Mutex
	running bool

	// nil schedule on this channel clears the active one
	controlCh chan cron.Schedule
	stopCh    chan struct{}
}

func NewScheduler(refresh RefreshFunc, onError NotifyFunc) *Scheduler {
	if refresh == nil {
		panic("refresh function cannot be nil")
	}

	return &Scheduler{
		OnError:   onError,
		Refresh:   refresh,
		parser:    cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		controlCh: make(chan cron.Schedule, 4),
		stopCh:    make(chan struct{}),
	}
}

func (s *Scheduler) Stop() {
	select {
	case <-s.stopCh: // already closed
	default:
		close(s.stopCh)
	}
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	go s.runScheduled()
}

// Schedule replaces the cron schedule. An empty expression clears it and
// leaves the scheduler idle.
func (s *Scheduler) Schedule(cronExpr string) error {
	if cronExpr == "" {
		s.apply(nil)
		return nil
	}

	sh, err := s.parser.Parse(cronExpr)
	if err != nil {
		return err
	}
	s.apply(sh)
	return nil
}

func (s *Scheduler) apply(sh cron.Schedule) {
	s.mu.Lock()
	running := s.running
	if !running {
		s.schedule = sh
		if sh == nil {
			s.nextRun = time.Time{}
		} else {
			s.nextRun = sh.Next(time.Now())
		}
	}
	s.mu.Unlock()

	if running {
		s.trySendControl(sh)
	}
}

func (s *Scheduler) Status() (nextRun time.Time, running bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	nextRun = s.nextRun
	running = s.running
	return
}

func (s *Scheduler) runScheduled() {
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		logrus.Debug("scheduler stopped")
	}()

	logrus.Debug("scheduler started")

	for {
		schedule, nextRun := s.snapshot()
		var timer *time.Timer
		if schedule == nil || nextRun.IsZero() {
			timer = time.NewTimer(time.Hour * 10000) // idle until rescheduled
		} else {
			wait := time.Until(nextRun)
			if wait < 0 {
				wait = 0
			}
			timer = time.NewTimer(wait)
		}

		select {
		case <-timer.C:
			if schedule == nil || nextRun.IsZero() {
				continue
			}

			logrus.Debugf("running scheduled telemetry refresh planned for %s", nextRun.Format(time.DateTime))

			go func() {
				if err := s.Refresh(); err != nil {
					s.sendError(fmt.Errorf("telemetry refresh failed: %v", err))
				}
			}()
			s.advanceNextRun()
		case <-s.stopCh:
			timer.Stop()
			return
		case sh := <-s.controlCh:
			timer.Stop()
			s.mu.Lock()
			s.schedule = sh
			if sh == nil {
				s.nextRun = time.Time{}
			} else {
				s.nextRun = sh.Next(time.Now())
			}
			s.mu.Unlock()
		}
	}
}

func (s *Scheduler) snapshot() (cron.Schedule, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.schedule, s.nextRun
}

func (s *Scheduler) advanceNextRun() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.schedule == nil {
		return
	}
	s.nextRun = s.schedule.Next(s.nextRun)
}

func (s *Scheduler) sendError(err error) {
	if s.OnError == nil {
		return
	}

	go s.OnError(err)
}

func (s *Scheduler) trySendControl(sh cron.Schedule) {
	select {
	case s.controlCh <- sh:
	default:
	}
}
