package server

import (
	"log"
	"time"

	"top-ten/internal/metrics"

	"github.com/go-co-op/gocron/v2"
)

// StartJanitor schedules the periodic cleanup jobs. The caller shuts the
// returned scheduler down.
func (s *Server) StartJanitor() (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	interval := time.Duration(s.cfg.JanitorIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if _, err := sched.NewJob(gocron.DurationJob(interval), gocron.NewTask(s.pruneRounds)); err != nil {
		return nil, err
	}
	if _, err := sched.NewJob(gocron.DurationJob(interval), gocron.NewTask(s.pruneSessions)); err != nil {
		return nil, err
	}
	if _, err := sched.NewJob(gocron.DurationJob(30*time.Second), gocron.NewTask(metrics.SampleRuntime)); err != nil {
		return nil, err
	}
	sched.Start()
	return sched, nil
}

// pruneRounds drops completed rounds idle for longer than the configured
// window. They can still be restored from the database.
func (s *Server) pruneRounds() {
	cutoff := time.Now().UTC().Add(-time.Duration(s.cfg.RoundIdleMinutes) * time.Minute)
	removed := s.store.PruneRounds(cutoff)
	metrics.ActiveRounds.Set(float64(s.store.RoundCount()))
	metrics.JanitorRuns.WithLabelValues("rounds", "ok").Inc()
	if removed > 0 {
		log.Printf("janitor pruned rounds count=%d", removed)
	}
}

func (s *Server) pruneSessions() {
	removed, err := s.sessions.PruneExpired(time.Now().UTC())
	if err != nil {
		metrics.JanitorRuns.WithLabelValues("sessions", "error").Inc()
		log.Printf("janitor session prune failed error=%v", err)
		return
	}
	metrics.JanitorRuns.WithLabelValues("sessions", "ok").Inc()
	if removed > 0 {
		log.Printf("janitor pruned sessions count=%d", removed)
	}
}
