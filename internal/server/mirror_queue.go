package server

import (
	"context"
	"log"
	"sync"

	"top-ten/internal/game"
	"top-ten/internal/metrics"
)

type mirrorJob struct {
	groupDBID uint
	round     game.Round
	effect    game.Effect
}

// mirrorQueue drains background effects in order on a single worker. Jobs
// that do not fit are dropped.
type mirrorQueue struct {
	mu     sync.Mutex
	jobs   chan mirrorJob
	closed bool
	done   chan struct{}
	apply  func(ctx context.Context, job mirrorJob) error
}

func newMirrorQueue(size int, apply func(ctx context.Context, job mirrorJob) error) *mirrorQueue {
	if size <= 0 {
		size = 1
	}
	q := &mirrorQueue{
		jobs:  make(chan mirrorJob, size),
		done:  make(chan struct{}),
		apply: apply,
	}
	go q.run()
	return q
}

func (q *mirrorQueue) Enqueue(job mirrorJob) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	select {
	case q.jobs <- job:
		metrics.MirrorQueueDepth.Set(float64(len(q.jobs)))
		return true
	default:
		metrics.MirrorDropped.Inc()
		log.Printf("mirror queue full round_id=%s effect=%s", job.round.ID, job.effect.Kind)
		return false
	}
}

// Close stops accepting jobs and waits until the queued ones are applied.
func (q *mirrorQueue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		<-q.done
		return
	}
	q.closed = true
	close(q.jobs)
	q.mu.Unlock()
	<-q.done
}

func (q *mirrorQueue) run() {
	defer close(q.done)
	for job := range q.jobs {
		metrics.MirrorQueueDepth.Set(float64(len(q.jobs)))
		if err := q.apply(context.Background(), job); err != nil {
			metrics.MirrorFailures.WithLabelValues(string(job.effect.Kind)).Inc()
			log.Printf("mirror failed round_id=%s effect=%s error=%v", job.round.ID, job.effect.Kind, err)
		}
	}
}
