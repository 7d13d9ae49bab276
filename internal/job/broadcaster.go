package job

import (
	"sync"

	"github.com/dkurup/agenticrag/internal/config"
	"github.com/dkurup/agenticrag/internal/domain/jobModel"
	"github.com/dkurup/agenticrag/pkg/logger_i"
)

// Broadcaster fans one job's progress events out to its watchers. A
// subscriber that joins mid-run first receives the job's last event, so
// a reconnecting client never waits on a stage that already passed.
// After a terminal event the subscriber channel is closed.
type Broadcaster struct {
	mu          sync.Mutex
	subscribers map[string][]chan jobModel.ProgressEvent
	lastEvent   map[string]jobModel.ProgressEvent
	logger      *logger_i.Logger
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[string][]chan jobModel.ProgressEvent),
		lastEvent:   make(map[string]jobModel.ProgressEvent),
		logger:      logger_i.NewLogger("Progress Broadcaster"),
	}
}

// Subscribe returns the progress feed for one job. The returned cancel
// func detaches the subscriber; it is safe to call after the channel
// closed.
func (b *Broadcaster) Subscribe(jobId string) (<-chan jobModel.ProgressEvent, func()) {
	ch := make(chan jobModel.ProgressEvent, config.BufferLimit)

	b.mu.Lock()
	last, hasLast := b.lastEvent[jobId]
	if hasLast {
		ch <- last
	}
	if hasLast && last.Done {
		close(ch)
		b.mu.Unlock()
		return ch, func() {}
	}
	b.subscribers[jobId] = append(b.subscribers[jobId], ch)
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.subscribers[jobId]
		for i, sub := range subs {
			if sub == ch {
				b.subscribers[jobId] = append(subs[:i], subs[i+1:]...)
				close(ch)
				return
			}
		}
	}
	return ch, cancel
}

// Publish delivers one event to every subscriber of the job. Slow
// subscribers with a full buffer miss the event rather than block the
// worker. A terminal event closes and forgets all subscribers.
func (b *Broadcaster) Publish(event jobModel.ProgressEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastEvent[event.JobId] = event
	for _, ch := range b.subscribers[event.JobId] {
		select {
		case ch <- event:
		default:
			b.logger.Warn("Dropping progress event for slow subscriber", "jobId", event.JobId, "stage", event.Stage)
		}
	}
	if event.Done {
		for _, ch := range b.subscribers[event.JobId] {
			close(ch)
		}
		delete(b.subscribers, event.JobId)
	}
}

// Forget drops the cached terminal event once the job record expired.
func (b *Broadcaster) Forget(jobId string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.lastEvent, jobId)
	for _, ch := range b.subscribers[jobId] {
		close(ch)
	}
	delete(b.subscribers, jobId)
}
