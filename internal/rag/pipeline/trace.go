package pipeline

import (
	"sync"
	"time"
)

// Event is one entry on the trace side channel. Traces are purely
// observational; dropping every event must not change the answer.
type Event struct {
	Agent string         `json:"agent"`
	Type  string         `json:"type"`
	Ts    time.Time      `json:"ts"`
	Data  map[string]any `json:"data,omitempty"`
}

type TraceSink interface {
	Emit(event Event)
}

type nopSink struct{}

func (nopSink) Emit(Event) {}

// NopTrace discards every event.
func NopTrace() TraceSink {
	return nopSink{}
}

// CollectorSink accumulates events in memory for callers that want the
// full trace after the run. The retrieval workers emit concurrently,
// so appends are guarded; read Events only after the run returns.
type CollectorSink struct {
	mu     sync.Mutex
	Events []Event
}

func (c *CollectorSink) Emit(event Event) {
	c.mu.Lock()
	c.Events = append(c.Events, event)
	c.mu.Unlock()
}

// ChannelSink forwards events to a buffered channel for live
// streaming. A full buffer drops the event instead of stalling the
// answer loop.
type ChannelSink struct {
	C chan Event
}

func NewChannelSink(buffer int) *ChannelSink {
	return &ChannelSink{C: make(chan Event, buffer)}
}

func (s *ChannelSink) Emit(event Event) {
	select {
	case s.C <- event:
	default:
	}
}

func (s *ChannelSink) Close() {
	close(s.C)
}

func emit(sink TraceSink, agent, eventType string, data map[string]any) {
	sink.Emit(Event{
		Agent: agent,
		Type:  eventType,
		Ts:    time.Now().UTC(),
		Data:  data,
	})
}
