package events

import (
	"sync"
	"time"

	"batchspoof/task"
)

// Type classifies messages emitted while a job runs.
type Type string

const (
	TypeProgress Type = "progress"
	TypeBatch    Type = "batch"
	TypeJob      Type = "job"
)

// Event is a sequenced payload consumed by pollers.
type Event struct {
	Seq       int64     `json:"seq"`
	Timestamp time.Time `json:"timestamp"`
	Type      Type      `json:"type"`

	FileIndex *int        `json:"fileIndex,omitempty"`
	Percent   float64     `json:"percent,omitempty"`
	Status    task.Status `json:"status,omitempty"`

	Batch      int             `json:"batch,omitempty"`
	BatchEvent task.BatchEvent `json:"batchEvent,omitempty"`

	JobID    string            `json:"jobId,omitempty"`
	JobEvent task.JobEventType `json:"jobEvent,omitempty"`
	Summary  *task.Summary     `json:"summary,omitempty"`
}

// Bus stores recent events and provides incremental reads.
type Bus struct {
	mu        sync.RWMutex
	nextSeq   int64
	maxEvents int
	events    []Event
}

// NewBus creates a bounded in-memory event buffer.
func NewBus(maxEvents int) *Bus {
	if maxEvents <= 0 {
		maxEvents = 500
	}
	return &Bus{
		maxEvents: maxEvents,
		events:    make([]Event, 0, maxEvents),
	}
}

// Publish appends one event and assigns sequence and timestamp.
func (b *Bus) Publish(event Event) Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextSeq++
	event.Seq = b.nextSeq
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	b.events = append(b.events, event)
	if len(b.events) > b.maxEvents {
		trim := len(b.events) - b.maxEvents
		b.events = append([]Event(nil), b.events[trim:]...)
	}
	return event
}

// Since returns events with sequence strictly greater than seq.
func (b *Bus) Since(seq int64) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Event, 0, len(b.events))
	for _, event := range b.events {
		if event.Seq > seq {
			out = append(out, event)
		}
	}
	return out
}

// Hooks publishes every orchestrator callback to b.
func (b *Bus) Hooks() task.Hooks {
	return task.Hooks{
		OnProgress: func(i int, percent float64, status task.Status) {
			b.Publish(Event{Type: TypeProgress, FileIndex: &i, Percent: percent, Status: status})
		},
		OnBatch: func(batch int, ev task.BatchEvent) {
			b.Publish(Event{Type: TypeBatch, Batch: batch, BatchEvent: ev})
		},
		OnJob: func(ev task.JobEvent) {
			b.Publish(Event{Type: TypeJob, JobID: ev.JobID, JobEvent: ev.Type, Summary: ev.Summary})
		},
	}
}

// Chain calls every hook set in order.
func Chain(hooks ...task.Hooks) task.Hooks {
	return task.Hooks{
		OnProgress: func(i int, percent float64, status task.Status) {
			for _, h := range hooks {
				if h.OnProgress != nil {
					h.OnProgress(i, percent, status)
				}
			}
		},
		OnBatch: func(batch int, ev task.BatchEvent) {
			for _, h := range hooks {
				if h.OnBatch != nil {
					h.OnBatch(batch, ev)
				}
			}
		},
		OnJob: func(ev task.JobEvent) {
			for _, h := range hooks {
				if h.OnJob != nil {
					h.OnJob(ev)
				}
			}
		},
	}
}
