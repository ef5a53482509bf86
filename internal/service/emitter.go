package service

import (
	"context"
	"log"
	"sync"
)

// ─────────────────────────────────────────────────────────────
// EventEmitter — decouples services from the transport
// ─────────────────────────────────────────────────────────────

// EventEmitter publishes notifications ("design:saved", "notify:error", ...)
// to whatever front end is attached. Services receive this interface so they
// can be tested with a mock emitter.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

// LogEmitter writes every event to the standard logger. It is the emitter
// used by the headless HTTP and MCP modes.
type LogEmitter struct{}

func (LogEmitter) Emit(_ context.Context, event string, data any) {
	log.Printf("[EVENT] %s %v", event, data)
}

// MockEmitter is a test-friendly EventEmitter that records all calls.
type MockEmitter struct {
	mu     sync.Mutex
	Events []EmittedEvent
}

// EmittedEvent holds a single recorded emission for test assertions.
type EmittedEvent struct {
	Event string
	Data  any
}

func (m *MockEmitter) Emit(_ context.Context, event string, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, EmittedEvent{Event: event, Data: data})
}

// Named returns the recorded events called event.
func (m *MockEmitter) Named(event string) []EmittedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []EmittedEvent
	for _, e := range m.Events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}
