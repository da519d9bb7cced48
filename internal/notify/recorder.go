// ABOUTME: Recording Sink for tests
// ABOUTME: Captures every publish call in order

package notify

import (
	"context"
	"sync"
)

// Event is one recorded publish
type Event struct {
	Kind      string // "utterance", "response", "exchange"
	SenderID  string
	Utterance string
	Response  string
}

// Recorder is a Sink that keeps every call in memory
type Recorder struct {
	mu     sync.Mutex
	events []Event
	closed bool
}

func (r *Recorder) add(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *Recorder) PublishUtterance(_ context.Context, senderID, text string) {
	r.add(Event{Kind: "utterance", SenderID: senderID, Utterance: text})
}

func (r *Recorder) PublishResponse(_ context.Context, senderID, text string) {
	r.add(Event{Kind: "response", SenderID: senderID, Response: text})
}

func (r *Recorder) PublishExchange(_ context.Context, senderID, utterance, response string) {
	r.add(Event{Kind: "exchange", SenderID: senderID, Utterance: utterance, Response: response})
}

func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

// Events returns a copy of the recorded events
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Closed reports whether Close was called
func (r *Recorder) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}
