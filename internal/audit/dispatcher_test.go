package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestDispatcherDeliversToSink(t *testing.T) {
	sink := NewChannelSink(8)
	d := NewDispatcher(Config{Enabled: true, BufferSize: 8}, sink)

	d.Emit(Event{EventType: EventLogin, UserID: "u1", Success: true})
	d.Close()

	select {
	case event := <-sink.Events():
		if event.EventType != EventLogin || event.UserID != "u1" {
			t.Fatalf("event = %+v", event)
		}
	case <-time.After(time.Second):
		t.Fatal("event never reached the sink")
	}
}

func TestDisabledDispatcherIsNil(t *testing.T) {
	d := NewDispatcher(Config{Enabled: false}, NoOpSink{})
	if d != nil {
		t.Fatal("disabled dispatcher should be nil")
	}
	// All methods are nil-safe.
	d.Emit(Event{EventType: EventLogout})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("nil dispatcher reports drops")
	}
}

func TestEmitNeverBlocks(t *testing.T) {
	// A sink that stalls combined with a tiny buffer.
	gate := make(chan struct{})
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1}, blockingSink{gate: gate})

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			d.Emit(Event{EventType: EventRefresh})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Emit blocked on a full buffer")
	}
	if d.Dropped() == 0 {
		t.Fatal("expected dropped events to be counted")
	}

	close(gate)
	d.Close()
}

type blockingSink struct{ gate chan struct{} }

func (s blockingSink) Emit(ctx context.Context, _ Event) { <-s.gate }

func TestJSONWriterSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)
	d := NewDispatcher(Config{Enabled: true, BufferSize: 4}, sink)

	d.Emit(Event{EventType: EventPasswordReset, UserID: "u1", Success: true})
	d.Close()

	line := strings.TrimSpace(buf.String())
	if line == "" {
		t.Fatal("nothing written")
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(line), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if decoded["eventType"] != EventPasswordReset || decoded["userId"] != "u1" {
		t.Fatalf("decoded = %v", decoded)
	}
}
