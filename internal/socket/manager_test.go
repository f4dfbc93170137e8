package socket

import (
	"testing"
	"time"
)

func TestBackoffDelay(t *testing.T) {
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 2000 * time.Millisecond},
		{2, 4000 * time.Millisecond},
		{3, 8000 * time.Millisecond},
		{4, 10000 * time.Millisecond}, // capped
		{10, 10000 * time.Millisecond},
	}
	for _, tc := range cases {
		if got := BackoffDelay(tc.attempt); got != tc.want {
			t.Fatalf("attempt %d: want %v, got %v", tc.attempt, tc.want, got)
		}
	}
}

func TestQueue_FIFOAndAtomicDrain(t *testing.T) {
	m := NewManager(Config{Endpoint: "ws://example/ws"}, nil)

	m.enqueue([]byte("one"))
	m.enqueue([]byte("two"))
	m.enqueue([]byte("three"))

	if m.QueueLen() != 3 {
		t.Fatalf("expected 3 queued frames, got %d", m.QueueLen())
	}

	frames := m.ConsumeMessages()
	if len(frames) != 3 {
		t.Fatalf("expected full drain, got %d", len(frames))
	}
	for i, want := range []string{"one", "two", "three"} {
		if string(frames[i]) != want {
			t.Fatalf("position %d: want %s, got %s", i, want, frames[i])
		}
	}
	if m.QueueLen() != 0 {
		t.Fatalf("queue not emptied")
	}

	// Frames enqueued after a drain land in the next batch, not the old one.
	m.enqueue([]byte("four"))
	if len(frames) != 3 {
		t.Fatalf("drained batch mutated after enqueue")
	}
	if next := m.ConsumeMessages(); len(next) != 1 || string(next[0]) != "four" {
		t.Fatalf("next batch wrong: %v", next)
	}
}

func TestQueue_WakeSignalCoalesces(t *testing.T) {
	m := NewManager(Config{Endpoint: "ws://example/ws"}, nil)

	m.enqueue([]byte("a"))
	m.enqueue([]byte("b"))

	select {
	case <-m.Wake():
	default:
		t.Fatalf("expected pending wake signal")
	}
	select {
	case <-m.Wake():
		t.Fatalf("wake signal not coalesced")
	default:
	}
}

func TestMute_SessionAndRunFiltering(t *testing.T) {
	m := NewManager(Config{Endpoint: "ws://example/ws"}, nil)

	m.MuteSession("s1")
	m.MuteRun("r9")

	if !m.isMuted([]byte(`{"session_id":"s1","event":"RunContent"}`)) {
		t.Fatalf("muted session frame passed through")
	}
	if !m.isMuted([]byte(`{"run_id":"r9"}`)) {
		t.Fatalf("muted run frame passed through")
	}
	if m.isMuted([]byte(`{"session_id":"s2"}`)) {
		t.Fatalf("unmuted session frame dropped")
	}
	// Non-JSON frames pass through for the normalizer to classify.
	if m.isMuted([]byte("plain text frame")) {
		t.Fatalf("non-JSON frame dropped by mute filter")
	}

	m.UnmuteSession("s1")
	if m.isMuted([]byte(`{"session_id":"s1"}`)) {
		t.Fatalf("unmute did not lift the filter")
	}
}

func TestManager_StatusStartsDisconnected(t *testing.T) {
	m := NewManager(Config{Endpoint: "ws://example/ws"}, nil)
	if m.Status() != StatusDisconnected {
		t.Fatalf("want disconnected, got %s", m.Status())
	}
	if err := m.SendJSON(map[string]string{"a": "b"}); err == nil {
		t.Fatalf("send without connection should error")
	}
}

func TestConfig_Defaults(t *testing.T) {
	cfg := Config{Endpoint: "ws://example/ws"}.withDefaults()
	if cfg.MaxReconnectAttempts != 3 {
		t.Fatalf("default reconnect attempts: %d", cfg.MaxReconnectAttempts)
	}
	if cfg.MaxAuthAttempts != 2 {
		t.Fatalf("default auth attempts: %d", cfg.MaxAuthAttempts)
	}
	if cfg.HandshakeTimeout != 10*time.Second {
		t.Fatalf("default handshake timeout: %v", cfg.HandshakeTimeout)
	}
}
