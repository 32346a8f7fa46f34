package metrics

import (
	"sync"
	"testing"
)

func TestIncAndValue(t *testing.T) {
	m := New()
	m.Inc(LoginSuccess)
	m.Inc(LoginSuccess)
	m.Inc(LoginFailure)

	if got := m.Value(LoginSuccess); got != 2 {
		t.Fatalf("LoginSuccess = %d, want 2", got)
	}
	if got := m.Value(LoginFailure); got != 1 {
		t.Fatalf("LoginFailure = %d, want 1", got)
	}
	if got := m.Value(RefreshSuccess); got != 0 {
		t.Fatalf("untouched counter = %d, want 0", got)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.Inc(LoginSuccess)
	if m.Value(LoginSuccess) != 0 {
		t.Fatal("nil metrics must read zero")
	}
	if snap := m.Snapshot(); len(snap) != 0 {
		t.Fatalf("nil snapshot has %d entries", len(snap))
	}
}

func TestSnapshotNames(t *testing.T) {
	m := New()
	m.Inc(RefreshReuseDetected)

	snap := m.Snapshot()
	if snap["refresh_reuse_detected"] != 1 {
		t.Fatalf("snapshot = %v", snap)
	}
	if _, ok := snap["login_success"]; !ok {
		t.Fatal("snapshot must carry every counter")
	}
}

func TestConcurrentInc(t *testing.T) {
	m := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.Inc(CodeIssued)
			}
		}()
	}
	wg.Wait()
	if got := m.Value(CodeIssued); got != 5000 {
		t.Fatalf("CodeIssued = %d, want 5000", got)
	}
}
