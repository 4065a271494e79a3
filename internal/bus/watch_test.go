package bus

import (
	"testing"
	"time"
)

func TestWatchValueAndVersion(t *testing.T) {
	w := NewWatch(0)
	v, version := w.Value()
	if v != 0 || version != 0 {
		t.Fatalf("initial value/version = %d/%d, want 0/0", v, version)
	}

	w.Set(42)
	v, version = w.Value()
	if v != 42 || version != 1 {
		t.Fatalf("after Set, value/version = %d/%d, want 42/1", v, version)
	}
}

func TestWatchChangedWakesWaiter(t *testing.T) {
	w := NewWatch("start")
	changed := w.Changed()

	done := make(chan string, 1)
	go func() {
		<-changed
		v, _ := w.Value()
		done <- v
	}()

	w.Set("updated")

	select {
	case v := <-done:
		if v != "updated" {
			t.Fatalf("waiter observed %q, want %q", v, "updated")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for Changed() to wake")
	}
}
