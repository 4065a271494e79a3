package bus

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestBroadcastDeliversToAllSubscribers(t *testing.T) {
	b := NewBroadcast[int](zap.NewNop(), "test")
	a := b.Subscribe()
	c := b.Subscribe()

	b.Publish(7)

	select {
	case v := <-a:
		if v != 7 {
			t.Fatalf("subscriber a: got %d, want 7", v)
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber a: timed out waiting for publish")
	}

	select {
	case v := <-c:
		if v != 7 {
			t.Fatalf("subscriber c: got %d, want 7", v)
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber c: timed out waiting for publish")
	}
}

func TestBroadcastDropsOldestWhenFull(t *testing.T) {
	b := NewBroadcast[int](zap.NewNop(), "test")
	sub := b.Subscribe()

	for i := 0; i < DefaultCapacity+5; i++ {
		b.Publish(i)
	}

	if got := b.Dropped(); got == 0 {
		t.Fatal("expected some dropped messages once the buffer overflowed")
	}

	last := -1
	for {
		select {
		case v := <-sub:
			last = v
		default:
			if last != DefaultCapacity+4 {
				t.Fatalf("last buffered value = %d, want %d (most recent publish)", last, DefaultCapacity+4)
			}
			return
		}
	}
}

func TestBroadcastSubscriberCount(t *testing.T) {
	b := NewBroadcast[int](zap.NewNop(), "test")
	if b.SubscriberCount() != 0 {
		t.Fatalf("expected 0 subscribers initially")
	}
	b.Subscribe()
	b.Subscribe()
	if b.SubscriberCount() != 2 {
		t.Fatalf("expected 2 subscribers, got %d", b.SubscriberCount())
	}
}
