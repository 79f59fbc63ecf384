package mailbox

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/danmuck/vostok/internal/testutil/testlog"
)

func TestPushPopPreservesOrder(t *testing.T) {
	testlog.Start(t)
	m := New[int]()
	for i := 0; i < 100; i++ {
		if !m.Push(i) {
			t.Fatalf("push %d rejected", i)
		}
	}
	if m.Len() != 100 {
		t.Fatalf("unexpected len=%d", m.Len())
	}
	for i := 0; i < 100; i++ {
		got, err := m.Pop(context.Background())
		if err != nil {
			t.Fatalf("pop: %v", err)
		}
		if got != i {
			t.Fatalf("order mismatch got=%d want=%d", got, i)
		}
	}
	if _, ok := m.TryPop(); ok {
		t.Fatalf("expected empty mailbox")
	}
}

func TestPopHonorsContext(t *testing.T) {
	testlog.Start(t)
	m := New[string]()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := m.Pop(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestPopWakesOnPush(t *testing.T) {
	testlog.Start(t)
	m := New[string]()
	got := make(chan string, 1)
	go func() {
		v, _ := m.Pop(context.Background())
		got <- v
	}()
	time.Sleep(10 * time.Millisecond)
	m.Push("reply")
	select {
	case v := <-got:
		if v != "reply" {
			t.Fatalf("unexpected value %q", v)
		}
	case <-time.After(time.Second):
		t.Fatalf("pop did not wake")
	}
}

func TestCloseDrainsThenReportsClosed(t *testing.T) {
	testlog.Start(t)
	m := New[int]()
	m.Push(1)
	m.Close()
	m.Close()
	if m.Push(2) {
		t.Fatalf("push after close accepted")
	}
	if v, err := m.Pop(context.Background()); err != nil || v != 1 {
		t.Fatalf("expected queued item after close, v=%d err=%v", v, err)
	}
	if _, err := m.Pop(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	select {
	case <-m.Done():
	default:
		t.Fatalf("done channel not closed")
	}
}

func TestConcurrentProducersNeverBlock(t *testing.T) {
	testlog.Start(t)
	m := New[int]()
	var wg sync.WaitGroup
	for p := 0; p < 8; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				m.Push(i)
			}
		}()
	}
	wg.Wait()
	if m.Len() != 8*500 {
		t.Fatalf("unexpected len=%d", m.Len())
	}
	select {
	case <-m.Notify():
	default:
		t.Fatalf("expected pending notification")
	}
}
