package lixcache

import (
	"context"
	"errors"
	"testing"
	"time"
)

// ==============================
// Completion handle tests
// ==============================

func TestHandleFanOutOrder(t *testing.T) {
	h := newHandle()
	var order []int
	for i := 0; i < 3; i++ {
		i := i
		h.Subscribe(func(v []byte, err error) {
			if err != nil || string(v) != "v" {
				t.Errorf("listener %d: v=%q err=%v", i, v, err)
			}
			order = append(order, i)
		})
	}
	h.resolve([]byte("v"))

	if len(order) != 3 || order[0] != 0 || order[1] != 1 || order[2] != 2 {
		t.Fatalf("listener order = %v", order)
	}
}

func TestHandleSubscribeAfterSettle(t *testing.T) {
	h := newHandle()
	want := errors.New("boom")
	h.reject(want)

	called := false
	h.Subscribe(func(v []byte, err error) {
		called = true
		if err != want {
			t.Errorf("late listener err = %v", err)
		}
	})
	if !called {
		t.Fatal("late listener not invoked immediately")
	}
}

func TestHandleSettleOnce(t *testing.T) {
	h := newHandle()
	h.resolve([]byte("first"))
	h.reject(errors.New("too late"))
	h.resolve([]byte("also too late"))

	v, err := h.Wait(context.Background())
	if err != nil || string(v) != "first" {
		t.Fatalf("settlement mutated: v=%q err=%v", v, err)
	}
}

func TestHandleWaitContext(t *testing.T) {
	h := newHandle()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := h.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}

	// abandoning the wait must not settle the handle
	if h.Settled() {
		t.Fatal("handle settled by an abandoned wait")
	}
	h.resolve([]byte("v"))
	if v, err := h.Wait(context.Background()); err != nil || string(v) != "v" {
		t.Fatalf("v=%q err=%v", v, err)
	}
}
