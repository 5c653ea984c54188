package stream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

type plainRequester struct {
	client *http.Client
}

func (r plainRequester) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	return r.client.Do(req.WithContext(ctx))
}

func newDishServer(t *testing.T, dishes int, perDishDelay time.Duration) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			t.Error("response writer is not a flusher")
			return
		}
		w.Header().Set("Content-Type", "application/x-ndjson")

		for i := 0; i < dishes; i++ {
			if perDishDelay > 0 {
				select {
				case <-time.After(perDishDelay):
				case <-r.Context().Done():
					return
				}
			}
			fmt.Fprintf(w, `{"id":"dish-%d","name":"Dish %d","cookMinutes":%d}`+"\n", i, i, 10+i)
			flusher.Flush()
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func newRegistry(t *testing.T, endpoint string) *Registry {
	t.Helper()

	registry, err := NewRegistry(plainRequester{client: http.DefaultClient}, endpoint)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return registry
}

func collect(t *testing.T, events <-chan Event) ([]Dish, Event) {
	t.Helper()

	var dishes []Dish
	deadline := time.After(5 * time.Second)
	for {
		select {
		case event, ok := <-events:
			if !ok {
				t.Fatal("event channel closed without a terminal event")
			}
			if event.Dish != nil {
				dishes = append(dishes, *event.Dish)
				continue
			}
			return dishes, event
		case <-deadline:
			t.Fatal("timed out waiting for stream events")
		}
	}
}

func TestStreamDeliversAllDishes(t *testing.T) {
	server := newDishServer(t, 5, 0)
	registry := newRegistry(t, server.URL)

	task, err := registry.Start(context.Background(), "req-1", Query{Prompt: "pasta"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	events, stop := task.Subscribe(16)
	defer stop()

	dishes, terminal := collect(t, events)
	if !terminal.Done || terminal.Err != nil {
		t.Fatalf("terminal event = %+v, want clean Done", terminal)
	}
	if len(dishes) != 5 {
		t.Fatalf("received %d dishes, want 5", len(dishes))
	}
	if dishes[0].ID != "dish-0" || dishes[4].CookMinutes != 14 {
		t.Fatalf("unexpected dishes: %+v", dishes)
	}
}

func TestStartSameIDReturnsRunningTask(t *testing.T) {
	server := newDishServer(t, 3, 50*time.Millisecond)
	registry := newRegistry(t, server.URL)

	first, err := registry.Start(context.Background(), "req-1", Query{Prompt: "soup"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	second, err := registry.Start(context.Background(), "req-1", Query{Prompt: "soup"})
	if err != nil {
		t.Fatalf("Start again: %v", err)
	}
	if first != second {
		t.Fatal("second Start returned a different task")
	}
}

func TestLateSubscriberGetsReplay(t *testing.T) {
	server := newDishServer(t, 4, 0)
	registry := newRegistry(t, server.URL)

	task, err := registry.Start(context.Background(), "req-1", Query{Prompt: "salad"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Let the task finish first.
	early, stop := task.Subscribe(16)
	defer stop()
	collect(t, early)

	late, stopLate := task.Subscribe(16)
	defer stopLate()

	dishes, terminal := collect(t, late)
	if len(dishes) != 4 {
		t.Fatalf("late subscriber got %d dishes, want 4", len(dishes))
	}
	if !terminal.Done {
		t.Fatalf("late terminal event = %+v, want Done", terminal)
	}
}

func TestUnsubscribeDoesNotKillTask(t *testing.T) {
	server := newDishServer(t, 5, 20*time.Millisecond)
	registry := newRegistry(t, server.URL)

	task, err := registry.Start(context.Background(), "req-1", Query{Prompt: "curry"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	events, stop := task.Subscribe(16)
	// Drop the first subscription immediately.
	stop()
	stop() // stop is idempotent

	// Avoid leaking the closed channel read.
	go func() {
		for range events {
		}
	}()

	survivor, stopSurvivor := task.Subscribe(16)
	defer stopSurvivor()

	dishes, terminal := collect(t, survivor)
	if !terminal.Done {
		t.Fatalf("terminal event = %+v, want Done", terminal)
	}
	if len(dishes) == 0 {
		t.Fatal("surviving subscriber received no dishes")
	}
}

func TestCancelStopsStream(t *testing.T) {
	server := newDishServer(t, 100, 20*time.Millisecond)
	registry := newRegistry(t, server.URL)

	task, err := registry.Start(context.Background(), "req-1", Query{Prompt: "stew"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	events, stop := task.Subscribe(128)
	defer stop()

	// Let a few dishes through, then cancel.
	time.Sleep(100 * time.Millisecond)
	if err := registry.Cancel("req-1"); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	dishes, terminal := collect(t, events)
	if terminal.Err == nil || !errors.Is(terminal.Err, context.Canceled) {
		t.Fatalf("terminal error = %v, want context.Canceled", terminal.Err)
	}
	if len(dishes) >= 100 {
		t.Fatalf("cancellation did not stop the stream, got %d dishes", len(dishes))
	}

	// The registry forgets the task once it settles.
	waitFor(t, func() bool {
		_, ok := registry.Get("req-1")
		return !ok
	})
}

func TestCancelUnknownID(t *testing.T) {
	server := newDishServer(t, 1, 0)
	registry := newRegistry(t, server.URL)

	if err := registry.Cancel("missing"); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("Cancel error = %v, want ErrTaskNotFound", err)
	}
}

func TestStreamErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "busy", http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	registry := newRegistry(t, server.URL)
	task, err := registry.Start(context.Background(), "req-1", Query{Prompt: "pizza"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	events, stop := task.Subscribe(4)
	defer stop()

	dishes, terminal := collect(t, events)
	if len(dishes) != 0 {
		t.Fatalf("received %d dishes from failed stream", len(dishes))
	}
	if !errors.Is(terminal.Err, ErrStreamStatus) {
		t.Fatalf("terminal error = %v, want ErrStreamStatus", terminal.Err)
	}
}

func TestConcurrentSubscribers(t *testing.T) {
	server := newDishServer(t, 10, time.Millisecond)
	registry := newRegistry(t, server.URL)

	task, err := registry.Start(context.Background(), "req-1", Query{Prompt: "ramen"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			events, stop := task.Subscribe(64)
			defer stop()

			dishes, terminal := collect(t, events)
			if !terminal.Done {
				t.Errorf("terminal event = %+v, want Done", terminal)
			}
			if len(dishes) != 10 {
				t.Errorf("subscriber got %d dishes, want 10", len(dishes))
			}
		}()
	}
	wg.Wait()
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not reached before deadline")
}
