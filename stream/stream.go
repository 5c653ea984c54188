package stream

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
)

// ErrTaskNotFound is an exported constant or variable used by the client core.
var ErrTaskNotFound = errors.New("no task for request id")

// ErrStreamStatus is an exported constant or variable used by the client core.
var ErrStreamStatus = errors.New("dish stream rejected")

// Requester defines a public type used by cookai APIs.
//
// Requester instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Requester interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Query defines a public type used by cookai APIs.
//
// Query instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Query struct {
	Prompt      string            `json:"prompt"`
	MaxResults  int               `json:"maxResults,omitempty"`
	Preferences map[string]string `json:"preferences,omitempty"`
}

// Dish is one streamed generation result, decoded from a single ND-JSON line.
type Dish struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	CookMinutes int      `json:"cookMinutes,omitempty"`
	Calories    int      `json:"calories,omitempty"`
	ImageURL    string   `json:"imageUrl,omitempty"`
	Ingredients []string `json:"ingredients,omitempty"`
}

// Event defines a public type used by cookai APIs.
//
// Event instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
//
// Exactly one terminal event is delivered per subscription: Done true on a
// clean finish, Err set on failure or cancellation.
type Event struct {
	Dish *Dish
	Err  error
	Done bool
}

// Task defines a public type used by cookai APIs.
//
// Task instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Task struct {
	id     string
	cancel context.CancelFunc

	mu          sync.Mutex
	nextSub     int
	subscribers map[int]chan Event
	finished    bool
	terminal    Event
	dishes      []Dish
}

// Registry defines a public type used by cookai APIs.
//
// Registry instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Registry struct {
	requester Requester
	endpoint  string

	mu    sync.Mutex
	tasks map[string]*Task
}

// NewRegistry describes the newregistry operation and its observable behavior.
//
// NewRegistry may return an error when input validation, dependency calls, or security checks fail.
// NewRegistry does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewRegistry(requester Requester, endpoint string) (*Registry, error) {
	if requester == nil {
		return nil, errors.New("requester is required")
	}
	if strings.TrimSpace(endpoint) == "" {
		return nil, errors.New("endpoint is required")
	}

	return &Registry{
		requester: requester,
		endpoint:  endpoint,
		tasks:     make(map[string]*Task),
	}, nil
}

// Start describes the start operation and its observable behavior.
//
// Start may return an error when input validation, dependency calls, or security checks fail.
// Start does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// Starting an id that is already running returns the running task, so screen
// re-mounts reattach instead of duplicating the search.
func (r *Registry) Start(ctx context.Context, requestID string, query Query) (*Task, error) {
	if strings.TrimSpace(requestID) == "" {
		return nil, errors.New("request id is required")
	}

	r.mu.Lock()
	if task, ok := r.tasks[requestID]; ok {
		r.mu.Unlock()
		return task, nil
	}

	taskCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	task := &Task{
		id:          requestID,
		cancel:      cancel,
		subscribers: make(map[int]chan Event),
	}
	r.tasks[requestID] = task
	r.mu.Unlock()

	go func() {
		err := r.run(taskCtx, task, query)
		task.finish(err)
		cancel()

		r.mu.Lock()
		delete(r.tasks, requestID)
		r.mu.Unlock()
	}()

	return task, nil
}

// Get describes the get operation and its observable behavior.
//
// Get may return an error when input validation, dependency calls, or security checks fail.
// Get does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (r *Registry) Get(requestID string) (*Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, ok := r.tasks[requestID]
	return task, ok
}

// Cancel describes the cancel operation and its observable behavior.
//
// Cancel may return an error when input validation, dependency calls, or security checks fail.
// Cancel does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (r *Registry) Cancel(requestID string) error {
	r.mu.Lock()
	task, ok := r.tasks[requestID]
	r.mu.Unlock()

	if !ok {
		return ErrTaskNotFound
	}
	task.Cancel()
	return nil
}

// CancelAll describes the cancelall operation and its observable behavior.
//
// CancelAll may return an error when input validation, dependency calls, or security checks fail.
// CancelAll does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (r *Registry) CancelAll() {
	r.mu.Lock()
	tasks := make([]*Task, 0, len(r.tasks))
	for _, task := range r.tasks {
		tasks = append(tasks, task)
	}
	r.mu.Unlock()

	for _, task := range tasks {
		task.Cancel()
	}
}

func (r *Registry) run(ctx context.Context, task *Task, query Query) error {
	body, err := json.Marshal(query)
	if err != nil {
		return fmt.Errorf("encode query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build stream request: %w", err)
	}
	req.Header.Set("Accept", "application/x-ndjson")

	resp, err := r.requester.Do(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", ErrStreamStatus, resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64<<10), 1<<20)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var dish Dish
		if err := json.Unmarshal(line, &dish); err != nil {
			// One bad line does not poison the rest of the stream.
			continue
		}

		task.publish(dish)
	}
	if err := scanner.Err(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}

	return ctx.Err()
}

// ID describes the id operation and its observable behavior.
//
// ID may return an error when input validation, dependency calls, or security checks fail.
// ID does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (t *Task) ID() string {
	return t.id
}

// Cancel describes the cancel operation and its observable behavior.
//
// Cancel may return an error when input validation, dependency calls, or security checks fail.
// Cancel does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (t *Task) Cancel() {
	t.cancel()
}

// Subscribe describes the subscribe operation and its observable behavior.
//
// Subscribe may return an error when input validation, dependency calls, or security checks fail.
// Subscribe does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// Dishes published before the subscription are replayed first, so a late
// subscriber sees the full result set. The returned stop function detaches the
// subscription without affecting the task; it is safe to call more than once.
func (t *Task) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}

	t.mu.Lock()

	replay := make([]Dish, len(t.dishes))
	copy(replay, t.dishes)

	if t.finished {
		terminal := t.terminal
		t.mu.Unlock()

		ch := make(chan Event, len(replay)+1)
		for i := range replay {
			ch <- Event{Dish: &replay[i]}
		}
		ch <- terminal
		close(ch)
		return ch, func() {}
	}

	// Replay is pushed under the lock so no concurrently published dish can
	// land ahead of it; capacity covers the whole backlog, so this never
	// blocks.
	ch := make(chan Event, buffer+len(replay))
	id := t.nextSub
	t.nextSub++
	t.subscribers[id] = ch
	for i := range replay {
		ch <- Event{Dish: &replay[i]}
	}
	t.mu.Unlock()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			t.mu.Lock()
			if _, ok := t.subscribers[id]; ok {
				delete(t.subscribers, id)
				close(ch)
			}
			t.mu.Unlock()
		})
	}

	return ch, stop
}

func (t *Task) publish(dish Dish) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.finished {
		return
	}

	t.dishes = append(t.dishes, dish)

	for id, ch := range t.subscribers {
		select {
		case ch <- Event{Dish: &dish}:
		default:
			// A subscriber that stopped draining is detached rather than
			// allowed to stall the stream.
			delete(t.subscribers, id)
			close(ch)
		}
	}
}

func (t *Task) finish(err error) {
	terminal := Event{Done: true}
	if err != nil {
		terminal = Event{Err: err}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.finished {
		return
	}
	t.finished = true
	t.terminal = terminal

	for id, ch := range t.subscribers {
		select {
		case ch <- terminal:
		default:
		}
		delete(t.subscribers, id)
		close(ch)
	}
}
