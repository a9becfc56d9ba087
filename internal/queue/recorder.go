package queue

import (
	"context"
	"sync"
)

// Recorder is a Dispatcher that keeps every task in memory. Setting Err
// makes Enqueue fail after recording.
type Recorder struct {
	mu    sync.Mutex
	tasks []Task
	Err   error
}

func (r *Recorder) Enqueue(_ context.Context, t Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks = append(r.tasks, t)
	return r.Err
}

// Tasks returns a copy of the recorded tasks.
func (r *Recorder) Tasks() []Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Task(nil), r.tasks...)
}
