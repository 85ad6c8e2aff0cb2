// Package taskpool runs independent per-video copy jobs on a fixed set of
// workers.
package taskpool

import (
	"sync"
)

// Task is one video to mirror into the output tree.
type Task struct {
	Src       string
	Dest      string
	StreamID  int
	Completed bool
	Failed    bool
}

// Manager owns the pending queue and the finished tasks. Workers take tasks
// with Next and report them with Finish.
type Manager struct {
	mu        sync.Mutex
	cond      *sync.Cond
	queue     []Task
	completed map[int]Task
	finished  int
	total     int
	exit      bool
}

// NewManager queues tasks in order.
func NewManager(tasks []Task) *Manager {
	m := &Manager{
		queue:     append([]Task(nil), tasks...),
		completed: make(map[int]Task, len(tasks)),
		total:     len(tasks),
	}
	m.cond = sync.NewCond(&m.mu)
	return m
}

// Next blocks until a task is queued or Exit is called. Queued tasks are still
// handed out after Exit; the boolean is false once the queue is empty and the
// manager has exited.
func (m *Manager) Next() (Task, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for len(m.queue) == 0 && !m.exit {
		m.cond.Wait()
	}
	if len(m.queue) == 0 {
		return Task{}, false
	}
	t := m.queue[0]
	m.queue = m.queue[1:]
	return t, true
}

// Finish records a task, keyed by stream ID. Every call counts towards
// AllCompleted, even when two tasks share an ID.
func (m *Manager) Finish(t Task) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completed[t.StreamID] = t
	m.finished++
}

// Exit wakes every waiting worker. Safe to call more than once.
func (m *Manager) Exit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exit = true
	m.cond.Broadcast()
}

// AllCompleted reports whether every queued task has been finished.
func (m *Manager) AllCompleted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.finished >= m.total
}

// Completed returns a snapshot of the finished tasks.
func (m *Manager) Completed() map[int]Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[int]Task, len(m.completed))
	for id, t := range m.completed {
		out[id] = t
	}
	return out
}
