// Package notify delivers human-readable timer status to whoever hosts the
// timer: logs, a status board for polling clients and websocket subscribers.
package notify

import (
	"log/slog"
	"sync"
	"time"
)

type Notifier interface {
	Notify(message string)
}

type Func func(message string)

func (f Func) Notify(message string) {
	f(message)
}

// Multi fans a message out to every notifier in order.
type Multi []Notifier

func (m Multi) Notify(message string) {
	for _, n := range m {
		if n != nil {
			n.Notify(message)
		}
	}
}

// Log writes every message to the default slog logger.
type Log struct{}

func (Log) Notify(message string) {
	slog.Info("pomodoro status", "message", message)
}

// Status is what front-ends render: the latest timer message plus the result
// of the last user action.
type Status struct {
	PomodoroStatus string    `json:"pomodoroStatus"`
	AppStatus      string    `json:"appStatus"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// StatusBoard keeps the most recent status for polling clients.
type StatusBoard struct {
	mu     sync.RWMutex
	status Status
	now    func() time.Time
}

func NewStatusBoard() *StatusBoard {
	return &StatusBoard{now: time.Now}
}

func (b *StatusBoard) Notify(message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.status.PomodoroStatus = message
	b.status.UpdatedAt = b.now()
}

func (b *StatusBoard) SetAppStatus(message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.status.AppStatus = message
	b.status.UpdatedAt = b.now()
}

func (b *StatusBoard) Status() Status {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.status
}
