package app

import (
	"time"

	"picpath/internal/picpath"
)

// Operation is one CLI invocation. Its ID tags every log line the
// invocation writes.
type Operation struct {
	ID        string
	Name      string
	StartedAt time.Time
	Status    string // "success" or "error"
}

// NewOperation starts an operation named after the CLI command being run.
func NewOperation(name string, idgen picpath.IDGenerator, clock picpath.Clock) *Operation {
	return &Operation{
		ID:        idgen.New(),
		Name:      name,
		StartedAt: clock.Now(),
		Status:    "success",
	}
}

// Fail marks the operation as failed.
func (op *Operation) Fail() {
	op.Status = "error"
}

// Elapsed returns the time since the operation started.
func (op *Operation) Elapsed(clock picpath.Clock) time.Duration {
	return clock.Now().Sub(op.StartedAt)
}
