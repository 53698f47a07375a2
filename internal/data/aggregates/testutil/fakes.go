// Package testutil holds fakes for exercising aggregate writes without a
// healthy database.
package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/yungbote/greenlight-backend/internal/data/aggregates"
	"github.com/yungbote/greenlight-backend/internal/pkg/dbctx"
)

// BrokenRunner refuses to open a transaction, as when postgres is unreachable.
type BrokenRunner struct {
	Err error

	mu       sync.Mutex
	attempts int
}

var _ aggregates.TxRunner = (*BrokenRunner)(nil)

func (r *BrokenRunner) InTx(context.Context, func(dbctx.Context) error) error {
	r.mu.Lock()
	r.attempts++
	r.mu.Unlock()
	return r.Err
}

func (r *BrokenRunner) Attempts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attempts
}

// Outcome is one finished aggregate write as seen by the hooks.
type Outcome struct {
	Op     string
	Status string
	Took   time.Duration
}

// Recorder is an aggregates.Hooks that keeps every signal for assertions.
type Recorder struct {
	mu        sync.Mutex
	outcomes  []Outcome
	conflicts map[string]int
	retries   map[string]int
}

var _ aggregates.Hooks = (*Recorder)(nil)

func (r *Recorder) ObserveOperation(name, status string, dur time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, Outcome{Op: name, Status: status, Took: dur})
}

func (r *Recorder) IncConflict(name string) { r.bump(&r.conflicts, name) }

func (r *Recorder) IncRetry(name string) { r.bump(&r.retries, name) }

func (r *Recorder) bump(m *map[string]int, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if *m == nil {
		*m = map[string]int{}
	}
	(*m)[name]++
}

// Last returns the most recent outcome, or the zero value when none ran.
func (r *Recorder) Last() Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.outcomes) == 0 {
		return Outcome{}
	}
	return r.outcomes[len(r.outcomes)-1]
}

// Statuses lists the recorded statuses for op in call order.
func (r *Recorder) Statuses(op string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, o := range r.outcomes {
		if o.Op == op {
			out = append(out, o.Status)
		}
	}
	return out
}

func (r *Recorder) Conflicts(op string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conflicts[op]
}

func (r *Recorder) Retries(op string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.retries[op]
}
