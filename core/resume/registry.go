// Package resume keeps audio contexts running. A Registry tracks
// handles and each Tick drops the ones that are running and asks the rest
// to resume.
package resume

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	game_log "github.com/ingyamilmolinar/wakeaudio/internal/log"
)

// State mirrors the AudioContext state attribute.
type State string

const (
	StateSuspended   State = "suspended"
	StateRunning     State = "running"
	StateClosed      State = "closed"
	StateInterrupted State = "interrupted"
)

// Handle is an audio context owned by someone else.
type Handle interface {
	// State returns the current state. It must not block. It is called
	// without the registry lock held.
	State() State
	// Resume requests a transition toward running without waiting for it.
	// The returned channel yields at most one result and must not block
	// its sender when nobody reads it. A nil channel means completion
	// cannot be observed.
	Resume() <-chan error
}

// Entry is a registered handle.
type Entry struct {
	ID     uuid.UUID
	Handle Handle
	Added  time.Time
}

type entry struct {
	Entry
	awaiting atomic.Bool
}

// Report describes what a single Tick did.
type Report struct {
	Running []Entry // dropped because they were running
	Closed  []Entry // dropped because they were closed (DropClosed only)
	Resumed []Entry // Resume called and returned
}

// Empty reports whether the tick neither dropped nor resumed anything.
func (r Report) Empty() bool {
	return len(r.Running) == 0 && len(r.Closed) == 0 && len(r.Resumed) == 0
}

// Registry is an ordered list of handles. Hooks and DropClosed must be
// set before the registry is shared.
type Registry struct {
	// OnRunning is called for every entry dropped because it was running.
	OnRunning func(Entry)
	// OnResumeError receives failed resume completions and panics raised
	// by Resume.
	OnResumeError func(Entry, error)
	// DropClosed removes closed handles instead of resuming them forever.
	DropClosed bool

	mu      sync.Mutex
	entries []*entry
	pending atomic.Int64
	now     func() time.Time
	logger  *game_log.Logger
}

func NewRegistry(logger *game_log.Logger) *Registry {
	return &Registry{
		now:    time.Now,
		logger: logger,
	}
}

// Register appends h. The same handle may be registered more than once.
func (r *Registry) Register(h Handle) uuid.UUID {
	if h == nil {
		return uuid.Nil
	}
	e := &entry{Entry: Entry{ID: uuid.New(), Handle: h, Added: r.now()}}
	r.mu.Lock()
	r.entries = append(r.entries, e)
	n := len(r.entries)
	r.mu.Unlock()
	r.logger.Debugf("[RESUME] Registered %s (tracked=%d)", e.ID, n)
	return e.ID
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Entries returns the registered entries in registration order.
func (r *Registry) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.Entry
	}
	return out
}

// Handles returns the registered handles in registration order.
func (r *Registry) Handles() []Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Handle, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.Handle
	}
	return out
}

// Tick filters out running handles, then dispatches Resume once on each
// handle that is left. States are read outside the lock, so a handle
// registered while they are read is first resumed on the next Tick.
func (r *Registry) Tick() Report {
	var rep Report

	r.mu.Lock()
	snap := make([]*entry, len(r.entries))
	copy(snap, r.entries)
	r.mu.Unlock()

	kept := make([]*entry, 0, len(snap))
	dropped := map[*entry]bool{}
	for _, e := range snap {
		switch st := stateOf(e.Handle); {
		case st == StateRunning:
			rep.Running = append(rep.Running, e.Entry)
			dropped[e] = true
		case st == StateClosed && r.DropClosed:
			rep.Closed = append(rep.Closed, e.Entry)
			dropped[e] = true
		default:
			kept = append(kept, e)
		}
	}

	if len(dropped) > 0 {
		r.mu.Lock()
		left := make([]*entry, 0, len(r.entries))
		for _, e := range r.entries {
			if !dropped[e] {
				left = append(left, e)
			}
		}
		r.entries = left
		r.mu.Unlock()
	}

	now := r.now()
	for _, e := range rep.Running {
		r.logger.Debugf("[RESUME] %s is running after %v, no longer tracked", e.ID, now.Sub(e.Added))
		if r.OnRunning != nil {
			r.OnRunning(e)
		}
	}
	for _, e := range rep.Closed {
		r.logger.Debugf("[RESUME] %s is closed after %v, dropped", e.ID, now.Sub(e.Added))
	}

	for _, e := range kept {
		if r.dispatch(e) {
			rep.Resumed = append(rep.Resumed, e.Entry)
		}
	}
	return rep
}

// Awaiting returns how many resume completions are still outstanding.
func (r *Registry) Awaiting() int { return int(r.pending.Load()) }

// dispatch calls Resume and reports whether the call returned.
func (r *Registry) dispatch(e *entry) bool {
	done, err := r.callResume(e)
	if err != nil {
		r.resumeFailed(e.Entry, err)
		return false
	}
	if done == nil || !e.awaiting.CompareAndSwap(false, true) {
		return true
	}
	r.pending.Add(1)
	go func() {
		defer func() {
			e.awaiting.Store(false)
			r.pending.Add(-1)
		}()
		if err, ok := <-done; ok && err != nil {
			r.resumeFailed(e.Entry, err)
		}
	}()
	return true
}

func (r *Registry) callResume(e *entry) (done <-chan error, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("resume panicked: %v", p)
		}
	}()
	return e.Handle.Resume(), nil
}

// stateOf treats a panicking State as not running so the lock is always
// released.
func stateOf(h Handle) (st State) {
	defer func() {
		if recover() != nil {
			st = ""
		}
	}()
	return h.State()
}

func (r *Registry) resumeFailed(e Entry, err error) {
	r.logger.Debugf("[RESUME] Resume of %s failed: %v", e.ID, err)
	if r.OnResumeError != nil {
		r.OnResumeError(e, err)
	}
}
