package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ingyamilmolinar/wakeaudio/core/resume"
	game_log "github.com/ingyamilmolinar/wakeaudio/internal/log"
)

// DefaultInterval is how often tracked contexts are checked.
const DefaultInterval = 100 * time.Millisecond

var ErrInvalidInterval = errors.New("engine: interval must be positive")

// Engine ticks a registry on its own goroutine.
type Engine struct {
	Registry *resume.Registry
	// Events receives the report of every tick that did something.
	Events chan resume.Report

	interval time.Duration
	ticks    atomic.Uint64
	logger   *game_log.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates an engine for reg. Call Run or Start to begin ticking.
func New(reg *resume.Registry, interval time.Duration, logger *game_log.Logger) (*Engine, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidInterval, interval)
	}
	return &Engine{
		Registry: reg,
		Events:   make(chan resume.Report, 16),
		interval: interval,
		logger:   logger,
	}, nil
}

// Run ticks until ctx is done and returns ctx.Err().
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Infof("[ENGINE] Resuming tracked audio contexts every %v", e.interval)
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			e.tick()
		case <-ctx.Done():
			e.logger.Debugf("[ENGINE] Stopped after %d ticks", e.ticks.Load())
			return ctx.Err()
		}
	}
}

func (e *Engine) tick() {
	rep := e.Registry.Tick()
	e.ticks.Add(1)
	if rep.Empty() {
		return
	}
	select {
	case e.Events <- rep:
	default:
	}
}

// Start runs the engine on a new goroutine. Starting a running engine
// does nothing.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.done = make(chan struct{})
	go func(done chan struct{}) {
		defer close(done)
		_ = e.Run(ctx)
	}(e.done)
}

// Close stops a started engine and waits for its goroutine to exit.
func (e *Engine) Close() {
	e.mu.Lock()
	cancel, done := e.cancel, e.done
	e.cancel, e.done = nil, nil
	e.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Ticks returns the number of ticks performed so far.
func (e *Engine) Ticks() uint64 { return e.ticks.Load() }
