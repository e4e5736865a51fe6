package audio

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/ebitengine/oto/v3"

	"github.com/ingyamilmolinar/wakeaudio/core/resume"
	game_log "github.com/ingyamilmolinar/wakeaudio/internal/log"
)

const (
	DefaultSampleRate   = 44100
	DefaultChannelCount = 1
)

var ErrNoPlayer = errors.New("audio: context has no output device")

// device is the part of *oto.Context the adapter drives.
type device interface {
	Resume() error
	Suspend() error
	Err() error
}

type Options struct {
	SampleRate   int
	ChannelCount int
	Logger       *game_log.Logger
}

// Context adapts an oto context to resume.Handle. oto allows a single
// context per process; on js/wasm it is backed by a WebAudio context.
type Context struct {
	dev    device
	oto    *oto.Context
	ready  <-chan struct{}
	logger *game_log.Logger

	mu        sync.Mutex
	suspended bool
}

// NewContext opens the output device. It does not wait for the device
// to become ready; browsers hold readiness back until a user gesture.
func NewContext(opts Options) (*Context, error) {
	if opts.SampleRate <= 0 {
		opts.SampleRate = DefaultSampleRate
	}
	if opts.ChannelCount <= 0 {
		opts.ChannelCount = DefaultChannelCount
	}
	c, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   opts.SampleRate,
		ChannelCount: opts.ChannelCount,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return nil, fmt.Errorf("audio: opening oto context: %w", err)
	}
	ctx := newContext(c, ready, opts.Logger)
	ctx.oto = c
	ctx.logger.Infof("[AUDIO] Opened output: %d Hz, %d channel(s)", opts.SampleRate, opts.ChannelCount)
	return ctx, nil
}

func newContext(dev device, ready <-chan struct{}, logger *game_log.Logger) *Context {
	return &Context{dev: dev, ready: ready, logger: logger}
}

// State is suspended until oto reports readiness, closed once the device
// has failed, and otherwise follows Suspend and Resume.
func (c *Context) State() resume.State {
	if c.dev.Err() != nil {
		return resume.StateClosed
	}
	select {
	case <-c.ready:
	default:
		return resume.StateSuspended
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.suspended {
		return resume.StateSuspended
	}
	return resume.StateRunning
}

// Resume asks oto to resume output. The result is delivered immediately.
func (c *Context) Resume() <-chan error {
	done := make(chan error, 1)
	err := c.dev.Resume()
	if err == nil {
		c.mu.Lock()
		c.suspended = false
		c.mu.Unlock()
	} else {
		c.logger.Debugf("[AUDIO] Resume failed: %v", err)
	}
	done <- err
	close(done)
	return done
}

// Suspend pauses output until the next Resume.
func (c *Context) Suspend() error {
	if err := c.dev.Suspend(); err != nil {
		return fmt.Errorf("audio: suspending: %w", err)
	}
	c.mu.Lock()
	c.suspended = true
	c.mu.Unlock()
	return nil
}

// Play starts streaming r and returns the player so callers can wait on
// or close it.
func (c *Context) Play(r io.Reader) (*oto.Player, error) {
	if c.oto == nil {
		return nil, ErrNoPlayer
	}
	p := c.oto.NewPlayer(r)
	p.Play()
	return p, nil
}
