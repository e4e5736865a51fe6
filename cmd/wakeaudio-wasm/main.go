//go:build js && wasm

// Command wakeaudio-wasm runs the resumer inside a web page. Load it
// before any audio code; every AudioContext the page constructs is
// tracked and resumed until it runs. Set a global wakeaudio_config
// object beforehand to change interval (ms), logLevel, dropClosed or
// intercept.
package main

import (
	"context"
	"os"
	"syscall/js"
	"time"

	"github.com/ingyamilmolinar/wakeaudio/core/engine"
	"github.com/ingyamilmolinar/wakeaudio/core/resume"
	"github.com/ingyamilmolinar/wakeaudio/internal/config"
	game_log "github.com/ingyamilmolinar/wakeaudio/internal/log"
	"github.com/ingyamilmolinar/wakeaudio/internal/webaudio"
)

var funcs []js.Func

const drainTimeout = time.Second

func main() {
	cfg, intercept := pageConfig(js.Global().Get("wakeaudio_config"))
	logger := game_log.New(os.Stderr, cfg.Level())
	if err := cfg.Validate(); err != nil {
		logger.Errorf("[WASM] %v", err)
		return
	}

	reg := resume.NewRegistry(logger)
	reg.DropClosed = cfg.DropClosed
	reg.OnResumeError = func(e resume.Entry, err error) {
		if cb := js.Global().Get("wakeaudio_onerror"); cb.Type() == js.TypeFunction {
			cb.Invoke(e.ID.String(), err.Error())
		}
	}

	restore := func() {}
	if intercept {
		r, err := webaudio.InterceptGlobal(reg)
		if err != nil {
			logger.Errorf("[WASM] AudioContext interception disabled: %v", err)
		} else {
			restore = r
		}
	}
	defer restore()

	eng, err := engine.New(reg, cfg.Interval, logger)
	if err != nil {
		logger.Errorf("[WASM] %v", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	api := js.Global().Get("Object").New()
	api.Set("register", export(func(args []js.Value) any {
		if len(args) < 1 {
			return js.Null()
		}
		return registerValue(reg, args[0])
	}))
	api.Set("create", export(func(args []js.Value) any {
		var opts webaudio.Options
		if len(args) > 0 && args[0].Type() == js.TypeObject {
			if sr := args[0].Get("sampleRate"); sr.Type() == js.TypeNumber {
				opts.SampleRate = sr.Float()
			}
			if lh := args[0].Get("latencyHint"); lh.Type() == js.TypeString {
				opts.LatencyHint = lh.String()
			}
		}
		c, err := webaudio.New(opts)
		if err != nil {
			logger.Errorf("[WASM] %v", err)
			return js.Null()
		}
		if !intercept {
			reg.Register(c)
		}
		return c.Value()
	}))
	api.Set("size", export(func([]js.Value) any {
		return reg.Len()
	}))
	// stop ends ticking and exits once outstanding resume() promises settle
	// or drainTimeout passes. Promises settling after that reach an exited
	// program and only log a console error.
	api.Set("stop", export(func([]js.Value) any {
		cancel()
		return js.Null()
	}))
	js.Global().Set("wakeaudio", api)

	_ = eng.Run(ctx)
	drain(reg, drainTimeout)

	js.Global().Delete("wakeaudio")
	for _, f := range funcs {
		f.Release()
	}
}

// registerValue tracks v if it looks like an AudioContext and returns its
// id, or null otherwise.
func registerValue(reg *resume.Registry, v js.Value) any {
	if v.Type() != js.TypeObject || v.Get("resume").Type() != js.TypeFunction {
		return js.Null()
	}
	return reg.Register(webaudio.Wrap(v)).String()
}

// drain waits until no resume completion is outstanding or d passes.
func drain(reg *resume.Registry, d time.Duration) bool {
	deadline := time.Now().Add(d)
	for reg.Awaiting() > 0 {
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(10 * time.Millisecond)
	}
	return true
}

func export(fn func(args []js.Value) any) js.Func {
	f := js.FuncOf(func(_ js.Value, args []js.Value) any {
		return fn(args)
	})
	funcs = append(funcs, f)
	return f
}

// pageConfig reads the optional wakeaudio_config object over the defaults.
func pageConfig(v js.Value) (config.Config, bool) {
	cfg := config.Defaults()
	intercept := true
	if v.Type() != js.TypeObject {
		return cfg, intercept
	}
	if iv := v.Get("interval"); iv.Type() == js.TypeNumber {
		cfg.Interval = time.Duration(iv.Float() * float64(time.Millisecond))
	}
	if lv := v.Get("logLevel"); lv.Type() == js.TypeString {
		cfg.LogLevel = lv.String()
	}
	if dc := v.Get("dropClosed"); dc.Type() == js.TypeBoolean {
		cfg.DropClosed = dc.Bool()
	}
	if ic := v.Get("intercept"); ic.Type() == js.TypeBoolean {
		intercept = ic.Bool()
	}
	return cfg, intercept
}
