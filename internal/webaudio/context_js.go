//go:build js && wasm

package webaudio

import (
	"fmt"
	"syscall/js"

	"github.com/ingyamilmolinar/wakeaudio/core/resume"
)

// Context wraps a browser AudioContext.
type Context struct {
	v js.Value
}

// Wrap adopts an AudioContext created elsewhere.
func Wrap(v js.Value) *Context { return &Context{v: v} }

// New constructs an AudioContext. Exceptions thrown by the browser are
// returned as *DOMError.
func New(opts Options) (c *Context, err error) {
	ctor := constructor()
	if ctor.IsUndefined() {
		return nil, ErrUnsupported
	}
	defer func() {
		if p := recover(); p != nil {
			jsErr, ok := p.(js.Error)
			if !ok {
				panic(p)
			}
			err = fmt.Errorf("constructing AudioContext: %w", domError(jsErr.Value))
		}
	}()
	var args []any
	if d := opts.dict(); len(d) > 0 {
		args = append(args, d)
	}
	return Wrap(ctor.New(args...)), nil
}

func constructor() js.Value {
	g := js.Global()
	for _, name := range constructorNames {
		if c := g.Get(name); c.Type() == js.TypeFunction {
			return c
		}
	}
	return js.Undefined()
}

func (c *Context) State() resume.State {
	return resume.State(c.v.Get("state").String())
}

// Resume calls resume() and reports the promise outcome on the returned
// channel.
func (c *Context) Resume() <-chan error {
	done := make(chan error, 1)
	await(c.v.Call("resume"), done)
	return done
}

// Value returns the underlying AudioContext.
func (c *Context) Value() js.Value { return c.v }

func await(p js.Value, done chan<- error) {
	if p.Type() != js.TypeObject || p.Get("then").Type() != js.TypeFunction {
		done <- nil
		close(done)
		return
	}
	var onOK, onErr js.Func
	settle := func(err error) {
		done <- err
		close(done)
		onOK.Release()
		onErr.Release()
	}
	onOK = js.FuncOf(func(js.Value, []js.Value) any {
		settle(nil)
		return nil
	})
	onErr = js.FuncOf(func(_ js.Value, args []js.Value) any {
		reason := js.Undefined()
		if len(args) > 0 {
			reason = args[0]
		}
		settle(domError(reason))
		return nil
	})
	p.Call("then", onOK, onErr)
}

func domError(v js.Value) *DOMError {
	if v.Type() != js.TypeObject {
		return &DOMError{Message: v.String()}
	}
	e := &DOMError{}
	if n := v.Get("name"); n.Type() == js.TypeString {
		e.Name = n.String()
	}
	if m := v.Get("message"); m.Type() == js.TypeString {
		e.Message = m.String()
	}
	return e
}

// proxySource builds the constructor proxy in JS so exceptions thrown by
// the real constructor reach the caller before anything is registered.
const proxySource = `return new Proxy(target, {
	construct(t, args, newTarget) {
		const ctx = Reflect.construct(t, args, newTarget);
		register(ctx);
		return ctx;
	},
});`

// InterceptGlobal replaces the global AudioContext constructors with
// proxies that register every instance with reg. restore puts the
// originals back. The proxy is compiled with Function, so pages with a
// CSP that forbids unsafe-eval must register contexts explicitly.
func InterceptGlobal(reg *resume.Registry) (restore func(), err error) {
	g := js.Global()
	defer func() {
		if p := recover(); p != nil {
			jsErr, ok := p.(js.Error)
			if !ok {
				panic(p)
			}
			err = fmt.Errorf("installing AudioContext proxy: %w", domError(jsErr.Value))
		}
	}()

	register := js.FuncOf(func(_ js.Value, args []js.Value) any {
		if len(args) > 0 {
			reg.Register(Wrap(args[0]))
		}
		return nil
	})
	makeProxy := g.Get("Function").New("target", "register", proxySource)

	type original struct {
		name string
		ctor js.Value
	}
	var replaced []original
	for _, name := range constructorNames {
		orig := g.Get(name)
		if orig.Type() != js.TypeFunction {
			continue
		}
		g.Set(name, makeProxy.Invoke(orig, register))
		replaced = append(replaced, original{name, orig})
	}
	if len(replaced) == 0 {
		register.Release()
		return nil, ErrUnsupported
	}

	return func() {
		for _, o := range replaced {
			g.Set(o.name, o.ctor)
		}
		register.Release()
	}, nil
}
