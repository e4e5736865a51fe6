// Package intercept decorates audio context constructors so every
// instance they build is tracked by a resume.Registry.
package intercept

import "github.com/ingyamilmolinar/wakeaudio/core/resume"

// Constructor builds an audio context from its options.
type Constructor[H resume.Handle, O any] func(O) (H, error)

// Wrap returns a constructor that forwards opts to ctor, registers the
// result with reg and returns it unchanged. Construction errors are
// returned as-is and nothing is registered.
func Wrap[H resume.Handle, O any](reg *resume.Registry, ctor func(O) (H, error)) Constructor[H, O] {
	return func(opts O) (H, error) {
		h, err := ctor(opts)
		if err != nil {
			return h, err
		}
		reg.Register(h)
		return h, nil
	}
}

// WrapFunc is Wrap for constructors that take no options.
func WrapFunc[H resume.Handle](reg *resume.Registry, ctor func() (H, error)) func() (H, error) {
	wrapped := Wrap(reg, func(struct{}) (H, error) { return ctor() })
	return func() (H, error) { return wrapped(struct{}{}) }
}
