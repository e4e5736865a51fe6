//go:build !(js && wasm)

package webaudio

import "github.com/ingyamilmolinar/wakeaudio/core/resume"

// Context is unusable outside the browser.
type Context struct{}

func New(Options) (*Context, error) { return nil, ErrUnsupported }

func (*Context) State() resume.State { return resume.StateClosed }

func (*Context) Resume() <-chan error {
	done := make(chan error, 1)
	done <- ErrUnsupported
	close(done)
	return done
}

func InterceptGlobal(*resume.Registry) (func(), error) { return nil, ErrUnsupported }
