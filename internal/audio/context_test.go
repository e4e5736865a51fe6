package audio

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ingyamilmolinar/wakeaudio/core/intercept"
	"github.com/ingyamilmolinar/wakeaudio/core/resume"
	game_log "github.com/ingyamilmolinar/wakeaudio/internal/log"
)

type fakeDevice struct {
	resumeErr  error
	suspendErr error
	err        error
	resumes    int
}

func (d *fakeDevice) Resume() error  { d.resumes++; return d.resumeErr }
func (d *fakeDevice) Suspend() error { return d.suspendErr }
func (d *fakeDevice) Err() error     { return d.err }

func TestContext_SuspendedUntilReady(t *testing.T) {
	ready := make(chan struct{})
	c := newContext(&fakeDevice{}, ready, game_log.Discard())
	require.Equal(t, resume.StateSuspended, c.State())

	close(ready)
	require.Equal(t, resume.StateRunning, c.State())
}

func TestContext_SuspendAndResume(t *testing.T) {
	ready := make(chan struct{})
	close(ready)
	dev := &fakeDevice{}
	c := newContext(dev, ready, game_log.Discard())

	require.NoError(t, c.Suspend())
	require.Equal(t, resume.StateSuspended, c.State())

	require.NoError(t, <-c.Resume())
	require.Equal(t, 1, dev.resumes)
	require.Equal(t, resume.StateRunning, c.State())
}

func TestContext_FailedResumeStaysSuspended(t *testing.T) {
	ready := make(chan struct{})
	close(ready)
	errBusy := errors.New("device busy")
	dev := &fakeDevice{}
	c := newContext(dev, ready, game_log.Discard())
	require.NoError(t, c.Suspend())

	dev.resumeErr = errBusy
	require.ErrorIs(t, <-c.Resume(), errBusy)
	require.Equal(t, resume.StateSuspended, c.State())
}

func TestContext_SuspendError(t *testing.T) {
	dev := &fakeDevice{suspendErr: errors.New("nope")}
	c := newContext(dev, make(chan struct{}), game_log.Discard())
	require.ErrorContains(t, c.Suspend(), "nope")
}

func TestContext_DeviceErrorIsClosed(t *testing.T) {
	ready := make(chan struct{})
	close(ready)
	c := newContext(&fakeDevice{err: errors.New("unplugged")}, ready, game_log.Discard())
	require.Equal(t, resume.StateClosed, c.State())
}

func TestContext_PlayWithoutDevice(t *testing.T) {
	c := newContext(&fakeDevice{}, make(chan struct{}), game_log.Discard())
	_, err := c.Play(NewTone(440, 10*time.Millisecond, DefaultSampleRate, 1))
	require.ErrorIs(t, err, ErrNoPlayer)
}

func TestContext_TrackedUntilReady(t *testing.T) {
	reg := resume.NewRegistry(game_log.Discard())
	ready := make(chan struct{})
	dev := &fakeDevice{}
	ctor := intercept.Wrap(reg, func(struct{}) (*Context, error) {
		return newContext(dev, ready, game_log.Discard()), nil
	})
	_, err := ctor(struct{}{})
	require.NoError(t, err)

	reg.Tick()
	reg.Tick()
	require.Equal(t, 2, dev.resumes)
	require.Equal(t, 1, reg.Len())

	close(ready)
	reg.Tick()
	require.Equal(t, 2, dev.resumes)
	require.Equal(t, 0, reg.Len())
}

func TestTone_ReadsWholeFramesThenEOF(t *testing.T) {
	tone := NewTone(440, 100*time.Millisecond, 8000, 2)
	require.Equal(t, 800*2*2, tone.Len())

	data, err := io.ReadAll(tone)
	require.NoError(t, err)
	require.Len(t, data, tone.Len())

	n, err := tone.Read(make([]byte, 16))
	require.Equal(t, 0, n)
	require.ErrorIs(t, err, io.EOF)
}

func TestTone_ChannelsCarrySameSample(t *testing.T) {
	tone := NewTone(440, 10*time.Millisecond, 8000, 2)
	buf := make([]byte, 64)
	n, err := tone.Read(buf)
	require.NoError(t, err)
	require.Equal(t, 64, n)

	nonZero := false
	for i := 0; i+3 < n; i += 4 {
		require.Equal(t, buf[i:i+2], buf[i+2:i+4])
		if buf[i] != 0 || buf[i+1] != 0 {
			nonZero = true
		}
	}
	require.True(t, nonZero, "expected audible samples")
}
