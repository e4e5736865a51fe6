package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ingyamilmolinar/wakeaudio/core/engine"
	"github.com/ingyamilmolinar/wakeaudio/core/intercept"
	"github.com/ingyamilmolinar/wakeaudio/core/resume"
	"github.com/ingyamilmolinar/wakeaudio/internal/audio"
	"github.com/ingyamilmolinar/wakeaudio/internal/config"
	game_log "github.com/ingyamilmolinar/wakeaudio/internal/log"
)

// flagKeys maps command line flags to config keys.
var flagKeys = map[string]string{
	"interval":    "interval",
	"log-level":   "log_level",
	"drop-closed": "drop_closed",
	"sample-rate": "sample_rate",
	"channels":    "channel_count",
	"tone":        "tone",
}

const (
	toneFreq = 880
	toneDur  = 150 * time.Millisecond
)

func newRootCmd() *cobra.Command {
	var cfgFile string
	d := config.Defaults()

	rootCmd := &cobra.Command{
		Use:   "wakeaudio",
		Short: "Keep audio contexts resumed",
		Long: `Opens the audio output and resumes it whenever it is not running,
polling at a fixed interval until interrupted.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := config.NewViper(resolveConfigPath(cfgFile))
			for name, key := range flagKeys {
				if err := v.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
					return fmt.Errorf("binding flag %s: %w", name, err)
				}
			}
			cfg, err := config.LoadViper(v)
			if err != nil {
				return err
			}

			logger := game_log.New(cmd.ErrOrStderr(), cfg.Level())
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg, logger, audio.NewContext)
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default "+config.DefaultPath+" if present)")
	f := rootCmd.Flags()
	f.Duration("interval", d.Interval, "how often suspended contexts are resumed")
	f.String("log-level", d.LogLevel, "DEBUG, INFO, ERROR or NONE")
	f.Bool("drop-closed", d.DropClosed, "stop tracking contexts once they are closed")
	f.Int("sample-rate", d.SampleRate, "output sample rate in Hz")
	f.Int("channels", d.ChannelCount, "output channel count (1 or 2)")
	f.Bool("tone", d.Tone, "play a short tone once the output is running")

	rootCmd.AddCommand(newInitCmd(&cfgFile))
	return rootCmd
}

func resolveConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if _, err := os.Stat(config.DefaultPath); err == nil {
		return config.DefaultPath
	}
	return ""
}

func run(ctx context.Context, cfg config.Config, logger *game_log.Logger, open func(audio.Options) (*audio.Context, error)) error {
	reg := resume.NewRegistry(logger)
	reg.DropClosed = cfg.DropClosed
	reg.OnResumeError = func(e resume.Entry, err error) {
		logger.Warnf("[HOST] Resume of %s failed: %v", e.ID, err)
	}

	newContext := intercept.Wrap(reg, open)
	actx, err := newContext(audio.Options{
		SampleRate:   cfg.SampleRate,
		ChannelCount: cfg.ChannelCount,
		Logger:       logger,
	})
	if err != nil {
		return fmt.Errorf("opening audio output: %w", err)
	}

	eng, err := engine.New(reg, cfg.Interval, logger)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := eng.Run(ctx); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		watch(ctx, eng, logger, func(e resume.Entry) {
			if !cfg.Tone || e.Handle != resume.Handle(actx) {
				return
			}
			tone := audio.NewTone(toneFreq, toneDur, cfg.SampleRate, cfg.ChannelCount)
			if _, err := actx.Play(tone); err != nil {
				logger.Warnf("[HOST] Tone not played: %v", err)
			}
		})
		return nil
	})
	return g.Wait()
}

// watch logs engine reports until ctx is done and calls onRunning for
// every context that reached the running state.
func watch(ctx context.Context, eng *engine.Engine, logger *game_log.Logger, onRunning func(resume.Entry)) {
	for {
		select {
		case rep := <-eng.Events:
			for _, e := range rep.Running {
				logger.Infof("[HOST] Audio context %s is running", e.ID)
				onRunning(e)
			}
			for _, e := range rep.Closed {
				logger.Infof("[HOST] Audio context %s closed, no longer tracked", e.ID)
			}
			if n := len(rep.Resumed); n > 0 {
				logger.Debugf("[HOST] Resume requested for %d context(s)", n)
			}
		case <-ctx.Done():
			return
		}
	}
}
