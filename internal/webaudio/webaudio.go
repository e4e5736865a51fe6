// Package webaudio binds browser AudioContext objects to resume.Handle.
// Everything except the types in this file requires GOOS=js GOARCH=wasm.
package webaudio

import (
	"errors"
	"fmt"
)

// ErrUnsupported is returned when no AudioContext constructor is available.
var ErrUnsupported = errors.New("webaudio: AudioContext is not available")

// Options mirrors the AudioContextOptions dictionary. Zero fields are
// left to the browser.
type Options struct {
	SampleRate  float64
	LatencyHint string // "interactive", "balanced" or "playback"
}

func (o Options) dict() map[string]any {
	m := map[string]any{}
	if o.SampleRate > 0 {
		m["sampleRate"] = o.SampleRate
	}
	if o.LatencyHint != "" {
		m["latencyHint"] = o.LatencyHint
	}
	return m
}

// DOMError is a rejected resume() promise or a constructor exception.
type DOMError struct {
	Name    string
	Message string
}

func (e *DOMError) Error() string {
	switch {
	case e.Name == "":
		return "webaudio: " + e.Message
	case e.Message == "":
		return "webaudio: " + e.Name
	}
	return fmt.Sprintf("webaudio: %s: %s", e.Name, e.Message)
}

// constructorNames lists the globals tried, in order.
var constructorNames = []string{"AudioContext", "webkitAudioContext"}
