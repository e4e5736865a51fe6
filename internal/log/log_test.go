package log

import (
	"bytes"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelInfo)

	l.Debugf("hidden %d", 1)
	l.Infof("shown %d", 2)
	l.Warnf("warned")
	l.Errorf("failed")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line leaked at INFO level: %q", out)
	}
	for _, want := range []string{"INFO: shown 2", "WARN: warned", "ERROR: failed"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got %q", want, out)
		}
	}
}

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelNone)
	l.Errorf("dropped")
	if buf.Len() != 0 {
		t.Fatalf("expected no output at NONE, got %q", buf.String())
	}

	l.SetLevel(LevelDebug)
	if l.Level() != LevelDebug {
		t.Fatalf("expected DEBUG, got %v", l.Level())
	}
	l.Debugf("kept")
	if !strings.Contains(buf.String(), "DEBUG: kept") {
		t.Fatalf("expected debug line, got %q", buf.String())
	}
}

func TestLevelFromString(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		" INFO ":  LevelInfo,
		"warn":    LevelInfo,
		"Error":   LevelError,
		"none":    LevelNone,
		"off":     LevelNone,
		"verbose": LevelInfo,
	}
	for in, want := range cases {
		if got := LevelFromString(in); got != want {
			t.Fatalf("LevelFromString(%q) = %v, want %v", in, got, want)
		}
	}
	if ValidLevel("verbose") {
		t.Fatalf("verbose should not be a valid level")
	}
	if !ValidLevel("warning") {
		t.Fatalf("warning should be a valid level")
	}
}

func TestNilLoggerIsSilent(t *testing.T) {
	var l *Logger
	l.Infof("no panic")
	l.Errorf("no panic")
}
