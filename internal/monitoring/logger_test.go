package monitoring

import (
	"testing"
)

func TestSetLogger(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	called := false
	SetLogger(func(format string, v ...interface{}) {
		called = true
	})
	Logf("test message")
	if !called {
		t.Error("Custom logger was not called")
	}

	// nil installs a no-op logger
	called = false
	SetLogger(nil)
	Logf("test message")
	if called {
		t.Error("No-op logger should not have triggered callback")
	}
}

func TestLogf_Default(t *testing.T) {
	if Logf == nil {
		t.Error("Logf should not be nil by default")
	}

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("Logf panicked: %v", r)
		}
	}()

	Logf("test message: %s", "value")
}

func TestRecorder(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	var rec Recorder
	SetLogger(rec.Logf)

	Logf("device %s removed", "cam-1")
	Logf("fallback after %d profiles", 1)

	lines := rec.Lines()
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[0] != "device cam-1 removed" {
		t.Errorf("lines[0] = %q", lines[0])
	}

	rec.Reset()
	if len(rec.Lines()) != 0 {
		t.Error("Reset should clear recorded lines")
	}
}
