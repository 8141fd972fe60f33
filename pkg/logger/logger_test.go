package logger

import (
	"bytes"
	"strings"
	"testing"
)

func newTestLogger(buf *bytes.Buffer, level LogLevel) *Logger {
	return New(Config{Level: level, Output: buf})
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf, WARN)

	l.Debugf("debug %d", 1)
	l.Infof("info %d", 2)
	l.Warnf("warn %d", 3)
	l.Errorf("error %d", 4)

	out := buf.String()
	for _, unwanted := range []string{"debug 1", "info 2"} {
		if strings.Contains(out, unwanted) {
			t.Errorf("Output should not contain %q:\n%s", unwanted, out)
		}
	}
	for _, wanted := range []string{"[WARN] warn 3", "[ERROR] error 4"} {
		if !strings.Contains(out, wanted) {
			t.Errorf("Output should contain %q:\n%s", wanted, out)
		}
	}
}

func TestErrorIsNotWarn(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf, ERROR)

	l.Warn("dropped")
	l.Error("kept")

	if out := buf.String(); strings.Contains(out, "dropped") || !strings.Contains(out, "kept") {
		t.Errorf("Unexpected output:\n%s", out)
	}
}

func TestFatalExits(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf, INFO)
	code := -1
	l.exit = func(c int) { code = c }

	l.Fatalf("boom %s", "now")

	if code != 1 {
		t.Errorf("Expected exit code 1, got %d", code)
	}
	if !strings.Contains(buf.String(), "[FATAL] boom now") {
		t.Errorf("Unexpected output: %s", buf.String())
	}
}

func TestWithSharesOutput(t *testing.T) {
	var buf bytes.Buffer
	parent := New(Config{Level: INFO, Prefix: "impactsync", Output: &buf})
	child := parent.With("http")

	child.Info("request done")

	if !strings.Contains(buf.String(), "impactsync [http] request done") {
		t.Errorf("Unexpected output: %s", buf.String())
	}
	if child.Level() != INFO {
		t.Errorf("Expected child to inherit level, got %v", child.Level())
	}
}

func TestPercentLiteral(t *testing.T) {
	var buf bytes.Buffer
	newTestLogger(&buf, DEBUG).Infof("%d%% done", 100)

	if !strings.Contains(buf.String(), "100% done") {
		t.Errorf("Unexpected output: %s", buf.String())
	}
}

func TestColorize(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: DEBUG, Colorize: true, Output: &buf})

	l.Error("red")
	if !strings.Contains(buf.String(), colorRed+"[ERROR]"+colorReset) {
		t.Errorf("Expected colored level tag, got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
		ok   bool
	}{
		{"debug", DEBUG, true},
		{" INFO ", INFO, true},
		{"warning", WARN, true},
		{"Error", ERROR, true},
		{"fatal", FATAL, true},
		{"verbose", INFO, false},
		{"", INFO, false},
	}
	for _, tt := range tests {
		got, ok := ParseLevel(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
