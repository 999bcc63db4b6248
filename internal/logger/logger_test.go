package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newBuffered(verbose bool) (*Logger, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	l := New(verbose)
	l.SetOutput(&out, &errOut)
	return l, &out, &errOut
}

func TestLevels(t *testing.T) {
	l, out, errOut := newBuffered(false)

	l.Info("scored %s", "orca")
	l.Debug("hidden")
	l.Warn("slow request")
	l.Error("broken %d", 42)

	got := out.String()
	if !strings.Contains(got, "scored orca\n") {
		t.Errorf("info missing: %q", got)
	}
	if strings.Contains(got, "hidden") {
		t.Errorf("debug printed in non-verbose mode: %q", got)
	}
	if !strings.Contains(got, "[WARN] slow request") {
		t.Errorf("warn missing: %q", got)
	}
	if !strings.Contains(errOut.String(), "[ERROR] broken 42") {
		t.Errorf("error missing from stderr: %q", errOut.String())
	}
}

func TestVerboseDebug(t *testing.T) {
	l, out, _ := newBuffered(true)
	l.Debug("frame %d", 7)
	if !strings.Contains(out.String(), "[DEBUG] frame 7") {
		t.Errorf("debug missing: %q", out.String())
	}
}

func TestProgressBarSuppressesConsole(t *testing.T) {
	l, out, _ := newBuffered(false)
	l.SetProgressBar(true)
	l.Info("quiet")
	if out.Len() != 0 {
		t.Errorf("expected no console output with active bar, got %q", out.String())
	}
}

func TestFileLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	l, _, _ := newBuffered(false)
	if err := l.SetFileLog(path); err != nil {
		t.Fatal(err)
	}

	l.Info("hello")
	l.Debug("details")
	l.Error("bad")
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	for _, want := range []string{"[INFO] hello", "[DEBUG] details", "[ERROR] bad"} {
		if !strings.Contains(content, want) {
			t.Errorf("log file missing %q: %q", want, content)
		}
	}
}
