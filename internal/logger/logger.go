package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Level tags are colored when the output is a terminal. The file sink
// always gets plain text.
type styles struct {
	debug lipgloss.Style
	warn  lipgloss.Style
	err   lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		debug: r.NewStyle().Foreground(lipgloss.Color("#6e7681")),
		warn:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("#d29922")),
		err:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("#f85149")),
	}
}

// Logger handles leveled logging with optional file output
type Logger struct {
	Verbose bool
	writer  io.Writer
	errOut  io.Writer
	styles  styles
	errSty  styles
	mu      sync.Mutex
	fileLog *os.File
	hasBar  bool
}

// New creates a new Logger instance
func New(verbose bool) *Logger {
	l := &Logger{Verbose: verbose}
	l.SetOutput(os.Stdout, os.Stderr)
	return l
}

// SetOutput redirects console output. Errors go to errOut.
func (l *Logger) SetOutput(out, errOut io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writer = out
	l.errOut = errOut
	l.styles = newStyles(out)
	l.errSty = newStyles(errOut)
}

// SetFileLog enables logging to a file
func (l *Logger) SetFileLog(path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	l.fileLog = f
	return nil
}

// SetProgressBar indicates that a progress bar is active
func (l *Logger) SetProgressBar(active bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hasBar = active
}

// Close closes the log file if open
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.fileLog != nil {
		err := l.fileLog.Close()
		l.fileLog = nil
		return err
	}
	return nil
}

// Info logs informational messages
func (l *Logger) Info(format string, args ...interface{}) {
	l.log("INFO", format, args...)
}

// Debug logs detailed messages only in verbose mode
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.Verbose {
		l.log("DEBUG", format, args...)
	} else {
		// Always log debug to file even in non-verbose mode
		l.logToFile("DEBUG", format, args...)
	}
}

// Error logs error messages to stderr
func (l *Logger) Error(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	body := fmt.Sprintf(format, args...)
	fmt.Fprintf(l.errOut, "%s %s\n", l.errSty.err.Render("[ERROR]"), body)
	l.writeFile("ERROR", body)
}

// Warn logs warning messages
func (l *Logger) Warn(format string, args ...interface{}) {
	l.log("WARN", format, args...)
}

// log handles the actual logging
func (l *Logger) log(level, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	body := fmt.Sprintf(format, args...)

	// Write to stdout (unless we have a progress bar and not verbose)
	if l.Verbose || !l.hasBar {
		switch level {
		case "INFO":
			fmt.Fprintln(l.writer, body)
		case "DEBUG":
			fmt.Fprintf(l.writer, "%s %s\n", l.styles.debug.Render("[DEBUG]"), body)
		case "WARN":
			fmt.Fprintf(l.writer, "%s %s\n", l.styles.warn.Render("[WARN]"), body)
		}
	}

	l.writeFile(level, body)
}

// logToFile writes only to file
func (l *Logger) logToFile(level, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fileLog != nil {
		l.writeFile(level, fmt.Sprintf(format, args...))
	}
}

// writeFile appends a timestamped line; callers hold mu.
func (l *Logger) writeFile(level, body string) {
	if l.fileLog == nil {
		return
	}
	fmt.Fprintf(l.fileLog, "%s [%s] %s\n", time.Now().Format(time.RFC3339), level, body)
}
