package ui

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// ConsoleSink prints colored entries: info and success go to Out, warnings
// and errors to Err.
type ConsoleSink struct {
	Out     io.Writer
	Err     io.Writer
	Quiet   bool
	NoColor bool
}

// NewConsoleSink writes to the process stdout/stderr. Colors are disabled
// when noColor is set or stderr is not a terminal.
func NewConsoleSink(quiet, noColor bool) *ConsoleSink {
	if !isatty.IsTerminal(os.Stderr.Fd()) && !isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		noColor = true
	}
	return &ConsoleSink{
		Out:     colorable.NewColorableStdout(),
		Err:     colorable.NewColorableStderr(),
		Quiet:   quiet,
		NoColor: noColor,
	}
}

var levelColors = map[Level]color.Attribute{
	LevelDebug:   color.FgCyan,
	LevelInfo:    color.FgBlue,
	LevelSuccess: color.FgGreen,
	LevelWarning: color.FgYellow,
	LevelError:   color.FgRed,
}

func (s *ConsoleSink) Write(e Entry) {
	w := s.Out
	switch e.Level {
	case LevelWarning, LevelError:
		w = s.Err
	default:
		if s.Quiet {
			return
		}
	}

	c := color.New(levelColors[e.Level])
	if s.NoColor {
		c.DisableColor()
	} else {
		c.EnableColor()
	}
	fmt.Fprintln(w, c.Sprint("["+e.Level.String()+"] "+e.Message))
}

// FileSink appends entries as JSON lines to a log file
type FileSink struct {
	file *os.File
	log  zerolog.Logger
}

// NewFileSink opens path in append mode, creating it and its directory
func NewFileSink(path string) (*FileSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0640)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return &FileSink{
		file: file,
		log:  zerolog.New(file).With().Timestamp().Logger(),
	}, nil
}

func (s *FileSink) Write(e Entry) {
	ev := s.log.WithLevel(zerologLevel(e.Level))
	for _, f := range e.Fields {
		ev = ev.Str(f.Key, f.Value)
	}
	if e.Level == LevelSuccess {
		ev = ev.Bool("success", true)
	}
	ev.Msg(e.Message)
}

// Close closes the log file
func (s *FileSink) Close() error {
	return s.file.Close()
}

func zerologLevel(l Level) zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarning:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// MemorySink keeps every entry of the current process in memory; failure
// notifications attach its transcript.
type MemorySink struct {
	mu      sync.Mutex
	entries []Entry
}

// NewMemorySink creates an empty memory sink
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Write(e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
}

// Entries returns a copy of the recorded entries
func (s *MemorySink) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Entry(nil), s.entries...)
}

// String returns the recorded messages, one per line
func (s *MemorySink) String() string {
	var b strings.Builder
	for _, e := range s.Entries() {
		b.WriteString(e.Message)
		b.WriteByte('\n')
	}
	return b.String()
}

// Contains reports whether an entry of the given level has exactly msg
func (s *MemorySink) Contains(level Level, msg string) bool {
	for _, e := range s.Entries() {
		if e.Level == level && e.Message == msg {
			return true
		}
	}
	return false
}
