package ui

import (
	"fmt"
	"sort"
)

// Level is the severity of a log entry
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelSuccess
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelSuccess:
		return "SUCCESS"
	case LevelWarning:
		return "WARNING"
	default:
		return "ERROR"
	}
}

// Field is a key/value pair attached to entries by Logger.With
type Field struct {
	Key   string
	Value string
}

// Entry is one formatted log message
type Entry struct {
	Level   Level
	Message string
	Fields  []Field
}

// Sink receives every entry emitted by a Logger
type Sink interface {
	Write(e Entry)
}

// Logger formats messages and fans them out to its sinks
type Logger struct {
	Verbose bool

	sinks  []Sink
	fields []Field
}

// NewLogger creates a new logger writing to sinks
func NewLogger(verbose bool, sinks ...Sink) *Logger {
	return &Logger{
		Verbose: verbose,
		sinks:   sinks,
	}
}

// SetSinks replaces all sinks
func (l *Logger) SetSinks(sinks ...Sink) {
	l.sinks = sinks
}

// With returns a logger that shares the sinks and tags every entry with
// key=value
func (l *Logger) With(key, value string) *Logger {
	fields := append(append([]Field(nil), l.fields...), Field{Key: key, Value: value})
	sort.SliceStable(fields, func(i, j int) bool { return fields[i].Key < fields[j].Key })
	return &Logger{
		Verbose: l.Verbose,
		sinks:   l.sinks,
		fields:  fields,
	}
}

func (l *Logger) emit(level Level, format string, args []interface{}) {
	e := Entry{
		Level:   level,
		Message: fmt.Sprintf(format, args...),
		Fields:  l.fields,
	}
	for _, s := range l.sinks {
		s.Write(e)
	}
}

// Info logs an informational message
func (l *Logger) Info(format string, args ...interface{}) {
	l.emit(LevelInfo, format, args)
}

// Success logs a success message
func (l *Logger) Success(format string, args ...interface{}) {
	l.emit(LevelSuccess, format, args)
}

// Warning logs a warning message
func (l *Logger) Warning(format string, args ...interface{}) {
	l.emit(LevelWarning, format, args)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.emit(LevelError, format, args)
}

// Debug logs a debug message (only if verbose is enabled)
func (l *Logger) Debug(format string, args ...interface{}) {
	if !l.Verbose {
		return
	}
	l.emit(LevelDebug, format, args)
}
