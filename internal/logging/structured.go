// Package logging provides structured JSON logging for planner components.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// Level represents log severity
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Event represents a structured log event
type Event struct {
	Timestamp string                 `json:"ts"`
	Level     Level                  `json:"level"`
	Component string                 `json:"component"`
	Event     string                 `json:"event"`
	Cell      string                 `json:"cell,omitempty"`
	Machine   string                 `json:"machine,omitempty"`
	Duration  int64                  `json:"duration_ms,omitempty"`
	Error     string                 `json:"error,omitempty"`
	Extra     map[string]interface{} `json:"extra,omitempty"`
}

// Logger provides structured logging
type Logger struct {
	component string
	cell      string
	machine   string
	out       io.Writer
}

// New creates a new logger for a component
func New(component string) *Logger {
	return &Logger{
		component: component,
		cell:      os.Getenv("CELL_ID"),
		out:       os.Stderr,
	}
}

// WithCell sets the cell context
func (l *Logger) WithCell(cell string) *Logger {
	c := *l
	c.cell = cell
	return &c
}

// WithMachine sets the machine context
func (l *Logger) WithMachine(machine string) *Logger {
	c := *l
	c.machine = machine
	return &c
}

// WithOutput redirects log output (for testing).
func (l *Logger) WithOutput(w io.Writer) *Logger {
	c := *l
	c.out = w
	return &c
}

// log emits a structured log event
func (l *Logger) log(level Level, event string, extra map[string]interface{}, err error) {
	e := Event{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     level,
		Component: l.component,
		Event:     event,
		Cell:      l.cell,
		Machine:   l.machine,
		Extra:     extra,
	}

	if err != nil {
		e.Error = err.Error()
	}

	data, _ := json.Marshal(e)
	fmt.Fprintln(l.out, string(data))
}

// Debug logs a debug event
func (l *Logger) Debug(event string, extra map[string]interface{}) {
	l.log(LevelDebug, event, extra, nil)
}

// Info logs an info event
func (l *Logger) Info(event string, extra map[string]interface{}) {
	l.log(LevelInfo, event, extra, nil)
}

// Warn logs a warning event
func (l *Logger) Warn(event string, extra map[string]interface{}, err error) {
	l.log(LevelWarn, event, extra, err)
}

// Error logs an error event
func (l *Logger) Error(event string, extra map[string]interface{}, err error) {
	l.log(LevelError, event, extra, err)
}

// TimedEvent logs an info event with elapsed duration
func (l *Logger) TimedEvent(event string, start time.Time, extra map[string]interface{}) {
	e := Event{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     LevelInfo,
		Component: l.component,
		Event:     event,
		Cell:      l.cell,
		Machine:   l.machine,
		Duration:  time.Since(start).Milliseconds(),
		Extra:     extra,
	}
	data, _ := json.Marshal(e)
	fmt.Fprintln(l.out, string(data))
}
