package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"
	"time"
)

func TestLoggerCreation(t *testing.T) {
	// Set env vars for testing
	os.Setenv("CELL_ID", "cell-9")
	defer os.Unsetenv("CELL_ID")

	logger := New("test-component")

	if logger.component != "test-component" {
		t.Errorf("expected component 'test-component', got '%s'", logger.component)
	}
	if logger.cell != "cell-9" {
		t.Errorf("expected cell 'cell-9', got '%s'", logger.cell)
	}
}

func TestLoggerWithCell(t *testing.T) {
	logger := New("component").WithCell("cell-2")

	if logger.cell != "cell-2" {
		t.Errorf("expected cell 'cell-2', got '%s'", logger.cell)
	}
}

func TestLoggerWithMachine(t *testing.T) {
	logger := New("component").WithMachine("DMC1")

	if logger.machine != "DMC1" {
		t.Errorf("expected machine 'DMC1', got '%s'", logger.machine)
	}
}

func TestEventSerialization(t *testing.T) {
	event := Event{
		Timestamp: "2026-01-01T00:00:00Z",
		Level:     LevelInfo,
		Component: "test",
		Event:     "test_event",
		Cell:      "cell-1",
		Machine:   "DMC1",
		Duration:  100,
		Error:     "",
		Extra: map[string]interface{}{
			"key": "value",
		},
	}

	data, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("failed to marshal event: %v", err)
	}

	// Verify JSON structure
	var parsed map[string]interface{}
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("failed to unmarshal event: %v", err)
	}

	if parsed["level"] != "info" {
		t.Errorf("expected level 'info', got '%v'", parsed["level"])
	}
	if parsed["component"] != "test" {
		t.Errorf("expected component 'test', got '%v'", parsed["component"])
	}
	if parsed["duration_ms"].(float64) != 100 {
		t.Errorf("expected duration_ms 100, got '%v'", parsed["duration_ms"])
	}
}

func TestInfoEmitsJSONLine(t *testing.T) {
	var buf bytes.Buffer
	logger := New("planner").WithCell("cell-1").WithOutput(&buf)

	logger.Info("plan_batch_created", map[string]interface{}{"jobs": 7})

	var event Event
	if err := json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &event); err != nil {
		t.Fatalf("failed to parse output as JSON: %v (output: %s)", err, buf.String())
	}

	if event.Level != LevelInfo {
		t.Errorf("expected level 'info', got '%s'", event.Level)
	}
	if event.Component != "planner" {
		t.Errorf("expected component 'planner', got '%s'", event.Component)
	}
	if event.Event != "plan_batch_created" {
		t.Errorf("expected event 'plan_batch_created', got '%s'", event.Event)
	}
	if event.Cell != "cell-1" {
		t.Errorf("expected cell 'cell-1', got '%s'", event.Cell)
	}
	if event.Extra["jobs"].(float64) != 7 {
		t.Errorf("expected jobs 7, got '%v'", event.Extra["jobs"])
	}
}

func TestWarnCarriesError(t *testing.T) {
	var buf bytes.Buffer
	logger := New("provider").WithOutput(&buf)

	logger.Warn("source_unavailable", nil, errors.New("connection refused"))

	var event Event
	if err := json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &event); err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}

	if event.Level != LevelWarn {
		t.Errorf("expected level 'warn', got '%s'", event.Level)
	}
	if event.Error != "connection refused" {
		t.Errorf("expected error 'connection refused', got '%s'", event.Error)
	}
}

func TestTimedEvent(t *testing.T) {
	var buf bytes.Buffer
	logger := New("planner").WithOutput(&buf)

	start := time.Now().Add(-250 * time.Millisecond)
	logger.TimedEvent("plan_batch_created", start, nil)

	var event Event
	if err := json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &event); err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}

	if event.Duration < 250 {
		t.Errorf("expected duration >= 250ms, got %d", event.Duration)
	}
}
