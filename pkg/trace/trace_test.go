package trace

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bgpsim/bgpsim/pkg/bgp"
	"github.com/bgpsim/bgpsim/pkg/eventqueue"
	"github.com/bgpsim/bgpsim/pkg/ids"
	"github.com/bgpsim/bgpsim/pkg/simfmt"
)

func TestEvent_New(t *testing.T) {
	event := NewEvent("r1", "bgp")

	if event.Router != "r1" {
		t.Errorf("Router = %q, want %q", event.Router, "r1")
	}
	if event.Kind != "bgp" {
		t.Errorf("Kind = %q, want %q", event.Kind, "bgp")
	}
	if event.ID == "" {
		t.Error("ID should not be empty")
	}
	if event.Timestamp.IsZero() {
		t.Error("Timestamp should be set")
	}
}

func TestEvent_Chaining(t *testing.T) {
	event := NewEvent("r1", "bgp").
		WithNeighbor("r2").
		WithPrefix("P0").
		WithDetail("Update [prefix: P0]").
		WithSuccess().
		WithDuration(time.Second)

	if event.Neighbor != "r2" {
		t.Errorf("Neighbor = %q", event.Neighbor)
	}
	if event.Prefix != "P0" {
		t.Errorf("Prefix = %q", event.Prefix)
	}
	if event.Detail == "" {
		t.Error("Detail should be set")
	}
	if !event.Success {
		t.Error("Success should be true")
	}
	if event.Duration != time.Second {
		t.Errorf("Duration = %v", event.Duration)
	}
}

func TestEvent_WithError(t *testing.T) {
	event := NewEvent("r1", "bgp").WithError(errors.New("session reset"))

	if event.Success {
		t.Error("Success should be false")
	}
	if event.Error != "session reset" {
		t.Errorf("Error = %q", event.Error)
	}

	event2 := NewEvent("r1", "bgp").WithError(nil)
	if event2.Success {
		t.Error("Success should be false even with nil error")
	}
	if event2.Error != "" {
		t.Errorf("Error should be empty with nil error, got %q", event2.Error)
	}
}

func TestFromDispatch(t *testing.T) {
	names := map[ids.RouterID]string{1: "r1", 2: "r2"}
	res := simfmt.Resolver(func(id ids.RouterID) string { return names[id] })

	e := eventqueue.LinkUp(1, 2)
	ev := FromDispatch(res, e)

	if ev.Router != "r1" {
		t.Errorf("Router = %q, want %q", ev.Router, "r1")
	}
	if ev.Neighbor != "r2" {
		t.Errorf("Neighbor = %q, want %q", ev.Neighbor, "r2")
	}
	if ev.Kind != "link_up" {
		t.Errorf("Kind = %q, want %q", ev.Kind, "link_up")
	}
	if !ev.Success {
		t.Error("FromDispatch should mark events as successful")
	}
	if ev.Detail == "" {
		t.Error("Detail should be rendered")
	}
}

func TestFromDispatch_Advertise(t *testing.T) {
	names := map[ids.RouterID]string{1: "r1"}
	res := simfmt.Resolver(func(id ids.RouterID) string { return names[id] })

	prefix := ids.SimplePrefix(0)
	route := &bgp.Route{Prefix: prefix, ASPath: []ids.ASID{65010}, NextHop: 1}
	e := eventqueue.Advertise(1, route)
	ev := FromDispatch(res, e)

	if ev.Prefix != prefix.String() {
		t.Errorf("Prefix = %q, want %q", ev.Prefix, prefix.String())
	}
	if ev.Neighbor != "" {
		t.Errorf("Neighbor should be empty for a self-originated advertise, got %q", ev.Neighbor)
	}
}

func TestFileLogger_Basic(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "trace-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	logPath := filepath.Join(tmpDir, "trace.log")
	logger, err := NewFileLogger(logPath, RotationConfig{})
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	defer logger.Close()

	event := NewEvent("r1", "bgp").WithNeighbor("r2").WithSuccess()
	if err := logger.Log(event); err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	events, err := logger.Query(Filter{})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(events))
	}
	if events[0].Router != "r1" {
		t.Errorf("Router = %q, want %q", events[0].Router, "r1")
	}
}

func TestFileLogger_QueryFilters(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "trace-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	logPath := filepath.Join(tmpDir, "trace.log")
	logger, err := NewFileLogger(logPath, RotationConfig{})
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	defer logger.Close()

	events := []*Event{
		NewEvent("r1", "bgp").WithNeighbor("r2").WithSuccess(),
		NewEvent("r1", "config").WithSuccess(),
		NewEvent("r2", "bgp").WithNeighbor("r1").WithError(errors.New("reset")),
		NewEvent("r3", "bgp").WithNeighbor("r1").WithSuccess(),
	}
	for _, e := range events {
		if err := logger.Log(e); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	t.Run("filter by router", func(t *testing.T) {
		results, _ := logger.Query(Filter{Router: "r1"})
		if len(results) != 2 {
			t.Errorf("Expected 2 events for r1, got %d", len(results))
		}
	})

	t.Run("filter by neighbor", func(t *testing.T) {
		results, _ := logger.Query(Filter{Neighbor: "r1"})
		if len(results) != 2 {
			t.Errorf("Expected 2 events with neighbor r1, got %d", len(results))
		}
	})

	t.Run("filter by kind", func(t *testing.T) {
		results, _ := logger.Query(Filter{Kind: "bgp"})
		if len(results) != 3 {
			t.Errorf("Expected 3 bgp events, got %d", len(results))
		}
	})

	t.Run("filter success only", func(t *testing.T) {
		results, _ := logger.Query(Filter{SuccessOnly: true})
		if len(results) != 3 {
			t.Errorf("Expected 3 successful events, got %d", len(results))
		}
	})

	t.Run("filter failure only", func(t *testing.T) {
		results, _ := logger.Query(Filter{FailureOnly: true})
		if len(results) != 1 {
			t.Errorf("Expected 1 failed event, got %d", len(results))
		}
	})

	t.Run("filter with limit", func(t *testing.T) {
		results, _ := logger.Query(Filter{Limit: 2})
		if len(results) != 2 {
			t.Errorf("Expected 2 events with limit, got %d", len(results))
		}
	})

	t.Run("filter with offset", func(t *testing.T) {
		results, _ := logger.Query(Filter{Offset: 2})
		if len(results) != 2 {
			t.Errorf("Expected 2 events with offset, got %d", len(results))
		}
	})
}

func TestFileLogger_QueryTimeFilter(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "trace-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	logPath := filepath.Join(tmpDir, "trace.log")
	logger, err := NewFileLogger(logPath, RotationConfig{})
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	defer logger.Close()

	logger.Log(NewEvent("r1", "bgp").WithSuccess())

	results, _ := logger.Query(Filter{
		StartTime: time.Now().Add(-time.Hour),
		EndTime:   time.Now().Add(time.Hour),
	})
	if len(results) != 1 {
		t.Errorf("Expected 1 event in time range, got %d", len(results))
	}

	results, _ = logger.Query(Filter{StartTime: time.Now().Add(time.Hour)})
	if len(results) != 0 {
		t.Errorf("Expected 0 events outside time range, got %d", len(results))
	}
}

func TestFileLogger_NonExistentFile(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "trace-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	logPath := filepath.Join(tmpDir, "nonexistent", "trace.log")
	logger, err := NewFileLogger(logPath, RotationConfig{})
	if err != nil {
		t.Fatalf("NewFileLogger should create directories: %v", err)
	}
	defer logger.Close()
}

func TestFileLogger_QueryNonExistent(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "trace-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	logger, _ := NewFileLogger(filepath.Join(tmpDir, "other.log"), RotationConfig{})
	defer logger.Close()
	os.Remove(filepath.Join(tmpDir, "other.log"))

	results, err := logger.Query(Filter{})
	if err != nil {
		t.Errorf("Query on non-existent should not error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Expected 0 events, got %d", len(results))
	}
}

func TestDefaultLogger(t *testing.T) {
	SetDefaultLogger(nil)

	if err := Log(NewEvent("r1", "bgp")); err != nil {
		t.Errorf("Log with nil default should not error: %v", err)
	}
	results, err := Query(Filter{})
	if err != nil {
		t.Errorf("Query with nil default should not error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Expected 0 results, got %d", len(results))
	}

	tmpDir, err := os.MkdirTemp("", "trace-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	logPath := filepath.Join(tmpDir, "trace.log")
	logger, err := NewFileLogger(logPath, RotationConfig{})
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	defer logger.Close()

	SetDefaultLogger(logger)

	if err := Log(NewEvent("r1", "bgp").WithSuccess()); err != nil {
		t.Errorf("Log failed: %v", err)
	}
	results, err = Query(Filter{})
	if err != nil {
		t.Errorf("Query failed: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("Expected 1 result, got %d", len(results))
	}

	SetDefaultLogger(nil)
}

func TestFileLogger_LogRotation(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "trace-rotation-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	logPath := filepath.Join(tmpDir, "trace.log")
	logger, err := NewFileLogger(logPath, RotationConfig{MaxSize: 100, MaxBackups: 2})
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	defer logger.Close()

	for i := 0; i < 5; i++ {
		event := NewEvent("r1", "bgp").WithNeighbor("r2").WithSuccess()
		if err := logger.Log(event); err != nil {
			t.Fatalf("Log failed on iteration %d: %v", i, err)
		}
	}

	matches, err := filepath.Glob(filepath.Join(tmpDir, "trace.log.*"))
	if err != nil {
		t.Fatalf("Glob failed: %v", err)
	}
	if len(matches) == 0 {
		t.Error("Expected rotation to create backup files")
	}
}

func TestFileLogger_RotationWithCleanup(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "trace-cleanup-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	logPath := filepath.Join(tmpDir, "trace.log")
	logger, err := NewFileLogger(logPath, RotationConfig{MaxSize: 50, MaxBackups: 2})
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	defer logger.Close()

	for i := 0; i < 10; i++ {
		if err := logger.Log(NewEvent("r1", "bgp")); err != nil {
			t.Fatalf("Log failed on iteration %d: %v", i, err)
		}
	}

	matches, err := filepath.Glob(filepath.Join(tmpDir, "trace.log.*"))
	if err != nil {
		t.Fatalf("Glob failed: %v", err)
	}
	if len(matches) > 2 {
		t.Errorf("Expected at most 2 backup files, got %d", len(matches))
	}
}

func TestFileLogger_NewFileLoggerOpenError(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "trace-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	logPath := filepath.Join(tmpDir, "trace.log")
	if err := os.Mkdir(logPath, 0755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}

	_, err = NewFileLogger(logPath, RotationConfig{})
	if err == nil {
		t.Error("NewFileLogger should fail when log path is a directory")
	}
}

func TestFileLogger_QueryMalformedJSON(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "trace-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	logPath := filepath.Join(tmpDir, "trace.log")
	content := `{"router":"r1","kind":"bgp","success":true}
invalid json line
{"router":"r2","kind":"bgp","success":true}
`
	if err := os.WriteFile(logPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test data: %v", err)
	}

	logger, err := NewFileLogger(logPath, RotationConfig{})
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	defer logger.Close()

	results, err := logger.Query(Filter{})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("Expected 2 valid events (skipping malformed), got %d", len(results))
	}
}

func TestFileLogger_CloseNilFile(t *testing.T) {
	logger := &FileLogger{path: "/tmp/trace-test.log", file: nil}
	if err := logger.Close(); err != nil {
		t.Errorf("Close() with nil file should not error: %v", err)
	}
}

func TestFileLogger_QueryReadError(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "trace-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	logDir := filepath.Join(tmpDir, "trace.log")
	if err := os.Mkdir(logDir, 0755); err != nil {
		t.Fatalf("Failed to create dir: %v", err)
	}

	realLogPath := filepath.Join(tmpDir, "real.log")
	logger, err := NewFileLogger(realLogPath, RotationConfig{})
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	logger.path = logDir

	_, err = logger.Query(Filter{})
	if err == nil {
		t.Error("Query should fail when trying to read a directory")
	}
}
