// Package telemetry is loom's structured audit trail: a category-based
// JSON-line event log, one file per category under a workspace
// directory, describing sketch/oracle/engine activity. It is a no-op
// until Initialize is called with a workspace path. No other package in
// this module calls Record; the CLI only initializes and closes the trail.
package telemetry

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Category names one of the event streams a synthesis run produces.
type Category string

const (
	// CategoryStep records steps offered and applied by the PBN controller.
	CategoryStep Category = "step"
	// CategoryOracle records Datalog inhabitation-oracle queries and the
	// rule cuts they perform.
	CategoryOracle Category = "oracle"
	// CategoryEnumerate records enumerative-synthesizer frontier expansions.
	CategoryEnumerate Category = "enumerate"
	// CategoryEngine records mangleengine loads, queries, and savepoints.
	CategoryEngine Category = "engine"
	// CategoryTimer records timer expirations (early cutoffs).
	CategoryTimer Category = "timer"
)

// Event is one structured log line. Fields is event-specific payload
// (e.g. {"hole": 3, "function": "double"} for a step event).
type Event struct {
	ID        string         `json:"id"`
	Timestamp int64          `json:"ts"`
	Category  string         `json:"cat"`
	Message   string         `json:"msg"`
	Fields    map[string]any `json:"fields,omitempty"`
}

var (
	mu        sync.Mutex
	workspace string
	loggers   = map[Category]*log.Logger{}
	files     = map[Category]*os.File{}
)

// Initialize points telemetry at a workspace directory: events are
// appended to <ws>/.loom/logs/<category>.jsonl, one file per category,
// created lazily on first use. Calling Initialize("") (or never calling
// it) disables telemetry: Record becomes a silent no-op.
func Initialize(ws string) error {
	mu.Lock()
	defer mu.Unlock()

	CloseAllLocked()
	workspace = ws
	if workspace == "" {
		return nil
	}
	return os.MkdirAll(filepath.Join(workspace, ".loom", "logs"), 0o755)
}

func loggerFor(cat Category) *log.Logger {
	if l, ok := loggers[cat]; ok {
		return l
	}
	path := filepath.Join(workspace, ".loom", "logs", string(cat)+".jsonl")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "telemetry: could not open log file %s: %v\n", path, err)
		return nil
	}
	l := log.New(f, "", 0)
	loggers[cat] = l
	files[cat] = f
	return l
}

// Record appends a structured event to cat's log, stamping it with a
// fresh correlation ID and the current time. It is a silent no-op if
// Initialize has not been called with a non-empty workspace.
func Record(cat Category, msg string, fields map[string]any) {
	mu.Lock()
	defer mu.Unlock()

	if workspace == "" {
		return
	}
	l := loggerFor(cat)
	if l == nil {
		return
	}
	ev := Event{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UnixMilli(),
		Category:  string(cat),
		Message:   msg,
		Fields:    fields,
	}
	data, err := json.Marshal(ev)
	if err != nil {
		l.Printf(`{"cat":%q,"msg":%q}`, cat, msg)
		return
	}
	l.Printf("%s", data)
}

// CloseAll flushes and closes every open log file. Safe to call when
// telemetry was never initialized.
func CloseAll() {
	mu.Lock()
	defer mu.Unlock()
	CloseAllLocked()
}

// CloseAllLocked is CloseAll without acquiring mu; callers must already
// hold it.
func CloseAllLocked() {
	for cat, f := range files {
		f.Close()
		delete(files, cat)
	}
	loggers = map[Category]*log.Logger{}
}
