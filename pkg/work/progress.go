package work

import (
	"sync"

	"github.com/fulmenhq/autocheck/pkg/logger"
)

// Progress receives per-item progress from the pipelines
type Progress interface {
	Report(stage string, current, total int, path string)
	Clear()
}

// NopProgress discards progress.
type NopProgress struct{}

func (NopProgress) Report(string, int, int, string) {}
func (NopProgress) Clear()                          {}

// LogProgress writes progress as debug log lines.
type LogProgress struct {
	mu    sync.Mutex
	stage string
}

func (l *LogProgress) Report(stage string, current, total int, path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if stage != l.stage {
		logger.Info(stage, logger.Int("total", total))
		l.stage = stage
	}
	logger.Debug(stage,
		logger.Int("current", current+1),
		logger.Int("total", total),
		logger.String("path", path))
}

func (l *LogProgress) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stage = ""
}

// RecordingProgress keeps every report in memory.
type RecordingProgress struct {
	mu      sync.Mutex
	Events  []ProgressEvent
	Cleared int
}

// ProgressEvent is one Report call.
type ProgressEvent struct {
	Stage   string
	Current int
	Total   int
	Path    string
}

func (r *RecordingProgress) Report(stage string, current, total int, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, ProgressEvent{Stage: stage, Current: current, Total: total, Path: path})
}

func (r *RecordingProgress) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Cleared++
}
