package pipeline

import (
	"time"

	"github.com/fulmenhq/autocheck/internal/check"
)

// Kind is the asset family of a processed item.
type Kind string

const (
	KindTemplate Kind = "template"
	KindDocument Kind = "document"
)

// Status is the outcome of one processed item.
type Status string

const (
	StatusChanged   Status = "changed"
	StatusUnchanged Status = "unchanged"
	StatusFailed    Status = "failed"
)

// ItemResult records what happened to one input path.
type ItemResult struct {
	Path     string          `json:"path" yaml:"path" toml:"path"`
	Kind     Kind            `json:"kind" yaml:"kind" toml:"kind"`
	Status   Status          `json:"status" yaml:"status" toml:"status"`
	Invoked  int             `json:"invoked" yaml:"invoked" toml:"invoked"`
	Changed  int             `json:"changed" yaml:"changed" toml:"changed"`
	Failures []check.Failure `json:"failures,omitempty" yaml:"failures,omitempty" toml:"failures,omitempty"`
	Error    string          `json:"error,omitempty" yaml:"error,omitempty" toml:"error,omitempty"`
	Duration time.Duration   `json:"duration_ns" yaml:"duration_ns" toml:"duration_ns"`
}

func newItem(path string, kind Kind, res check.Result, started time.Time) ItemResult {
	status := StatusUnchanged
	if res.HasChanges() {
		status = StatusChanged
	}
	return ItemResult{
		Path:     path,
		Kind:     kind,
		Status:   status,
		Invoked:  res.Invoked,
		Changed:  res.Changed,
		Failures: res.Failures,
		Duration: time.Since(started),
	}
}

func failedItem(path string, kind Kind, err error, started time.Time) ItemResult {
	return ItemResult{
		Path:     path,
		Kind:     kind,
		Status:   StatusFailed,
		Error:    err.Error(),
		Duration: time.Since(started),
	}
}

// Totals aggregates item results.
type Totals struct {
	Templates     int `json:"templates" yaml:"templates" toml:"templates"`
	Documents     int `json:"documents" yaml:"documents" toml:"documents"`
	Changed       int `json:"changed" yaml:"changed" toml:"changed"`
	Unchanged     int `json:"unchanged" yaml:"unchanged" toml:"unchanged"`
	Failed        int `json:"failed" yaml:"failed" toml:"failed"`
	Invoked       int `json:"invoked" yaml:"invoked" toml:"invoked"`
	CheckFailures int `json:"check_failures" yaml:"check_failures" toml:"check_failures"`
}

// Report is the outcome of one orchestrated run.
type Report struct {
	RunID      string       `json:"run_id" yaml:"run_id" toml:"run_id"`
	StartedAt  time.Time    `json:"started_at" yaml:"started_at" toml:"started_at"`
	FinishedAt time.Time    `json:"finished_at" yaml:"finished_at" toml:"finished_at"`
	DryRun     bool         `json:"dry_run" yaml:"dry_run" toml:"dry_run"`
	Items      []ItemResult `json:"items" yaml:"items" toml:"items"`
	Saved      []string     `json:"saved" yaml:"saved" toml:"saved"`
	Session    []string     `json:"session" yaml:"session" toml:"session"`
	Totals     Totals       `json:"totals" yaml:"totals" toml:"totals"`
	Error      string       `json:"error,omitempty" yaml:"error,omitempty" toml:"error,omitempty"`
}

// Duration is the wall time of the run.
func (r *Report) Duration() time.Duration { return r.FinishedAt.Sub(r.StartedAt) }

// HasFailures reports whether any item failed or any check could not be
// applied.
func (r *Report) HasFailures() bool {
	return r.Totals.Failed > 0 || r.Totals.CheckFailures > 0 || r.Error != ""
}

func (r *Report) add(items ...ItemResult) {
	for _, it := range items {
		r.Items = append(r.Items, it)
		switch it.Kind {
		case KindTemplate:
			r.Totals.Templates++
		case KindDocument:
			r.Totals.Documents++
		}
		switch it.Status {
		case StatusChanged:
			r.Totals.Changed++
		case StatusUnchanged:
			r.Totals.Unchanged++
		case StatusFailed:
			r.Totals.Failed++
		}
		r.Totals.Invoked += it.Invoked
		r.Totals.CheckFailures += len(it.Failures)
	}
}
