package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/fulmenhq/autocheck/internal/pipeline"
	"github.com/fulmenhq/autocheck/pkg/ascii"
)

func (f *Formatter) formatText(r *pipeline.Report) string {
	var sb strings.Builder

	pathWidth := len("PATH")
	for _, it := range r.Items {
		if w := ascii.StringWidth(it.Path); w > pathWidth {
			pathWidth = w
		}
	}
	if f.width > 0 && pathWidth > f.width {
		pathWidth = f.width
	}

	if len(r.Items) > 0 {
		fmt.Fprintf(&sb, "%s  %-8s  %-9s  %7s  %7s\n",
			ascii.PadRight("PATH", pathWidth), "KIND", "STATUS", "CHECKS", "CHANGED")
		for _, it := range r.Items {
			// pad before painting so escape codes do not skew the columns
			status := f.status(it.Status) + strings.Repeat(" ", max(0, 9-len(it.Status)))
			fmt.Fprintf(&sb, "%s  %-8s  %s  %7d  %7d\n",
				ascii.PadRight(ascii.TruncateLeft(it.Path, pathWidth), pathWidth),
				it.Kind, status, it.Invoked, it.Changed)
		}
		sb.WriteString("\n")
	}

	for _, it := range failingItems(r) {
		fmt.Fprintf(&sb, "%s %s\n", f.paint("31", "✗"), it.Path)
		if it.Error != "" {
			fmt.Fprintf(&sb, "    %s\n", it.Error)
		}
		for _, fl := range it.Failures {
			fmt.Fprintf(&sb, "    %s on %s: %s\n", fl.Behavior, fl.Node, fl.Error)
		}
	}

	title := "autocheck run"
	if r.DryRun {
		title += " (dry run)"
	}
	lines := []string{
		title,
		fmt.Sprintf("templates: %d  documents: %d", r.Totals.Templates, r.Totals.Documents),
		fmt.Sprintf("changed: %d  unchanged: %d  failed: %d", r.Totals.Changed, r.Totals.Unchanged, r.Totals.Failed),
		fmt.Sprintf("checks: %d  check failures: %d", r.Totals.Invoked, r.Totals.CheckFailures),
		fmt.Sprintf("saved: %d  duration: %s", len(r.Saved), formatDuration(r.Duration())),
	}
	if r.Error != "" {
		lines = append(lines, "error: "+ascii.Truncate(r.Error, 72))
	}
	sb.WriteString(ascii.Box(lines))
	return sb.String()
}

func (f *Formatter) formatConcise(r *pipeline.Report) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s changed=%d unchanged=%d failed=%d | time: %s\n",
		f.paint("1", "Autocheck"), r.Totals.Changed, r.Totals.Unchanged, r.Totals.Failed, formatDuration(r.Duration()))
	for _, it := range r.Items {
		if it.Status == pipeline.StatusUnchanged && len(it.Failures) == 0 {
			continue
		}
		fmt.Fprintf(&sb, " - %s: %s\n", it.Path, f.status(it.Status))
	}
	if r.Error != "" {
		fmt.Fprintf(&sb, " - error: %s\n", r.Error)
	}
	return sb.String()
}

func formatDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "0s"
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	default:
		return d.Round(10 * time.Millisecond).String()
	}
}
