package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fulmenhq/autocheck/internal/check"
	"github.com/fulmenhq/autocheck/internal/session"
	"github.com/fulmenhq/autocheck/pkg/logger"
	"github.com/fulmenhq/autocheck/pkg/work"
)

// Runner is the top-level entry: classify, templates, documents, flush.
type Runner struct {
	Registry *check.Registry
	Store    session.Store
	Progress work.Progress
	DryRun   bool
}

// Run processes plan. Templates are checked first, then documents when
// there are any, then the store is flushed. Nothing is rolled back when a
// later stage fails. The returned session is the one to keep using; it
// equals sess when no document was processed.
func (r *Runner) Run(ctx context.Context, sess *session.Session, plan work.Plan) (*Report, *session.Session, error) {
	progress := r.Progress
	if progress == nil {
		progress = work.NopProgress{}
	}
	defer progress.Clear()
	if sess == nil {
		sess = session.NewEmpty(r.Store)
	}

	report := &Report{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		DryRun:    r.DryRun,
		Items:     []ItemResult{},
		Saved:     []string{},
	}
	log := logger.With(logger.String("run_id", report.RunID))
	log.Info("Run started",
		logger.Int("templates", len(plan.Templates)),
		logger.Int("documents", len(plan.Documents)),
		logger.Bool("dry_run", r.DryRun))

	visitor := check.NewVisitor(r.Registry,
		check.WithGuards(check.WithDetachedLink),
		check.WithLogger(log))

	finish := func(sess *session.Session, err error) (*Report, *session.Session, error) {
		report.FinishedAt = time.Now().UTC()
		if w, ok := r.Store.(interface{ Written() []string }); ok {
			report.Saved = append(report.Saved, w.Written()...)
		}
		if sess != nil {
			report.Session = sess.Snapshot()
		}
		if err != nil {
			report.Error = err.Error()
			log.Error("Run failed", logger.Err(err))
		} else {
			log.Info("Run finished",
				logger.Int("changed", report.Totals.Changed),
				logger.Int("unchanged", report.Totals.Unchanged),
				logger.Int("failed", report.Totals.Failed))
		}
		return report, sess, err
	}

	templates := &TemplatePipeline{Store: r.Store, Visitor: visitor, Progress: progress}
	items, err := templates.Run(ctx, plan.Templates)
	report.add(items...)
	if err != nil {
		return finish(sess, fmt.Errorf("template pipeline: %w", err))
	}

	if len(plan.Documents) > 0 {
		documents := &DocumentPipeline{Visitor: visitor, Progress: progress}
		restored, items, err := documents.Run(ctx, sess, plan.Documents)
		report.add(items...)
		sess = restored
		if err != nil {
			return finish(sess, fmt.Errorf("document pipeline: %w", err))
		}
	}

	if err := r.Store.Flush(); err != nil {
		return finish(sess, fmt.Errorf("flush: %w", err))
	}
	return finish(sess, nil)
}
