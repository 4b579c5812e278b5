// Package pipeline runs the checkers over templates and documents.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/fulmenhq/autocheck/internal/check"
	"github.com/fulmenhq/autocheck/internal/session"
	"github.com/fulmenhq/autocheck/pkg/logger"
	"github.com/fulmenhq/autocheck/pkg/work"
)

// Progress stage names.
const (
	StageTemplates = "Checking templates"
	StageDocuments = "Checking documents"
)

// TemplatePipeline checks standalone template files one at a time.
type TemplatePipeline struct {
	Store    session.Store
	Visitor  *check.Visitor
	Progress work.Progress
}

// Run loads each template, checks it and saves it only when a check
// changed its data. Unreadable templates are recorded as failed and
// skipped; a failing save or checker stops the run.
func (p *TemplatePipeline) Run(ctx context.Context, paths []string) ([]ItemResult, error) {
	progress := p.Progress
	if progress == nil {
		progress = work.NopProgress{}
	}

	results := make([]ItemResult, 0, len(paths))
	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		progress.Report(StageTemplates, i, len(paths), path)
		started := time.Now()

		tpl, err := p.Store.LoadTemplate(path)
		if err != nil {
			logger.Error("Failed to load template", logger.String("path", path), logger.Err(err))
			results = append(results, failedItem(path, KindTemplate, err, started))
			continue
		}

		res, err := visitGuarded(func() (check.Result, error) { return p.Visitor.Visit(tpl.Root, path) })
		if err != nil {
			results = append(results, failedItem(path, KindTemplate, err, started))
			return results, err
		}

		if res.HasChanges() {
			tpl.MarkDirty()
			if err := p.Store.SaveTemplate(tpl); err != nil {
				results = append(results, failedItem(path, KindTemplate, err, started))
				return results, err
			}
			logger.Info("Saved template", logger.String("path", path), logger.Int("changed", res.Changed))
		} else {
			logger.Debug("Template unchanged", logger.String("path", path))
		}
		results = append(results, newItem(path, KindTemplate, res, started))
	}
	return results, nil
}

// visitGuarded turns a panicking checker into an error.
func visitGuarded(visit func() (check.Result, error)) (res check.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("checker panic: %v", r)
		}
	}()
	return visit()
}
