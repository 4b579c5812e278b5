package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fulmenhq/autocheck/internal/check"
	"github.com/fulmenhq/autocheck/internal/session"
	"github.com/fulmenhq/autocheck/pkg/logger"
	"github.com/fulmenhq/autocheck/pkg/work"
)

// DocumentPipeline checks composite documents while preserving the set of
// documents the user had open.
type DocumentPipeline struct {
	Visitor  *check.Visitor
	Progress work.Progress
}

// Run snapshots sess, saves its dirty documents, isolates it, checks each
// path as the sole open document, and finally reopens the snapshot. The
// returned session replaces sess; it is the restored one on every return
// path, including errors and cancellation.
func (p *DocumentPipeline) Run(ctx context.Context, sess *session.Session, paths []string) (restored *session.Session, results []ItemResult, err error) {
	progress := p.Progress
	if progress == nil {
		progress = work.NopProgress{}
	}
	store := sess.Store()

	snapshot := sess.Snapshot()
	logger.Debug("Session snapshot", logger.Int("documents", len(snapshot)))

	if err := sess.SaveOpen(); err != nil {
		return sess, nil, fmt.Errorf("save open documents: %w", err)
	}

	current := session.NewEmpty(store)
	defer func() {
		r, rerr := session.Restore(store, snapshot)
		restored = r
		if rerr != nil {
			logger.Error("Session restore incomplete", logger.Err(rerr))
			err = errors.Join(err, fmt.Errorf("restore session: %w", rerr))
		}
	}()

	results = make([]ItemResult, 0, len(paths))
	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, results, err
		}
		progress.Report(StageDocuments, i, len(paths), path)
		started := time.Now()

		if current.IsOpen(path) {
			current = session.NewEmpty(store)
		}
		doc, err := current.Open(path, session.Single)
		if err != nil {
			logger.Error("Failed to open document", logger.String("path", path), logger.Err(err))
			results = append(results, failedItem(path, KindDocument, err, started))
			continue
		}

		res, err := visitGuarded(func() (check.Result, error) { return p.Visitor.VisitDocument(doc, path) })
		if err != nil {
			results = append(results, failedItem(path, KindDocument, err, started))
			return nil, results, err
		}

		if res.HasChanges() {
			doc.MarkDirty()
			if err := current.SaveOpen(); err != nil {
				results = append(results, failedItem(path, KindDocument, err, started))
				return nil, results, err
			}
			logger.Info("Saved document", logger.String("path", path), logger.Int("changed", res.Changed))
		} else {
			logger.Info("Document unchanged", logger.String("path", path))
		}
		results = append(results, newItem(path, KindDocument, res, started))
	}
	return nil, results, nil
}
