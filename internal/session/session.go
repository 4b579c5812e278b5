package session

import (
	"errors"
	"fmt"
	"path/filepath"

	"golang.org/x/text/unicode/norm"

	"github.com/fulmenhq/autocheck/internal/asset"
	"github.com/fulmenhq/autocheck/pkg/logger"
)

var (
	// ErrAlreadyOpen is returned when opening a document that is already
	// part of the session.
	ErrAlreadyOpen = errors.New("document is already open")
	// ErrUntitled is returned when saving a document that has no path.
	ErrUntitled = errors.New("document has never been saved")
	// ErrNotOpen is returned when closing a document that is not open.
	ErrNotOpen = errors.New("document is not open")
)

// OpenMode selects how Open treats documents already in the session.
type OpenMode int

const (
	// Single replaces every open document with the opened one.
	Single OpenMode = iota
	// Additive appends the opened document to the session.
	Additive
)

func (m OpenMode) String() string {
	if m == Additive {
		return "additive"
	}
	return "single"
}

// Key is the identity of a document path within a session.
func Key(path string) string {
	return norm.NFC.String(filepath.Clean(path))
}

// Session is the ordered set of open documents. The first document is the
// primary one. A session always holds at least one document.
type Session struct {
	store Store
	docs  []*asset.Document
}

// NewEmpty returns a session holding a single new untitled document.
func NewEmpty(store Store) *Session {
	return &Session{store: store, docs: []*asset.Document{asset.NewDocument("")}}
}

// Open loads path and places it in the session according to mode.
func (s *Session) Open(path string, mode OpenMode) (*asset.Document, error) {
	if path == "" {
		return nil, fmt.Errorf("open: %w", ErrUntitled)
	}
	if s.IsOpen(path) {
		return nil, fmt.Errorf("open %s: %w", path, ErrAlreadyOpen)
	}

	doc, err := s.store.LoadDocument(path)
	if err != nil {
		return nil, err
	}

	switch mode {
	case Additive:
		s.docs = append(s.docs, doc)
	default:
		for _, d := range s.docs {
			if d.Dirty() {
				logger.Warn("Discarding unsaved changes",
					logger.String("document", displayName(d)))
			}
		}
		s.docs = []*asset.Document{doc}
	}
	logger.Debug("Opened document", logger.String("path", path), logger.String("mode", mode.String()))
	return doc, nil
}

// Close removes path from the session. Closing the last document leaves a
// new untitled one in its place.
func (s *Session) Close(path string) error {
	key := Key(path)
	for i, d := range s.docs {
		if !d.Untitled() && Key(d.Path) == key {
			s.docs = append(s.docs[:i:i], s.docs[i+1:]...)
			if len(s.docs) == 0 {
				s.docs = []*asset.Document{asset.NewDocument("")}
			}
			return nil
		}
	}
	return fmt.Errorf("close %s: %w", path, ErrNotOpen)
}

// SaveOpen saves every dirty open document. Untitled documents cannot be
// saved and are skipped.
func (s *Session) SaveOpen() error {
	for _, d := range s.docs {
		if !d.Dirty() {
			continue
		}
		if d.Untitled() {
			logger.Warn("Skipping save of untitled document")
			continue
		}
		if err := s.store.SaveDocument(d); err != nil {
			return err
		}
	}
	return nil
}

// Snapshot returns the paths of open documents in order. Untitled
// documents cannot be reopened and are dropped.
func (s *Session) Snapshot() []string {
	var paths []string
	for _, d := range s.docs {
		if !d.Untitled() {
			paths = append(paths, d.Path)
		}
	}
	return paths
}

// IsOpen reports whether path is resident in the session.
func (s *Session) IsOpen(path string) bool {
	key := Key(path)
	for _, d := range s.docs {
		if !d.Untitled() && Key(d.Path) == key {
			return true
		}
	}
	return false
}

// Documents returns the open documents in order.
func (s *Session) Documents() []*asset.Document {
	return append([]*asset.Document(nil), s.docs...)
}

// Primary returns the first open document.
func (s *Session) Primary() *asset.Document { return s.docs[0] }

// Store returns the persistence layer the session loads through.
func (s *Session) Store() Store { return s.store }

// Restore builds a session from a snapshot: a new empty session, then
// snapshot[0] as primary and the rest added in order. Every path is
// attempted; failures are joined into the returned error.
func Restore(store Store, snapshot []string) (*Session, error) {
	s := NewEmpty(store)
	var errs []error
	for _, p := range snapshot {
		mode := Additive
		if len(s.Snapshot()) == 0 {
			mode = Single
		}
		if _, err := s.Open(p, mode); err != nil {
			errs = append(errs, fmt.Errorf("restore %s: %w", p, err))
		}
	}
	return s, errors.Join(errs...)
}

func displayName(d *asset.Document) string {
	if d.Untitled() {
		return "<untitled>"
	}
	return d.Path
}
