// Package session manages the set of open composite documents and the
// persistence layer that loads and saves assets.
package session

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/fulmenhq/autocheck/internal/asset"
	"github.com/fulmenhq/autocheck/pkg/logger"
	"github.com/fulmenhq/autocheck/pkg/safeio"
)

// Store is the persistence layer for templates and documents.
type Store interface {
	LoadTemplate(path string) (*asset.Template, error)
	SaveTemplate(t *asset.Template) error
	LoadDocument(path string) (*asset.Document, error)
	SaveDocument(d *asset.Document) error
	// Flush saves every loaded asset that is still marked dirty.
	Flush() error
}

// FileStore reads and writes assets on the local filesystem. In read-only
// mode saves are logged and recorded but nothing is written.
type FileStore struct {
	mu        sync.Mutex
	readOnly  bool
	templates map[string]*asset.Template
	documents map[string]*asset.Document
	written   []string
}

// StoreOption configures a FileStore.
type StoreOption func(*FileStore)

// WithReadOnly turns saves into logged no-ops.
func WithReadOnly(readOnly bool) StoreOption {
	return func(s *FileStore) { s.readOnly = readOnly }
}

// NewFileStore returns a filesystem store.
func NewFileStore(opts ...StoreOption) *FileStore {
	s := &FileStore{
		templates: make(map[string]*asset.Template),
		documents: make(map[string]*asset.Document),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ReadOnly reports whether saves are suppressed.
func (s *FileStore) ReadOnly() bool { return s.readOnly }

func (s *FileStore) LoadTemplate(path string) (*asset.Template, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- asset paths come from the planner
	if err != nil {
		return nil, fmt.Errorf("read template %s: %w", path, err)
	}
	t, err := asset.DecodeTemplate(path, data)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.templates[Key(path)] = t
	s.mu.Unlock()
	return t, nil
}

func (s *FileStore) SaveTemplate(t *asset.Template) error {
	if t.Path == "" {
		return fmt.Errorf("save template: %w", ErrUntitled)
	}
	data, err := asset.EncodeTemplate(t)
	if err != nil {
		return err
	}
	if err := s.write(t.Path, data); err != nil {
		return err
	}
	t.ClearDirty()
	return nil
}

func (s *FileStore) LoadDocument(path string) (*asset.Document, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- asset paths come from the planner
	if err != nil {
		return nil, fmt.Errorf("read document %s: %w", path, err)
	}
	d, err := asset.DecodeDocument(path, data)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.documents[Key(path)] = d
	s.mu.Unlock()
	return d, nil
}

func (s *FileStore) SaveDocument(d *asset.Document) error {
	if d.Untitled() {
		return fmt.Errorf("save document: %w", ErrUntitled)
	}
	data, err := asset.EncodeDocument(d)
	if err != nil {
		return err
	}
	if err := s.write(d.Path, data); err != nil {
		return err
	}
	d.ClearDirty()
	return nil
}

func (s *FileStore) Flush() error {
	s.mu.Lock()
	var templates []*asset.Template
	var documents []*asset.Document
	for _, k := range sortedKeys(s.templates) {
		if t := s.templates[k]; t.Dirty() {
			templates = append(templates, t)
		}
	}
	for _, k := range sortedKeys(s.documents) {
		if d := s.documents[k]; d.Dirty() {
			documents = append(documents, d)
		}
	}
	s.mu.Unlock()

	var errs []error
	for _, t := range templates {
		if err := s.SaveTemplate(t); err != nil {
			errs = append(errs, err)
		}
	}
	for _, d := range documents {
		if err := s.SaveDocument(d); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Written lists the paths saved (or, in read-only mode, that would have
// been saved), in order.
func (s *FileStore) Written() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.written...)
}

func (s *FileStore) write(path string, data []byte) error {
	if s.readOnly {
		logger.Info("Dry run: would save", logger.String("path", path), logger.Int("bytes", len(data)))
	} else if err := safeio.WriteFileAtomic(path, data); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}

	s.mu.Lock()
	s.written = append(s.written, path)
	s.mu.Unlock()
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
