package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fulmenhq/autocheck/internal/asset"
	"github.com/fulmenhq/autocheck/internal/schema"
	"github.com/fulmenhq/autocheck/pkg/safeio"
)

type stateFile struct {
	Documents []stateEntry `yaml:"documents"`
}

type stateEntry struct {
	Path string `yaml:"path"`
}

// LoadState reads the persisted session at path and opens its documents
// through store. A missing state file yields a new empty session.
func LoadState(path string, store Store) (*Session, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- state file location comes from config
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NewEmpty(store), nil
		}
		return nil, fmt.Errorf("read session state: %w", err)
	}

	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse session state %s: %w", path, err)
	}
	if raw == nil {
		return NewEmpty(store), nil
	}
	res, err := schema.Validate(raw, schema.SessionV1)
	if err != nil {
		return nil, fmt.Errorf("validate session state %s: %w", path, err)
	}
	if !res.Valid {
		return nil, fmt.Errorf("invalid session state %s: %s", path, res.Error())
	}

	var st stateFile
	if err := yaml.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parse session state %s: %w", path, err)
	}
	if len(st.Documents) == 0 {
		return NewEmpty(store), nil
	}

	s := &Session{store: store}
	for _, e := range st.Documents {
		if e.Path == "" {
			s.docs = append(s.docs, asset.NewDocument(""))
			continue
		}
		if s.IsOpen(e.Path) {
			return nil, fmt.Errorf("session state lists %s twice: %w", e.Path, ErrAlreadyOpen)
		}
		doc, err := store.LoadDocument(e.Path)
		if err != nil {
			return nil, fmt.Errorf("reopen %s: %w", e.Path, err)
		}
		s.docs = append(s.docs, doc)
	}
	return s, nil
}

// SaveState writes the session's document list to path.
func SaveState(path string, s *Session) error {
	st := stateFile{Documents: make([]stateEntry, 0, len(s.docs))}
	for _, d := range s.docs {
		st.Documents = append(st.Documents, stateEntry{Path: d.Path})
	}
	data, err := yaml.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode session state: %w", err)
	}
	if err := safeio.WriteFileAtomic(path, data); err != nil {
		return fmt.Errorf("write session state: %w", err)
	}
	return nil
}
