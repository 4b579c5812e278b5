package asset

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/fulmenhq/autocheck/pkg/logger"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// MetaExtension is the suffix of the sidecar file holding an asset's GUID.
const MetaExtension = ".meta"

var guidPattern = regexp.MustCompile(`^[0-9a-fA-F]{32}$`)

// IsGUID reports whether s looks like an asset GUID.
func IsGUID(s string) bool {
	return guidPattern.MatchString(s)
}

// IndexEntry pairs a GUID with the asset it identifies.
type IndexEntry struct {
	GUID string `json:"guid" yaml:"guid"`
	Path string `json:"path" yaml:"path"`
}

// Index maps asset GUIDs to paths and back.
type Index struct {
	byGUID map[string]string
	byPath map[string]string
}

// NewIndex builds an index from entries; the first entry for a GUID wins.
func NewIndex(entries []IndexEntry) *Index {
	idx := &Index{byGUID: map[string]string{}, byPath: map[string]string{}}
	for _, e := range entries {
		g := strings.ToLower(e.GUID)
		if prev, dup := idx.byGUID[g]; dup {
			logger.Warn("Duplicate asset GUID", logger.String("guid", g), logger.String("kept", prev), logger.String("dropped", e.Path))
			continue
		}
		idx.byGUID[g] = e.Path
		idx.byPath[e.Path] = g
	}
	return idx
}

type metaFile struct {
	GUID string `yaml:"guid"`
}

// BuildIndex scans root for .meta files and parses them with at most
// workers concurrent readers. Unreadable or GUID-less meta files are
// skipped with a warning.
func BuildIndex(ctx context.Context, root string, workers int) (*Index, error) {
	var metas []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, MetaExtension) {
			metas = append(metas, path)
		}
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return NewIndex(nil), nil
		}
		return nil, fmt.Errorf("scan %s for meta files: %w", root, err)
	}

	if workers <= 0 {
		workers = 1
	}
	results := make([]IndexEntry, len(metas))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, metaPath := range metas {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			guid, err := readMeta(metaPath)
			if err != nil {
				logger.Warn("Skipping unreadable meta file", logger.String("path", metaPath), logger.Err(err))
				return nil
			}
			results[i] = IndexEntry{GUID: guid, Path: strings.TrimSuffix(metaPath, MetaExtension)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	entries := results[:0]
	for _, e := range results {
		if e.GUID != "" {
			entries = append(entries, e)
		}
	}
	logger.Debug("Built asset index", logger.Int("meta_files", len(metas)), logger.Int("entries", len(entries)))
	return NewIndex(entries), nil
}

func readMeta(path string) (string, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from walking the asset root
	if err != nil {
		return "", err
	}
	var m metaFile
	if err := yaml.Unmarshal(data, &m); err != nil {
		return "", err
	}
	if !IsGUID(m.GUID) {
		return "", fmt.Errorf("missing or malformed guid %q", m.GUID)
	}
	return strings.ToLower(m.GUID), nil
}

// Path resolves a GUID to its asset path.
func (i *Index) Path(guid string) (string, bool) {
	p, ok := i.byGUID[strings.ToLower(guid)]
	return p, ok
}

// GUID resolves an asset path to its GUID.
func (i *Index) GUID(path string) (string, bool) {
	g, ok := i.byPath[path]
	return g, ok
}

func (i *Index) Len() int { return len(i.byGUID) }

// Entries returns all entries sorted by path.
func (i *Index) Entries() []IndexEntry {
	out := make([]IndexEntry, 0, len(i.byGUID))
	for g, p := range i.byGUID {
		out = append(out, IndexEntry{GUID: g, Path: p})
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Path < out[b].Path })
	return out
}
