package work

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/fulmenhq/autocheck/internal/asset"
	"github.com/fulmenhq/autocheck/pkg/ignore"
	"github.com/fulmenhq/autocheck/pkg/logger"
)

// PlannerConfig configures the work planner
type PlannerConfig struct {
	Root               string       // Default root for "check everything"
	TemplateExtensions []string     // e.g. .prefab
	DocumentExtensions []string     // e.g. .unity
	Index              *asset.Index // Resolves GUID selection ids; may be nil
	UseIgnore          bool         // Prune .gitignore/.autocheckignore matches
	IgnoreRoot         string       // Directory ignore files are read from; defaults to "."
	Verbose            bool         // Log skipped paths
}

// Planner expands roots and selections into file lists and classifies them
type Planner struct {
	config        PlannerConfig
	ignoreMatcher *ignore.Matcher
}

// NewPlanner creates a new work planner
func NewPlanner(config PlannerConfig) *Planner {
	planner := &Planner{config: config}

	if config.UseIgnore {
		root := config.IgnoreRoot
		if root == "" {
			root = "."
		}
		if matcher, err := ignore.NewMatcher(root); err != nil {
			logger.Warn(fmt.Sprintf("Failed to initialize ignore matcher: %v", err))
		} else {
			planner.ignoreMatcher = matcher
		}
	}

	return planner
}

// PlanRoot expands the configured root and classifies the result.
func (p *Planner) PlanRoot() (Plan, error) {
	files, err := p.ExpandRoot(p.config.Root)
	if err != nil {
		return Plan{}, err
	}
	return p.Classify(files), nil
}

// PlanSelection expands selection ids and classifies the result.
func (p *Planner) PlanSelection(ids []string) (Plan, error) {
	files, err := p.ExpandSelection(ids)
	if err != nil {
		return Plan{}, err
	}
	return p.Classify(files), nil
}

// Classify partitions paths using the configured extensions.
func (p *Planner) Classify(paths []string) Plan {
	plan := Classify(paths, p.config.TemplateExtensions, p.config.DocumentExtensions)
	if p.config.Verbose {
		for _, s := range plan.Skipped {
			logger.Debug("Skipping non-asset file", logger.String("path", s))
		}
	}
	return plan
}

// ExpandRoot yields root itself when it is a file, every file beneath it
// in lexical walk order when it is a directory, and nothing when it does
// not exist.
func (p *Planner) ExpandRoot(root string) ([]string, error) {
	st, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Debug("Root does not exist", logger.String("path", root))
			return nil, nil
		}
		return nil, fmt.Errorf("stat %s: %w", root, err)
	}

	if !st.IsDir() {
		if p.isIgnored(root, false) {
			return nil, nil
		}
		return []string{root}, nil
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if path != root && p.isIgnored(path, true) {
				if p.config.Verbose {
					logger.Debug("Skipping ignored directory", logger.String("path", path))
				}
				return filepath.SkipDir
			}
			return nil
		}
		if p.isIgnored(path, false) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return files, nil
}

// ExpandSelection resolves each id to its backing paths and expands them
// in selection order. Duplicates are kept.
func (p *Planner) ExpandSelection(ids []string) ([]string, error) {
	var files []string
	for _, id := range ids {
		backing, err := p.resolve(id)
		if err != nil {
			return nil, err
		}
		for _, b := range backing {
			expanded, err := p.ExpandRoot(b)
			if err != nil {
				return nil, err
			}
			files = append(files, expanded...)
		}
	}
	return files, nil
}

// resolve maps a selection id to backing paths: GUID via the index, glob
// via doublestar, otherwise the literal path.
func (p *Planner) resolve(id string) ([]string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}

	if asset.IsGUID(id) && p.config.Index != nil {
		if path, ok := p.config.Index.Path(id); ok {
			return []string{path}, nil
		}
		logger.Warn("Unknown GUID in selection", logger.String("guid", id))
		return nil, nil
	}

	if hasGlobMeta(id) {
		if !doublestar.ValidatePathPattern(id) {
			return nil, fmt.Errorf("invalid selection pattern %q: %w", id, doublestar.ErrBadPattern)
		}
		matches, err := doublestar.FilepathGlob(id)
		if err != nil {
			return nil, fmt.Errorf("invalid selection pattern %q: %w", id, err)
		}
		sort.Strings(matches)
		return matches, nil
	}

	return []string{id}, nil
}

func hasGlobMeta(s string) bool {
	return strings.ContainsAny(s, "*?[{")
}

func (p *Planner) isIgnored(path string, dir bool) bool {
	if p.ignoreMatcher == nil {
		return false
	}
	if dir {
		return p.ignoreMatcher.IsIgnoredDir(path)
	}
	return p.ignoreMatcher.IsIgnored(path)
}
