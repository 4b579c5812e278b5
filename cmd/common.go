/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fulmenhq/autocheck/internal/asset"
	"github.com/fulmenhq/autocheck/pkg/config"
	"github.com/fulmenhq/autocheck/pkg/exitcode"
	"github.com/fulmenhq/autocheck/pkg/logger"
	"github.com/fulmenhq/autocheck/pkg/safeio"
	"github.com/fulmenhq/autocheck/pkg/work"
)

// loadConfig honours --config and falls back to the project lookup.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.LoadProjectConfig()
	}
	if err != nil {
		return nil, withExitCode(exitcode.ConfigError, err)
	}
	return cfg, nil
}

// signalContext cancels on SIGINT/SIGTERM so pipelines stop between items
// and still restore the session.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// needsIndex reports whether any selection id is a GUID.
func needsIndex(ids []string) bool {
	for _, id := range ids {
		if asset.IsGUID(id) {
			return true
		}
	}
	return false
}

func buildIndex(ctx context.Context, cfg *config.Config) (*asset.Index, error) {
	idx, err := asset.BuildIndex(ctx, cfg.Root, cfg.Index.Workers)
	if err != nil {
		return nil, withExitCode(exitcode.FileSystemError, fmt.Errorf("build GUID index: %w", err))
	}
	logger.Debug("GUID index built", logger.Int("entries", idx.Len()))
	return idx, nil
}

func newPlanner(cfg *config.Config, root string, idx *asset.Index) *work.Planner {
	if root == "" {
		root = cfg.Root
	}
	return work.NewPlanner(work.PlannerConfig{
		Root:               root,
		TemplateExtensions: cfg.Extensions.Template,
		DocumentExtensions: cfg.Extensions.Document,
		Index:              idx,
		UseIgnore:          cfg.Ignore.Enabled,
		Verbose:            true,
	})
}

// outputWriter returns stdout, or a file buffer committed by the returned
// close function.
func outputWriter(cmd *cobra.Command, path string) (io.Writer, func() error) {
	if strings.TrimSpace(path) == "" {
		return cmd.OutOrStdout(), func() error { return nil }
	}
	buf := &fileBuffer{path: path}
	return buf, buf.commit
}

type fileBuffer struct {
	bytes.Buffer
	path string
}

func (b *fileBuffer) commit() error {
	if err := safeio.WriteFileAtomic(b.path, b.Bytes()); err != nil {
		return withExitCode(exitcode.FileSystemError, fmt.Errorf("write %s: %w", b.path, err))
	}
	logger.Info("Report written", logger.String("path", b.path))
	return nil
}

func colorEnabled(cmd *cobra.Command) bool {
	noColor, _ := cmd.Flags().GetBool("no-color")
	if noColor {
		return false
	}
	f, ok := cmd.OutOrStdout().(*os.File)
	if !ok {
		return false
	}
	st, err := f.Stat()
	return err == nil && st.Mode()&os.ModeCharDevice != 0
}
