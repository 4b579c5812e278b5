/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/fulmenhq/autocheck/internal/checkers"
	"github.com/fulmenhq/autocheck/internal/report"
	"github.com/fulmenhq/autocheck/internal/watch"
	"github.com/fulmenhq/autocheck/pkg/exitcode"
	"github.com/fulmenhq/autocheck/pkg/ignore"
	"github.com/fulmenhq/autocheck/pkg/logger"
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch [root]",
	Short: "Re-check assets whenever they change",
	Long: `Watch follows every directory under the root and, after a quiet period,
runs the checkers on the templates and documents that changed. Saves made by
autocheck itself trigger one more pass that finds nothing to change.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().Duration("debounce", 0, "Quiet period before re-checking (default from config)")
	watchCmd.Flags().Bool("dry-run", false, "Run checkers without writing assets or session state")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	root := cfg.Root
	if len(args) == 1 {
		root = args[0]
	}
	debounce, _ := cmd.Flags().GetDuration("debounce")
	if debounce <= 0 {
		debounce = cfg.Watch.Debounce
	}
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	registry, err := checkers.NewRegistry(cfg.Checkers)
	if err != nil {
		return withExitCode(exitcode.ConfigError, err)
	}
	planner := newPlanner(cfg, root, nil)

	var matcher *ignore.Matcher
	if cfg.Ignore.Enabled {
		if matcher, err = ignore.NewMatcher("."); err != nil {
			logger.Warn("Failed to initialize ignore matcher", logger.Err(err))
			matcher = nil
		}
	}

	formatter := report.NewFormatter(report.FormatConcise, report.WithColor(colorEnabled(cmd)))
	handler := func(ctx context.Context, paths []string) error {
		plan := planner.Classify(paths)
		if plan.Empty() {
			return nil
		}
		rep, err := runPlan(ctx, cfg, registry, plan, dryRun)
		if rep != nil {
			if werr := formatter.Write(cmd.OutOrStdout(), rep); werr != nil {
				err = errors.Join(err, werr)
			}
		}
		return err
	}

	w, err := watch.New(watch.Config{
		Root:       root,
		Extensions: append(append([]string{}, cfg.Extensions.Template...), cfg.Extensions.Document...),
		Debounce:   debounce,
		Ignore:     matcher,
	}, handler)
	if err != nil {
		return withExitCode(exitcode.FileSystemError, err)
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()
	if err := w.Run(ctx); err != nil {
		return withExitCode(exitcode.FileSystemError, err)
	}
	stats := w.Stats()
	logger.Info("Watch stopped", logger.Int("batches", stats.Batches), logger.Int("handler_errors", stats.HandlerErrors))
	return nil
}
