/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fulmenhq/autocheck/internal/check"
	"github.com/fulmenhq/autocheck/internal/checkers"
	"github.com/fulmenhq/autocheck/internal/pipeline"
	"github.com/fulmenhq/autocheck/internal/report"
	"github.com/fulmenhq/autocheck/internal/session"
	"github.com/fulmenhq/autocheck/pkg/config"
	"github.com/fulmenhq/autocheck/pkg/exitcode"
	"github.com/fulmenhq/autocheck/pkg/logger"
	"github.com/fulmenhq/autocheck/pkg/work"
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check [root]",
	Short: "Run every checker on templates and documents",
	Long: `Check expands the asset root (or a selection), classifies the files into
templates and composite documents, runs every registered checker and saves
the assets whose data changed. Documents recorded as open in the session
state are saved first and reopened afterwards.

Selection ids may be asset paths, folders, doublestar globs or .meta GUIDs.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringSliceP("selection", "s", nil, "Check only these paths, globs or GUIDs")
	checkCmd.Flags().Bool("dry-run", false, "Run checkers without writing assets or session state")
	checkCmd.Flags().String("report", "text", "Report format (text|concise|json|yaml|toml|junit)")
	checkCmd.Flags().String("report-file", "", "Write the report to a file instead of stdout")
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	selection, _ := cmd.Flags().GetStringSlice("selection")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	reportName, _ := cmd.Flags().GetString("report")
	reportFile, _ := cmd.Flags().GetString("report-file")

	format, err := report.ParseFormat(reportName)
	if err != nil {
		return withExitCode(exitcode.ConfigError, err)
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	root := ""
	if len(args) == 1 {
		root = args[0]
	}
	rep, err := executeCheck(ctx, cfg, checkRequest{root: root, selection: selection, dryRun: dryRun})
	if rep != nil {
		out, commit := outputWriter(cmd, reportFile)
		f := report.NewFormatter(format, report.WithColor(reportFile == "" && colorEnabled(cmd)))
		if werr := f.Write(out, rep); werr != nil {
			return errors.Join(err, werr)
		}
		if cerr := commit(); cerr != nil {
			return errors.Join(err, cerr)
		}
	}
	if err != nil {
		return err
	}
	if rep.HasFailures() {
		return withExitCode(exitcode.ChecksFailed, nil)
	}
	return nil
}

type checkRequest struct {
	root      string
	selection []string
	dryRun    bool
}

// executeCheck runs one orchestrated pass and persists the restored
// session. The report is returned whenever the run started.
func executeCheck(ctx context.Context, cfg *config.Config, req checkRequest) (*pipeline.Report, error) {
	registry, err := checkers.NewRegistry(cfg.Checkers)
	if err != nil {
		return nil, withExitCode(exitcode.ConfigError, err)
	}

	planner, err := plannerFor(ctx, cfg, req.root, req.selection)
	if err != nil {
		return nil, err
	}
	var plan work.Plan
	if len(req.selection) > 0 {
		plan, err = planner.PlanSelection(req.selection)
	} else {
		plan, err = planner.PlanRoot()
	}
	if err != nil {
		return nil, withExitCode(exitcode.FileSystemError, err)
	}
	if plan.Empty() {
		logger.Info("No templates or documents to check")
	}

	return runPlan(ctx, cfg, registry, plan, req.dryRun)
}

func plannerFor(ctx context.Context, cfg *config.Config, root string, selection []string) (*work.Planner, error) {
	if !needsIndex(selection) {
		return newPlanner(cfg, root, nil), nil
	}
	idx, err := buildIndex(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return newPlanner(cfg, root, idx), nil
}

// runPlan loads the session state, runs the pipelines and writes the
// restored session back unless this is a dry run.
func runPlan(ctx context.Context, cfg *config.Config, registry *check.Registry, plan work.Plan, dryRun bool) (*pipeline.Report, error) {
	store := session.NewFileStore(session.WithReadOnly(dryRun))
	sess, err := session.LoadState(cfg.SessionFile(), store)
	if err != nil {
		return nil, withExitCode(exitcode.SessionError, fmt.Errorf("load session state: %w", err))
	}

	runner := &pipeline.Runner{
		Registry: registry,
		Store:    store,
		Progress: &work.LogProgress{},
		DryRun:   dryRun,
	}
	rep, restored, runErr := runner.Run(ctx, sess, plan)

	if !dryRun && restored != nil {
		if err := session.SaveState(cfg.SessionFile(), restored); err != nil {
			runErr = errors.Join(runErr, withExitCode(exitcode.SessionError, err))
		}
	}
	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			return rep, withExitCode(exitcode.Interrupted, runErr)
		}
		return rep, runErr
	}
	return rep, nil
}
