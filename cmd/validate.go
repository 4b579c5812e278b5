/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/fulmenhq/autocheck/internal/asset"
	"github.com/fulmenhq/autocheck/internal/session"
	"github.com/fulmenhq/autocheck/pkg/exitcode"
	"github.com/fulmenhq/autocheck/pkg/logger"
	"github.com/fulmenhq/autocheck/pkg/work"
)

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate [paths...]",
	Short: "Report unreadable assets and dangling template links",
	Long: `Validate loads every template and document under the given paths (the
configured root by default), reporting files that fail schema validation
and template links whose template can be found neither by path nor by GUID.
No asset is modified.`,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().String("format", "text", "Output format (text|json)")
}

// Problem is one validation finding.
type Problem struct {
	Path    string `json:"path"`
	Node    string `json:"node,omitempty"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

const (
	problemInvalid  = "invalid"
	problemDangling = "dangling-link"
	problemStale    = "stale-link"
)

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("format")
	if format != "text" && format != "json" {
		return withExitCode(exitcode.ConfigError, fmt.Errorf("unsupported format: %s", format))
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	idx, err := buildIndex(ctx, cfg)
	if err != nil {
		return err
	}
	planner := newPlanner(cfg, "", idx)

	var plan work.Plan
	if len(args) == 0 {
		plan, err = planner.PlanRoot()
	} else {
		plan, err = planner.PlanSelection(args)
	}
	if err != nil {
		return withExitCode(exitcode.FileSystemError, err)
	}

	problems := validatePlan(plan, idx)
	logger.Info("Validation finished",
		logger.Int("assets", plan.Total()),
		logger.Int("problems", len(problems)))

	if err := writeProblems(cmd.OutOrStdout(), problems, format); err != nil {
		return err
	}
	if len(problems) > 0 {
		return withExitCode(exitcode.ChecksFailed, nil)
	}
	return nil
}

// validatePlan loads every planned asset read-only and collects problems
// in plan order.
func validatePlan(plan work.Plan, idx *asset.Index) []Problem {
	store := session.NewFileStore(session.WithReadOnly(true))
	problems := []Problem{}

	for _, path := range plan.Templates {
		t, err := store.LoadTemplate(path)
		if err != nil {
			problems = append(problems, Problem{Path: path, Kind: problemInvalid, Message: err.Error()})
			continue
		}
		problems = append(problems, linkProblems(path, []*asset.Node{t.Root}, idx)...)
	}
	for _, path := range plan.Documents {
		d, err := store.LoadDocument(path)
		if err != nil {
			problems = append(problems, Problem{Path: path, Kind: problemInvalid, Message: err.Error()})
			continue
		}
		problems = append(problems, linkProblems(path, d.Roots(), idx)...)
	}
	return problems
}

func linkProblems(path string, roots []*asset.Node, idx *asset.Index) []Problem {
	var out []Problem
	for _, root := range roots {
		_ = root.Walk(func(n *asset.Node) error {
			link := n.Link()
			if link == nil {
				return nil
			}
			_, statErr := os.Stat(link.Template)
			byPath := statErr == nil

			byGUID := ""
			if link.GUID != "" && idx != nil {
				byGUID, _ = idx.Path(link.GUID)
			}

			switch {
			case !byPath && byGUID == "":
				out = append(out, Problem{
					Path:    path,
					Node:    n.Path(),
					Kind:    problemDangling,
					Message: fmt.Sprintf("template %s not found", link.Template),
				})
			case byGUID != "" && session.Key(byGUID) != session.Key(link.Template):
				out = append(out, Problem{
					Path:    path,
					Node:    n.Path(),
					Kind:    problemStale,
					Message: fmt.Sprintf("link names %s but GUID %s belongs to %s", link.Template, link.GUID, byGUID),
				})
			}
			return nil
		})
	}
	return out
}

func writeProblems(w io.Writer, problems []Problem, format string) error {
	if format == "json" {
		data, err := json.MarshalIndent(problems, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}
	if len(problems) == 0 {
		_, err := fmt.Fprintln(w, "✅ All assets valid")
		return err
	}
	for _, p := range problems {
		loc := p.Path
		if p.Node != "" {
			loc += " > " + p.Node
		}
		if _, err := fmt.Fprintf(w, "❌ %s [%s] %s\n", loc, p.Kind, p.Message); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "\n%d problem(s) found\n", len(problems))
	return err
}
