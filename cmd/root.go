/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fulmenhq/autocheck/internal/ops"
	"github.com/fulmenhq/autocheck/pkg/buildinfo"
	"github.com/fulmenhq/autocheck/pkg/exitcode"
	"github.com/fulmenhq/autocheck/pkg/logger"
)

// newRootCommand creates a fresh root command instance.
// This factory pattern allows tests to create isolated command trees without shared state.
func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "autocheck",
		Short: "Batch auto-fix for scene and prefab assets",
		Long: `Autocheck walks an asset tree, runs every registered checker against the
behaviors of each template and composite document, and saves only the assets
whose data actually changed. The documents you had open are restored afterwards.

Examples:
   autocheck check                         # Check everything under the configured root
   autocheck check --selection Assets/UI   # Check a folder, glob or GUID selection
   autocheck session show                  # List the documents recorded as open
   autocheck watch                         # Re-check assets as they change`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			initializeLogger(cmd)
		},
	}

	cmd.PersistentFlags().String("log-level", "info", "Set log level (trace|debug|info|warn|error)")
	cmd.PersistentFlags().Bool("json", false, "Output logs in JSON format")
	cmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	cmd.PersistentFlags().String("config", "", "Config file (default: autocheck.yaml / .autocheck.yaml)")

	cmd.Version = buildinfo.BinaryVersion
	cmd.SetVersionTemplate("autocheck {{.Version}}\n")

	// Grouped help by command group (Check → Session → Support)
	cmd.SetHelpFunc(func(c *cobra.Command, args []string) {
		if c != cmd {
			c.Println(c.Long)
			c.Println()
			c.Print(c.UsageString())
			return
		}
		reg := ops.GetRegistry()
		c.Println(c.Long)
		c.Println()
		for _, g := range ops.Groups() {
			cmds := reg.GetCommandsByGroup(g)
			if len(cmds) == 0 {
				continue
			}
			c.Println(g.Title() + ":")
			for _, r := range cmds {
				c.Printf("  %-12s %s\n", r.Name, r.Description)
			}
			c.Println()
		}
		c.Println("Flags:")
		c.Print(c.UsageString())
	})

	return cmd
}

// registerSubcommands adds all subcommands to the root command.
// This is called from init() for production and can be called explicitly in tests.
func registerSubcommands(cmd *cobra.Command) {
	cmd.AddCommand(checkCmd)
	cmd.AddCommand(watchCmd)
	cmd.AddCommand(validateCmd)
	cmd.AddCommand(sessionCmd)
	cmd.AddCommand(indexCmd)
	cmd.AddCommand(versionCmd)
}

func registerGroups() {
	for _, r := range []struct {
		name  string
		group ops.CommandGroup
		cmd   *cobra.Command
	}{
		{"check", ops.GroupCheck, checkCmd},
		{"watch", ops.GroupCheck, watchCmd},
		{"validate", ops.GroupCheck, validateCmd},
		{"session", ops.GroupSession, sessionCmd},
		{"index", ops.GroupSupport, indexCmd},
		{"version", ops.GroupSupport, versionCmd},
	} {
		if err := ops.RegisterCommand(r.name, r.group, r.cmd, r.cmd.Short); err != nil {
			panic(fmt.Sprintf("failed to register %s command: %v", r.name, err))
		}
	}
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCommand()

// exitError carries a specific process exit code out of a RunE.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return exitcode.String(e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func withExitCode(code int, err error) error {
	return &exitError{code: code, err: err}
}

// exitCodeFor maps a command error to the process exit code.
func exitCodeFor(err error) int {
	if err == nil {
		return exitcode.Success
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	if errors.Is(err, context.Canceled) {
		return exitcode.Interrupted
	}
	return exitcode.GeneralError
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	logger.Sync()
	if err != nil {
		code := exitCodeFor(err)
		var ee *exitError
		if !errors.As(err, &ee) || ee.err != nil {
			logger.Error("Command execution failed", logger.Err(err))
		}
		os.Exit(code)
	}
}

func init() {
	registerSubcommands(rootCmd)
	registerGroups()
}

// initializeLogger sets up the logger based on command flags
func initializeLogger(cmd *cobra.Command) {
	logLevelStr, _ := cmd.Flags().GetString("log-level")
	jsonLogs, _ := cmd.Flags().GetBool("json")
	noColor, _ := cmd.Flags().GetBool("no-color")

	config := logger.Config{
		Level:     logger.ParseLevel(logLevelStr),
		UseColor:  !noColor && os.Getenv("NO_COLOR") == "",
		JSON:      jsonLogs,
		Component: "autocheck",
	}

	if err := logger.Initialize(config); err != nil {
		_, _ = os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(exitcode.ConfigError)
	}
}
