/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fulmenhq/autocheck/internal/session"
	"github.com/fulmenhq/autocheck/pkg/config"
	"github.com/fulmenhq/autocheck/pkg/exitcode"
	"github.com/fulmenhq/autocheck/pkg/logger"
)

// sessionCmd represents the session command
var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect and edit the recorded open documents",
	Long: `The session state lists the composite documents the editor has open, the
first one being primary. Check saves them before touching documents and
reopens them afterwards.`,
}

var sessionShowCmd = &cobra.Command{
	Use:   "show",
	Short: "List the open documents",
	Args:  cobra.NoArgs,
	RunE:  runSessionShow,
}

var sessionOpenCmd = &cobra.Command{
	Use:   "open <path>",
	Short: "Open a document, replacing the session unless --additive",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionOpen,
}

var sessionCloseCmd = &cobra.Command{
	Use:   "close <path>",
	Short: "Close an open document",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionClose,
}

var sessionNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Reset the session to a single untitled document",
	Args:  cobra.NoArgs,
	RunE:  runSessionNew,
}

func init() {
	sessionCmd.AddCommand(sessionShowCmd)
	sessionCmd.AddCommand(sessionOpenCmd)
	sessionCmd.AddCommand(sessionCloseCmd)
	sessionCmd.AddCommand(sessionNewCmd)

	sessionShowCmd.Flags().String("format", "text", "Output format (text|json)")
	sessionOpenCmd.Flags().Bool("additive", false, "Keep the currently open documents")
}

// sessionEntry is one line of `session show`.
type sessionEntry struct {
	Index   int    `json:"index"`
	Path    string `json:"path"`
	Primary bool   `json:"primary"`
	Dirty   bool   `json:"dirty"`
}

func loadSession(cmd *cobra.Command) (*config.Config, *session.Session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	sess, err := session.LoadState(cfg.SessionFile(), session.NewFileStore())
	if err != nil {
		return nil, nil, withExitCode(exitcode.SessionError, err)
	}
	return cfg, sess, nil
}

func saveSession(cmd *cobra.Command, cfg *config.Config, sess *session.Session) error {
	if err := session.SaveState(cfg.SessionFile(), sess); err != nil {
		return withExitCode(exitcode.FileSystemError, err)
	}
	return printSession(cmd, sess, "text")
}

func runSessionShow(cmd *cobra.Command, _ []string) error {
	_, sess, err := loadSession(cmd)
	if err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("format")
	return printSession(cmd, sess, format)
}

func printSession(cmd *cobra.Command, sess *session.Session, format string) error {
	docs := sess.Documents()
	entries := make([]sessionEntry, 0, len(docs))
	for i, d := range docs {
		entries = append(entries, sessionEntry{Index: i, Path: d.Path, Primary: i == 0, Dirty: d.Dirty()})
	}

	out := cmd.OutOrStdout()
	switch format {
	case "json":
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	case "text", "":
		for _, e := range entries {
			marker := " "
			if e.Primary {
				marker = "*"
			}
			path := e.Path
			if path == "" {
				path = "(untitled)"
			}
			if _, err := fmt.Fprintf(out, "%s %d %s\n", marker, e.Index, path); err != nil {
				return err
			}
		}
		return nil
	default:
		return withExitCode(exitcode.ConfigError, fmt.Errorf("unsupported format: %s", format))
	}
}

func runSessionOpen(cmd *cobra.Command, args []string) error {
	cfg, sess, err := loadSession(cmd)
	if err != nil {
		return err
	}
	additive, _ := cmd.Flags().GetBool("additive")
	mode := session.Single
	if additive {
		mode = session.Additive
	}
	if _, err := sess.Open(args[0], mode); err != nil {
		return withExitCode(exitcode.SessionError, err)
	}
	logger.Info("Opened document", logger.String("path", args[0]), logger.String("mode", mode.String()))
	return saveSession(cmd, cfg, sess)
}

func runSessionClose(cmd *cobra.Command, args []string) error {
	cfg, sess, err := loadSession(cmd)
	if err != nil {
		return err
	}
	if err := sess.Close(args[0]); err != nil {
		return withExitCode(exitcode.SessionError, err)
	}
	return saveSession(cmd, cfg, sess)
}

func runSessionNew(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return saveSession(cmd, cfg, session.NewEmpty(session.NewFileStore()))
}
