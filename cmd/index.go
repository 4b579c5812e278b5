/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/fulmenhq/autocheck/internal/asset"
	"github.com/fulmenhq/autocheck/pkg/exitcode"
)

// indexCmd represents the index command
var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Print the .meta GUID index of the asset root",
	Long: `Index scans the configured root for .meta sidecar files and prints the
GUID of every asset. These GUIDs can be passed to 'check --selection'.`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().String("format", "text", "Output format (text|json|yaml)")
}

func runIndex(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("format")

	ctx, cancel := signalContext(cmd)
	defer cancel()

	idx, err := buildIndex(ctx, cfg)
	if err != nil {
		return err
	}
	return writeIndex(cmd.OutOrStdout(), idx.Entries(), format)
}

func writeIndex(w io.Writer, entries []asset.IndexEntry, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(entries); err != nil {
			return err
		}
		return enc.Close()
	case "text", "":
		for _, e := range entries {
			if _, err := fmt.Fprintf(w, "%s  %s\n", e.GUID, e.Path); err != nil {
				return err
			}
		}
		return nil
	default:
		return withExitCode(exitcode.ConfigError, fmt.Errorf("unsupported format: %s", format))
	}
}
