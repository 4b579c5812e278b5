/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/fulmenhq/autocheck/pkg/buildinfo"
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show autocheck version",
	Args:  cobra.NoArgs,
	RunE:  runVersion,
}

func init() {
	versionCmd.Flags().Bool("extended", false, "Show detailed build information")
	versionCmd.Flags().String("format", "text", "Output format (text|json)")
}

type versionInfo struct {
	Version       string `json:"version"`
	ModuleVersion string `json:"moduleVersion,omitempty"`
	Commit        string `json:"commit,omitempty"`
	BuildDate     string `json:"buildDate,omitempty"`
	GoVersion     string `json:"goVersion"`
	Platform      string `json:"platform"`
	Arch          string `json:"arch"`
}

func runVersion(cmd *cobra.Command, _ []string) error {
	extended, _ := cmd.Flags().GetBool("extended")
	format, _ := cmd.Flags().GetString("format")
	out := cmd.OutOrStdout()

	info := versionInfo{
		Version:       buildinfo.BinaryVersion,
		ModuleVersion: buildinfo.ModuleVersion(),
		Commit:        buildinfo.Commit,
		BuildDate:     buildinfo.BuildDate,
		GoVersion:     runtime.Version(),
		Platform:      runtime.GOOS,
		Arch:          runtime.GOARCH,
	}

	switch format {
	case "json":
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal version info: %w", err)
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	case "text", "":
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}

	if !extended {
		_, err := fmt.Fprintf(out, "autocheck %s\n", info.Version)
		return err
	}
	_, err := fmt.Fprintln(out, buildinfo.Summary())
	if err == nil && info.ModuleVersion != "" {
		_, err = fmt.Fprintf(out, "Module: %s\n", info.ModuleVersion)
	}
	if err == nil {
		_, err = fmt.Fprintf(out, "Go: %s\n", info.GoVersion)
	}
	return err
}
