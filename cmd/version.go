package cmd

import (
	"encoding/json"
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
)

// Set at build time with -ldflags "-X github.com/killallgit/parable-studio/cmd.Version=..."
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// buildInfo is what a deployed binary reports about itself
type buildInfo struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

func currentBuild() buildInfo {
	return buildInfo{
		Name:      "parable-studio",
		Version:   Version,
		GitCommit: GitCommit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Long: `Print which build of Parable Studio this binary is.

The same version string is served by GET /version, so a deployment can be
matched against the binary that produced it. Use --json for deploy tooling.`,
	Args: cobra.NoArgs,
	RunE: runVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolP("short", "s", false, "print only the version string")
	versionCmd.Flags().Bool("json", false, "print build information as JSON")
}

func runVersion(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	info := currentBuild()

	if short, _ := cmd.Flags().GetBool("short"); short {
		fmt.Fprintf(out, "v%s\n", info.Version)
		return nil
	}
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}

	rule := strings.Repeat("-", 40)
	fmt.Fprintln(out, "Parable Studio API")
	fmt.Fprintln(out, rule)
	fmt.Fprintf(out, "%-13s v%s\n", "Version:", info.Version)
	fmt.Fprintf(out, "%-13s %s\n", "Git Commit:", info.GitCommit)
	fmt.Fprintf(out, "%-13s %s\n", "Build Time:", info.BuildTime)
	fmt.Fprintf(out, "%-13s %s\n", "Go Version:", info.GoVersion)
	fmt.Fprintf(out, "%-13s %s\n", "Platform:", info.Platform)
	fmt.Fprintln(out, rule)
	return nil
}
