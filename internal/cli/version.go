package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/tessro/plexplay/internal/sink"
)

var (
	// Set via ldflags at build time
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

type versionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
	Audio     bool   `json:"audio"`
	Config    string `json:"config,omitempty"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		info := versionInfo{
			Version:   Version,
			Commit:    Commit,
			BuildDate: BuildDate,
			GoVersion: runtime.Version(),
			Platform:  runtime.GOOS + "/" + runtime.GOARCH,
			Audio:     sink.AudioAvailable,
		}
		if path, err := getConfigPath(); err == nil {
			info.Config = path
		}
		if JSONOutput() {
			return printJSON(info)
		}

		fmt.Printf("plexplay %s\n", info.Version)
		if Verbose() {
			fmt.Printf("  commit:     %s\n", info.Commit)
			fmt.Printf("  built:      %s\n", info.BuildDate)
			fmt.Printf("  go version: %s\n", info.GoVersion)
			fmt.Printf("  platform:   %s\n", info.Platform)
			fmt.Printf("  audio:      %s\n", audioLabel(info.Audio))
			fmt.Printf("  config:     %s\n", info.Config)
		}
		return nil
	},
}

func audioLabel(ok bool) string {
	if ok {
		return "speaker"
	}
	return "unavailable (built without cgo)"
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
