package main

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var versionShort bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information for dailymed",
	Long: `Print the dailymed release, the VCS revision it was built from and the
Go toolchain and platform. The User-Agent sent to DailyMed is shown as well,
since servers see it on every request. Use --short for the release alone.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if versionShort {
			fmt.Fprintln(cmd.OutOrStdout(), version)
			return
		}
		writeBuildInfo(cmd.OutOrStdout(), readBuildInfo())
	},
}

// buildInfo is what the version command reports.
type buildInfo struct {
	Version   string
	Revision  string
	Modified  bool
	GoVersion string
	Platform  string
	UserAgent string
}

func readBuildInfo() buildInfo {
	info := buildInfo{
		Version:   version,
		Revision:  "unknown",
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		UserAgent: viper.GetString("user_agent"),
	}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			info.Revision = s.Value
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
	return info
}

func writeBuildInfo(w io.Writer, info buildInfo) {
	rev := info.Revision
	if info.Modified {
		rev += " (modified)"
	}
	fmt.Fprintf(w, "dailymed %s\n", info.Version)
	fmt.Fprintf(w, "  revision:   %s\n", rev)
	fmt.Fprintf(w, "  go:         %s\n", info.GoVersion)
	fmt.Fprintf(w, "  platform:   %s\n", info.Platform)
	if info.UserAgent != "" {
		fmt.Fprintf(w, "  user-agent: %s\n", info.UserAgent)
	}
}

func init() {
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "print only the release version")
	rootCmd.AddCommand(versionCmd)
}
