package main

import (
	"os"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"weft/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "weft",
	Short: "weft component compiler",
	Long: `weft compiles JSX/TSX components into server markup modules and
client hydration modules`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		stop, err := setupProfiling(cmd)
		if err != nil {
			return err
		}
		stopProfiling = stop
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		stopProfiling()
	},
}

var stopProfiling = func() {}

var setupOnce sync.Once

// main runs the root command. Any error exits with status 1.
func main() {
	setupRoot()
	err := rootCmd.Execute()
	stopProfiling()
	if err != nil {
		os.Exit(1)
	}
}

// setupRoot registers the subcommands and persistent flags.
func setupRoot() {
	setupOnce.Do(func() {
		rootCmd.Version = version.Version
		rootCmd.AddCommand(buildCmd, checkCmd, inspectCmd, hydrateCmd, initCmd, cleanCmd, versionCmd)
		addPersistentFlags(rootCmd)
	})
}

func addPersistentFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	cmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	cmd.PersistentFlags().Bool("timings", false, "show timing information")
	cmd.PersistentFlags().Int("max-diagnostics", 100, "maximum number of diagnostics to show")
	cmd.PersistentFlags().String("format", "pretty", "diagnostics format (pretty|json)")
	cmd.PersistentFlags().String("path-mode", "relative", "diagnostic paths (auto|absolute|relative|basename)")

	cmd.PersistentFlags().String("cpu-profile", "", "write a CPU profile to this file")
	cmd.PersistentFlags().String("mem-profile", "", "write a heap profile to this file on exit")
	cmd.PersistentFlags().String("runtime-trace", "", "write a Go runtime trace to this file")

	cmd.PersistentFlags().String("trace", "", "write a trace to this file (- for stderr)")
	cmd.PersistentFlags().String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	cmd.PersistentFlags().String("trace-mode", "stream", "trace storage (stream|ring|both)")
	cmd.PersistentFlags().Int("trace-ring-size", 4096, "events kept by the ring tracer")
	cmd.PersistentFlags().String("trace-format", "auto", "trace format (auto|text|ndjson)")
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
