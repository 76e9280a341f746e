package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"weft/internal/diag"
	"weft/internal/diagfmt"
	"weft/internal/observ"
	"weft/internal/source"
)

type outputOptions struct {
	color    bool
	quiet    bool
	timings  bool
	maxDiags int
	format   string
	pathMode diagfmt.PathMode
}

func readOutputOptions(cmd *cobra.Command) (outputOptions, error) {
	flags := cmd.Root().PersistentFlags()
	var opts outputOptions
	colorFlag, err := flags.GetString("color")
	if err != nil {
		return opts, err
	}
	if opts.color, err = readColorMode(colorFlag); err != nil {
		return opts, err
	}
	if opts.quiet, err = flags.GetBool("quiet"); err != nil {
		return opts, err
	}
	if opts.timings, err = flags.GetBool("timings"); err != nil {
		return opts, err
	}
	if opts.maxDiags, err = flags.GetInt("max-diagnostics"); err != nil {
		return opts, err
	}
	format, err := flags.GetString("format")
	if err != nil {
		return opts, err
	}
	switch opts.format = strings.ToLower(format); opts.format {
	case "pretty", "json":
	default:
		return opts, fmt.Errorf("unsupported format %q (must be pretty or json)", format)
	}
	pathMode, err := flags.GetString("path-mode")
	if err != nil {
		return opts, err
	}
	opts.pathMode = diagfmt.ParsePathMode(pathMode)
	return opts, nil
}

// printDiagnostics writes bag to stdout in the selected format. Pretty
// output skips info diagnostics unless --timings asked for them.
func printDiagnostics(cmd *cobra.Command, bag *diag.Bag, fs *source.FileSet) error {
	opts, err := readOutputOptions(cmd)
	if err != nil {
		return err
	}
	if bag == nil {
		return nil
	}
	bag.Sort()
	bag.Dedup()
	out := cmd.OutOrStdout()
	if opts.format == "json" {
		return diagfmt.JSON(out, bag, fs, diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         opts.pathMode,
			Max:              opts.maxDiags,
		})
	}
	shown := diag.NewBag(opts.maxDiags)
	for _, d := range bag.Items() {
		if d.Severity == diag.SevInfo && !opts.timings {
			continue
		}
		if opts.quiet && d.Severity < diag.SevError {
			continue
		}
		shown.Add(d)
	}
	diagfmt.Pretty(out, shown, fs, diagfmt.PrettyOpts{
		Color:     opts.color,
		PathMode:  opts.pathMode,
		ShowNotes: true,
		ShowFixes: true,
	})
	return nil
}

func printPhaseTimings(out io.Writer, rep observ.Report) {
	_ = rep.WriteTable(out)
}

func summaryLine(useColor bool, ok bool, format string, args ...any) string {
	c := color.New(color.FgGreen, color.Bold)
	if !ok {
		c = color.New(color.FgRed, color.Bold)
	}
	if useColor {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c.Sprintf(format, args...)
}
