package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"weft/internal/driver"
	"weft/internal/frontend"
	"weft/internal/report"
	"weft/internal/resolve"
)

var buildCmd = &cobra.Command{
	Use:   "build [entries...]",
	Short: "Compile components into server and client modules",
	Long: `Compile the project entries (or the given files) into <file>.server.js and
<file>.client.js modules under the output directory, together with
weft-manifest.json. Nothing is written when an error is reported.`,
	RunE: runBuild,
}

var checkCmd = &cobra.Command{
	Use:   "check [entries...]",
	Short: "Resolve and generate in memory and print diagnostics",
	RunE:  runCheck,
}

func init() {
	buildCmd.Flags().StringP("out", "o", "", "output directory (default [project].out_dir)")
	buildCmd.Flags().IntP("jobs", "j", 0, "max parallel files (0 = [compile].jobs)")
	buildCmd.Flags().Bool("no-cache", false, "ignore and do not update the build cache")
	buildCmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
	buildCmd.Flags().Bool("strict-cycles", false, "fail on import cycles instead of degrading")
	buildCmd.Flags().String("report", "", "write an HTML build report to this file")
	buildCmd.Flags().Bool("emit-ir", false, "write an IR dump next to every module")
	buildCmd.Flags().Bool("explain", false, "report bindings located by scoped queries")

	checkCmd.Flags().IntP("jobs", "j", 0, "max parallel files (0 = [compile].jobs)")
	checkCmd.Flags().Bool("strict-cycles", false, "fail on import cycles instead of degrading")
	checkCmd.Flags().Bool("explain", false, "report bindings located by scoped queries")
}

func runBuild(cmd *cobra.Command, args []string) (err error) {
	cleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer func() { cleanup(err != nil) }()

	opts, err := readOutputOptions(cmd)
	if err != nil {
		return err
	}
	m, err := loadManifest(cmd)
	if err != nil {
		return err
	}
	req, err := buildRequest(cmd, opts, args)
	if err != nil {
		return err
	}
	req.Manifest = m
	if req.OutDir, err = cmd.Flags().GetString("out"); err != nil {
		return err
	}
	if req.NoCache, err = cmd.Flags().GetBool("no-cache"); err != nil {
		return err
	}
	if req.EmitIR, err = cmd.Flags().GetBool("emit-ir"); err != nil {
		return err
	}
	uiFlag, err := cmd.Flags().GetString("ui")
	if err != nil {
		return err
	}
	mode, err := readUIMode(uiFlag)
	if err != nil {
		return err
	}
	reportPath, err := cmd.Flags().GetString("report")
	if err != nil {
		return err
	}

	var res *driver.Result
	var buildErr error
	if !opts.quiet && opts.format == "pretty" && shouldUseTUI(mode) {
		res, buildErr = runBuildWithUI(cmd.Context(), "weft build "+m.Config.Project.Name, req)
	} else {
		res, buildErr = driver.Build(cmd.Context(), req)
	}
	if res == nil {
		return buildErr
	}

	if err := printDiagnostics(cmd, res.Bag, res.FileSet); err != nil {
		return err
	}
	if reportPath != "" {
		if err := writeReport(cmd, reportPath, m.Config.Project.Name, res); err != nil {
			return err
		}
	}
	if opts.timings && opts.format == "pretty" {
		printPhaseTimings(cmd.ErrOrStderr(), res.Timer.Report())
	}
	if buildErr != nil {
		return describeFailure(buildErr)
	}
	if !opts.quiet && opts.format == "pretty" {
		rel, relErr := filepath.Rel(m.Root, res.OutDir)
		if relErr != nil {
			rel = res.OutDir
		}
		fmt.Fprintln(cmd.OutOrStdout(), summaryLine(opts.color, true,
			"built %d files (%d components, %d cached) into %s",
			len(res.Files), len(res.Records), res.CacheHits, rel))
	}
	return nil
}

func runCheck(cmd *cobra.Command, args []string) (err error) {
	cleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer func() { cleanup(err != nil) }()

	opts, err := readOutputOptions(cmd)
	if err != nil {
		return err
	}
	m, err := loadManifest(cmd)
	if err != nil {
		return err
	}
	req, err := buildRequest(cmd, opts, args)
	if err != nil {
		return err
	}
	req.Manifest = m

	res, checkErr := driver.Check(cmd.Context(), req)
	if res == nil {
		return checkErr
	}
	if err := printDiagnostics(cmd, res.Bag, res.FileSet); err != nil {
		return err
	}
	if opts.timings && opts.format == "pretty" {
		printPhaseTimings(cmd.ErrOrStderr(), res.Timer.Report())
	}
	if checkErr != nil {
		return describeFailure(checkErr)
	}
	if res.Bag.HasErrors() {
		return driver.ErrDiagnostics
	}
	if !opts.quiet && opts.format == "pretty" {
		fmt.Fprintln(cmd.OutOrStdout(), summaryLine(opts.color, true,
			"checked %d files (%d components)", len(res.Files), len(res.Records)))
	}
	return nil
}

// buildRequest reads the flags build and check share.
func buildRequest(cmd *cobra.Command, opts outputOptions, args []string) (driver.Request, error) {
	req := driver.Request{
		Entries:        args,
		MaxDiagnostics: opts.maxDiags,
		Timings:        opts.timings && opts.format == "json",
	}
	var err error
	if req.Jobs, err = cmd.Flags().GetInt("jobs"); err != nil {
		return req, err
	}
	if req.StrictCycles, err = cmd.Flags().GetBool("strict-cycles"); err != nil {
		return req, err
	}
	if req.Explain, err = cmd.Flags().GetBool("explain"); err != nil {
		return req, err
	}
	return req, nil
}

func writeReport(cmd *cobra.Command, path, title string, res *driver.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	if err := report.Write(cmd.Context(), f, report.FromResult(title, res)); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write report: %w", err)
	}
	return f.Close()
}

// describeFailure turns a driver error into the message the CLI exits with.
// Diagnostics describing it have already been printed.
func describeFailure(err error) error {
	var (
		fileErr   *resolve.FileError
		dirErr    *resolve.DirectiveError
		cycleErr  *resolve.CycleError
		syntaxErr *frontend.SyntaxError
	)
	switch {
	case errors.Is(err, driver.ErrNoEntries):
		return errors.New("nothing to build: no entry files")
	case errors.Is(err, driver.ErrDiagnostics):
		return errors.New("build failed: errors reported")
	case errors.As(err, &cycleErr):
		return fmt.Errorf("import cycle (rerun without --strict-cycles to degrade): %w", err)
	case errors.As(err, &dirErr):
		return fmt.Errorf("invalid directive: %w", err)
	case errors.As(err, &syntaxErr):
		return fmt.Errorf("syntax error: %w", err)
	case errors.As(err, &fileErr):
		return fmt.Errorf("cannot load source: %w", err)
	default:
		return err
	}
}
