package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"weft/internal/codegen"
	"weft/internal/diag"
	"weft/internal/driver"
	"weft/internal/ir"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Dump IR, path table and client code for one file",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	inspectCmd.Flags().StringP("component", "c", "", "only show this component")
	inspectCmd.Flags().Bool("server", false, "also print the server module of the file")
}

func runInspect(cmd *cobra.Command, args []string) (err error) {
	cleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer func() { cleanup(err != nil) }()

	opts, err := readOutputOptions(cmd)
	if err != nil {
		return err
	}
	only, err := cmd.Flags().GetString("component")
	if err != nil {
		return err
	}
	withServer, err := cmd.Flags().GetBool("server")
	if err != nil {
		return err
	}
	m, err := loadManifest(cmd)
	if err != nil {
		return err
	}
	path, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}

	res, checkErr := driver.Check(cmd.Context(), driver.Request{
		Manifest:       m,
		Entries:        []string{path},
		MaxDiagnostics: opts.maxDiags,
	})
	if res == nil {
		return checkErr
	}
	if err := printDiagnostics(cmd, res.Bag, res.FileSet); err != nil {
		return err
	}
	if checkErr != nil {
		return describeFailure(checkErr)
	}

	var file *driver.FileResult
	for _, f := range res.Files {
		if f.Meta.Path == path {
			file = f
		}
	}
	if file == nil {
		return fmt.Errorf("%s declares no components", args[0])
	}

	heading := color.New(color.FgCyan, color.Bold)
	if opts.color {
		heading.EnableColor()
	} else {
		heading.DisableColor()
	}
	out := cmd.OutOrStdout()
	shown := 0
	for _, rec := range file.Records {
		if only != "" && rec.Name != only {
			continue
		}
		shown++
		if err := inspectRecord(out, heading, rec); err != nil {
			return err
		}
	}
	if only != "" && shown == 0 {
		return fmt.Errorf("%s has no component %q", args[0], only)
	}
	if withServer {
		heading.Fprintf(out, "== %s ==\n", file.Meta.Rel)
		_, _ = out.Write(file.Server)
	}
	return nil
}

func inspectRecord(out io.Writer, heading *color.Color, rec *ir.ComponentRecord) error {
	kind := "server"
	if rec.Interactive() {
		kind = "client"
	}
	heading.Fprintf(out, "== %s (%s) ==\n", rec.Name, kind)
	if err := ir.Dump(out, rec); err != nil {
		return err
	}
	if !rec.Interactive() {
		fmt.Fprintln(out)
		return nil
	}

	init, err := codegen.New(diag.NopReporter{}).Generate(rec)
	if err != nil {
		fmt.Fprintf(out, "no initializer: %v\n\n", err)
		return nil
	}
	heading.Fprintln(out, "-- paths --")
	for _, id := range init.Paths.IDs() {
		fmt.Fprintf(out, "  %-6s %s\n", id, init.Paths[id])
	}
	heading.Fprintln(out, "-- client --")
	fmt.Fprintln(out, init.Code)
	return nil
}
