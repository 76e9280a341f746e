package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"weft/internal/diag"
	"weft/internal/driver"
	"weft/internal/hydrate"
	"weft/internal/project"
)

var hydrateCmd = &cobra.Command{
	Use:   "hydrate <page.html>",
	Short: "Audit a server-rendered page for hydration",
	Long: `List every component instance of a server-rendered page with its props
payload and nesting, and report markers the client could not hydrate. With
a build manifest, instances of components without an initializer are
reported too.`,
	Args: cobra.ExactArgs(1),
	RunE: runHydrate,
}

func init() {
	hydrateCmd.Flags().String("manifest", "", "build manifest (default <out_dir>/"+driver.ManifestName+" if present)")
}

func runHydrate(cmd *cobra.Command, args []string) error {
	opts, err := readOutputOptions(cmd)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read page: %w", err)
	}
	doc, err := hydrate.Parse(string(data))
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", args[0], err)
	}

	manifestPath, err := cmd.Flags().GetString("manifest")
	if err != nil {
		return err
	}
	var interactive map[string]bool
	if manifestPath == "" {
		manifestPath = defaultManifestPath()
	}
	if manifestPath != "" {
		man, readErr := driver.ReadManifest(manifestPath)
		switch {
		case readErr == nil:
			interactive = man.Interactive()
		case errors.Is(readErr, os.ErrNotExist):
		default:
			return readErr
		}
	}

	bag := diag.NewBag(opts.maxDiags)
	instances := hydrate.Audit(doc, hydrate.AuditOptions{
		Interactive: interactive,
		Reporter:    diag.BagReporter{Bag: bag},
	})
	if opts.format == "pretty" {
		printInstances(cmd.OutOrStdout(), instances)
	}
	if err := printDiagnostics(cmd, bag, nil); err != nil {
		return err
	}
	if !opts.quiet && opts.format == "pretty" {
		hydrating := 0
		for _, inst := range instances {
			if inst.Hydrates && inst.Payload {
				hydrating++
			}
		}
		fmt.Fprintln(cmd.OutOrStdout(), summaryLine(opts.color, bag.Len() == 0,
			"%d instances, %d hydrate, %d problems", len(instances), hydrating, bag.Len()))
	}
	return nil
}

// defaultManifestPath points at the manifest of the project around the
// working directory, or returns "".
func defaultManifestPath() string {
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	m, found, err := project.Load(wd)
	if err != nil || !found {
		return ""
	}
	return filepath.Join(m.OutDir(), driver.ManifestName)
}

func printInstances(out io.Writer, instances []*hydrate.Instance) {
	for _, inst := range instances {
		state := "hydrates"
		switch {
		case !inst.Payload:
			state = "no payload"
		case !inst.Hydrates:
			state = "static"
		}
		fmt.Fprintf(out, "%s%s  [%s] %s\n", strings.Repeat("  ", inst.Depth), inst.Marker, state, formatProps(inst.Props))
	}
}

func formatProps(props map[string]any) string {
	if len(props) == 0 {
		return ""
	}
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, props[k])
	}
	return strings.Join(parts, " ")
}
