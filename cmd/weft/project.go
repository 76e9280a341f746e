package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"weft/internal/diag"
	"weft/internal/project"
	"weft/internal/source"
)

// loadManifest finds weft.toml from the working directory upwards. A broken
// config is printed as a PrjConfigError diagnostic.
func loadManifest(cmd *cobra.Command) (*project.Manifest, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	m, _, err := project.Load(wd)
	if err != nil {
		bag := diag.NewBag(1)
		bag.Add(diag.NewError(diag.PrjConfigError, source.Span{}, err.Error()))
		if printErr := printDiagnostics(cmd, bag, nil); printErr != nil {
			return nil, printErr
		}
		return nil, fmt.Errorf("invalid project configuration: %w", err)
	}
	return m, nil
}
