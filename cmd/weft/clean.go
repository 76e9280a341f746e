package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"weft/internal/driver"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove the output directory and the build cache",
	Args:  cobra.NoArgs,
	RunE:  runClean,
}

func init() {
	cleanCmd.Flags().Bool("keep-cache", false, "only remove the output directory")
}

func runClean(cmd *cobra.Command, _ []string) error {
	m, err := loadManifest(cmd)
	if err != nil {
		return err
	}
	keepCache, err := cmd.Flags().GetBool("keep-cache")
	if err != nil {
		return err
	}
	var cache *driver.DiskCache
	if !keepCache {
		dir := m.Config.Cache.Dir
		if dir != "" && !filepath.IsAbs(dir) {
			dir = filepath.Join(m.Root, dir)
		}
		if cache, err = driver.OpenDiskCache(dir); err != nil {
			return fmt.Errorf("failed to open build cache: %w", err)
		}
	}
	if err := driver.Clean(m.OutDir(), cache); err != nil {
		return fmt.Errorf("clean: %w", err)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "removed %s\n", m.Rel(m.OutDir()))
	if cache != nil {
		fmt.Fprintf(out, "removed %s\n", cache.Dir())
	}
	return nil
}
