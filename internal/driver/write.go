package driver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// writeOutputs writes every output under dir. Each file is written to a
// temporary sibling first and renamed into place.
func writeOutputs(ctx context.Context, dir string, outputs []Output) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	for _, o := range outputs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writeFile(filepath.Join(dir, filepath.FromSlash(o.Path)), o.Data); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path string, data []byte) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	f, err := os.CreateTemp(filepath.Dir(path), ".weft-*")
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(f.Name())
		}
	}()
	if err = f.Chmod(0o644); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if _, err = f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err = os.Rename(f.Name(), path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Clean removes the output directory and drops the cache. Missing
// directories are not an error.
func Clean(outDir string, cache *DiskCache) error {
	if outDir != "" {
		if err := os.RemoveAll(outDir); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return cache.DropAll()
}
