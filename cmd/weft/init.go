package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"weft/internal/project"
)

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Initialize a new weft project",
	Long: `Initialize a new weft project by creating weft.toml and a counter example
under src/. If [dir] is omitted, initializes the current directory. A missing
directory is created.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

const defaultIndex = `import Counter from "./Counter";

export default function App({ title = "weft" }) {
  return (
    <main>
      <h1>{title}</h1>
      <Counter start={0} />
    </main>
  );
}
`

const defaultCounter = `"use client";
import { createSignal } from "@weft/runtime";

export default function Counter({ start = 0 }) {
  const [count, setCount] = createSignal(start);
  return (
    <div>
      <p>{count()}</p>
      <button onClick={() => setCount(count() + 1)}>+</button>
    </div>
  );
}
`

func runInit(cmd *cobra.Command, args []string) error {
	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	target := wd
	if len(args) > 0 && args[0] != "." {
		target = args[0]
		if !filepath.IsAbs(target) {
			target = filepath.Join(wd, target)
		}
	}

	if st, err := os.Stat(target); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		if err := os.MkdirAll(target, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %q: %w", target, err)
		}
	} else if !st.IsDir() {
		return fmt.Errorf("%q is not a directory", target)
	}

	name := strings.TrimSpace(filepath.Base(target))
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "weft-app"
	}

	configPath := filepath.Join(target, project.ConfigFileName)
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("project already initialized: %s exists", configPath)
	}
	if err := os.WriteFile(configPath, []byte(fmt.Sprintf(project.Template, name)), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", project.ConfigFileName, err)
	}

	created := []string{project.ConfigFileName}
	for _, f := range []struct{ rel, src string }{
		{"src/index.tsx", defaultIndex},
		{"src/Counter.tsx", defaultCounter},
	} {
		path := filepath.Join(target, filepath.FromSlash(f.rel))
		if _, err := os.Stat(path); err == nil {
			created = append(created, f.rel+" (existing)")
			continue
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(f.src), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", f.rel, err)
		}
		created = append(created, f.rel)
	}

	rel := target
	if r, err := filepath.Rel(wd, target); err == nil {
		rel = r
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Initialized weft project in %s\n", rel)
	for _, c := range created {
		fmt.Fprintf(out, "  - %s\n", c)
	}
	return nil
}
