package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"weft/internal/driver"
	"weft/internal/version"
)

// execute runs the root command with args inside dir.
func execute(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	setupRoot()
	resetFlags(rootCmd)
	t.Chdir(dir)
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, ".cache"))
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--color", "off"}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

// resetFlags restores flag defaults; cobra keeps values between Execute calls.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func TestReadUIMode(t *testing.T) {
	cases := []struct {
		in      string
		want    uiMode
		wantErr bool
	}{
		{"", uiModeAuto, false},
		{"AUTO", uiModeAuto, false},
		{" on ", uiModeOn, false},
		{"off", uiModeOff, false},
		{"sometimes", "", true},
	}
	for _, tc := range cases {
		got, err := readUIMode(tc.in)
		if (err != nil) != tc.wantErr {
			t.Fatalf("readUIMode(%q) err = %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("readUIMode(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestInitThenBuild(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, dir, "init", "demo")
	if err != nil {
		t.Fatalf("init: %v\n%s", err, out)
	}
	if !strings.Contains(out, "src/Counter.tsx") {
		t.Fatalf("init output:\n%s", out)
	}
	if _, err := execute(t, dir, "init", "demo"); err == nil {
		t.Fatalf("second init must refuse an existing weft.toml")
	}

	project := filepath.Join(dir, "demo")
	out, err = execute(t, project, "build", "--ui", "off", "--report", "report.html")
	if err != nil {
		t.Fatalf("build: %v\n%s", err, out)
	}
	for _, rel := range []string{
		"dist/src/index.server.js",
		"dist/src/Counter.server.js",
		"dist/src/Counter.client.js",
		"dist/" + driver.ManifestName,
		"report.html",
	} {
		if _, err := os.Stat(filepath.Join(project, filepath.FromSlash(rel))); err != nil {
			t.Errorf("missing %s: %v", rel, err)
		}
	}
	if _, err := os.Stat(filepath.Join(project, "dist", "src", "index.client.js")); !os.IsNotExist(err) {
		t.Errorf("index has no interactive component, got client module (err=%v)", err)
	}

	out, err = execute(t, project, "inspect", "src/Counter.tsx")
	if err != nil {
		t.Fatalf("inspect: %v\n%s", err, out)
	}
	for _, want := range []string{"== Counter (client) ==", "-- paths --", "initCounter"} {
		if !strings.Contains(out, want) {
			t.Errorf("inspect output lacks %q:\n%s", want, out)
		}
	}

	if out, err = execute(t, project, "clean", "--keep-cache"); err != nil {
		t.Fatalf("clean: %v\n%s", err, out)
	}
	if _, err := os.Stat(filepath.Join(project, "dist")); !os.IsNotExist(err) {
		t.Errorf("dist still exists (err=%v)", err)
	}
}

func TestCheckFailsOnMissingImport(t *testing.T) {
	dir := t.TempDir()
	if _, err := execute(t, dir, "init"); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(filepath.Join(dir, "src", "Counter.tsx")); err != nil {
		t.Fatal(err)
	}
	out, err := execute(t, dir, "check")
	if err == nil {
		t.Fatalf("check must fail when an import cannot be resolved:\n%s", out)
	}
	if !strings.Contains(err.Error(), "cannot load source") {
		t.Fatalf("error = %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "dist")); !os.IsNotExist(statErr) {
		t.Fatalf("check wrote output (err=%v)", statErr)
	}
}

func TestHydrateAudit(t *testing.T) {
	dir := t.TempDir()
	page := `<!doctype html><html><body>
<div wf-s="Counter_r0"><p wf="s1">1</p><button wf="s2">+</button></div>
<script type="application/json" wf-p="Counter_r0">{"start":1}</script>
<div wf-s="Broken"></div>
</body></html>`
	if err := os.WriteFile(filepath.Join(dir, "page.html"), []byte(page), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := execute(t, dir, "hydrate", "page.html")
	if err != nil {
		t.Fatalf("hydrate: %v\n%s", err, out)
	}
	for _, want := range []string{"Counter_r0  [hydrates] start=1", "malformed scope marker", "2 instances, 1 hydrate"} {
		if !strings.Contains(out, want) {
			t.Errorf("hydrate output lacks %q:\n%s", want, out)
		}
	}
}

func TestVersionJSON(t *testing.T) {
	out, err := execute(t, t.TempDir(), "version", "--format", "json", "--full")
	if err != nil {
		t.Fatal(err)
	}
	var payload versionPayload
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if payload.Tool != "weft" || payload.Version == "" || payload.GitCommit != "unknown" {
		t.Fatalf("payload = %+v", payload)
	}
}

func TestReadColorModeRejectsUnknown(t *testing.T) {
	if _, err := readColorMode("always"); err == nil || !strings.Contains(err.Error(), "--color") {
		t.Fatalf("err = %v", err)
	}
	if on, err := readColorMode("off"); err != nil || on {
		t.Fatalf("off = %v, %v", on, err)
	}
}

func TestPrintVersionFull(t *testing.T) {
	var buf bytes.Buffer
	printVersion(&buf, describeVersion(version.Info{Version: "1.2.3", GoVersion: "go1.25.1"}, true, true, true))
	out := buf.String()
	for _, want := range []string{"commit:   unknown", "go:       go1.25.1", "manifest: " + driver.ManifestName} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in\n%s", want, out)
		}
	}
}
