package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// ConfigFileName is looked up from the working directory upwards.
const ConfigFileName = "weft.toml"

// Cycle policies accepted in [compile].cycles.
const (
	CyclesDegrade = "degrade"
	CyclesFail    = "fail"
)

// Manifest is a loaded weft.toml together with its location.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

type Config struct {
	Project ProjectConfig `toml:"project"`
	Compile CompileConfig `toml:"compile"`
	Cache   CacheConfig   `toml:"cache"`
}

type ProjectConfig struct {
	Name    string   `toml:"name"`
	Entries []string `toml:"entries"`
	OutDir  string   `toml:"out_dir"`
}

type CompileConfig struct {
	Extensions []string `toml:"extensions"`
	Runtime    string   `toml:"runtime"`
	Cycles     string   `toml:"cycles"`
	Jobs       int      `toml:"jobs"`
}

type CacheConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// DefaultConfig is what a project without weft.toml compiles with.
func DefaultConfig() Config {
	return Config{
		Project: ProjectConfig{Name: "app", Entries: []string{"src/index.tsx"}, OutDir: "dist"},
		Compile: CompileConfig{
			Extensions: []string{".tsx", ".jsx", ".ts", ".js"},
			Runtime:    "@weft/runtime",
			Cycles:     CyclesDegrade,
			Jobs:       runtime.GOMAXPROCS(0),
		},
		Cache: CacheConfig{Enabled: true},
	}
}

// FindConfig walks up from startDir looking for weft.toml.
func FindConfig(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load finds and decodes weft.toml. Without one it returns defaults rooted at
// startDir and found=false. The environment overlay is applied either way.
func Load(startDir string) (m *Manifest, found bool, err error) {
	path, ok, err := FindConfig(startDir)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		root, absErr := filepath.Abs(startDir)
		if absErr != nil {
			return nil, false, absErr
		}
		m = &Manifest{Root: root, Config: DefaultConfig()}
	} else {
		cfg, decErr := LoadFile(path)
		if decErr != nil {
			return nil, true, decErr
		}
		m = &Manifest{Path: path, Root: filepath.Dir(path), Config: cfg}
	}
	if err := m.applyEnv(); err != nil {
		return nil, ok, err
	}
	return m, ok, nil
}

// LoadFile decodes one weft.toml on top of DefaultConfig.
func LoadFile(path string) (Config, error) {
	cfg := DefaultConfig()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("project") {
		return Config{}, fmt.Errorf("%s: missing [project]", path)
	}
	if !meta.IsDefined("project", "name") || strings.TrimSpace(cfg.Project.Name) == "" {
		return Config{}, fmt.Errorf("%s: missing [project].name", path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%s: unknown key %s", path, undecoded[0].String())
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Compile.Cycles {
	case CyclesDegrade, CyclesFail:
	default:
		return fmt.Errorf("[compile].cycles must be %q or %q, got %q", CyclesDegrade, CyclesFail, c.Compile.Cycles)
	}
	if len(c.Compile.Extensions) == 0 {
		return fmt.Errorf("[compile].extensions must not be empty")
	}
	for _, ext := range c.Compile.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("[compile].extensions: %q must start with a dot", ext)
		}
	}
	if c.Compile.Jobs < 0 {
		return fmt.Errorf("[compile].jobs must not be negative")
	}
	return nil
}

// applyEnv overlays WEFT_* variables. Process environment wins over a .env
// file next to weft.toml.
func (m *Manifest) applyEnv() error {
	dotenv := map[string]string{}
	envPath := filepath.Join(m.Root, ".env")
	if _, err := os.Stat(envPath); err == nil {
		vals, readErr := godotenv.Read(envPath)
		if readErr != nil {
			return fmt.Errorf("%s: %w", envPath, readErr)
		}
		dotenv = vals
	}
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}

	if v, ok := lookup("WEFT_OUT_DIR"); ok && v != "" {
		m.Config.Project.OutDir = v
	}
	if v, ok := lookup("WEFT_RUNTIME"); ok && v != "" {
		m.Config.Compile.Runtime = v
	}
	if v, ok := lookup("WEFT_CYCLES"); ok && v != "" {
		m.Config.Compile.Cycles = v
	}
	if v, ok := lookup("WEFT_JOBS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("WEFT_JOBS: %w", err)
		}
		m.Config.Compile.Jobs = n
	}
	if v, ok := lookup("WEFT_CACHE"); ok && v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("WEFT_CACHE: %w", err)
		}
		m.Config.Cache.Enabled = enabled
	}
	return m.Config.validate()
}

// OutDir returns the absolute output directory.
func (m *Manifest) OutDir() string {
	if filepath.IsAbs(m.Config.Project.OutDir) {
		return m.Config.Project.OutDir
	}
	return filepath.Join(m.Root, filepath.FromSlash(m.Config.Project.OutDir))
}

// Entries returns the absolute entry paths.
func (m *Manifest) Entries() []string {
	out := make([]string, 0, len(m.Config.Project.Entries))
	for _, e := range m.Config.Project.Entries {
		if filepath.IsAbs(e) {
			out = append(out, e)
			continue
		}
		out = append(out, filepath.Join(m.Root, filepath.FromSlash(e)))
	}
	return out
}

// Rel returns path relative to the project root, slash separated.
func (m *Manifest) Rel(path string) string {
	rel, err := filepath.Rel(m.Root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// Template is written by `weft init`.
const Template = `[project]
name = %q
entries = ["src/index.tsx"]
out_dir = "dist"

[compile]
extensions = [".tsx", ".jsx", ".ts", ".js"]
runtime = "@weft/runtime"
# "degrade" renders a cyclic back-edge as an empty placeholder and warns,
# "fail" stops the build.
cycles = "degrade"

[cache]
enabled = true
`
