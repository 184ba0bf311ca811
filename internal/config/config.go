package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"macrokit/internal/engine"
	"macrokit/internal/macro"
)

// ManifestName is the project manifest looked up from the working directory.
const ManifestName = "macrokit.toml"

// Environment overrides.
const (
	EnvJobs     = "MACROKIT_JOBS"
	EnvStrict   = "MACROKIT_STRICT"
	EnvCacheDir = "MACROKIT_CACHE_DIR"
	EnvNoCache  = "MACROKIT_NO_CACHE"
)

// EngineConfig is the [engine] section.
type EngineConfig struct {
	Jobs           int  `toml:"jobs"`
	Strict         bool `toml:"strict"`
	NoteDefaults   bool `toml:"note_defaults"`
	MaxDiagnostics int  `toml:"max_diagnostics"`
}

// CacheConfig is the [cache] section.
type CacheConfig struct {
	Enabled bool `toml:"enabled"`
	// Dir is relative to the manifest; empty means $XDG_CACHE_HOME/macrokit.
	Dir string `toml:"dir"`
}

// Alias registers a builtin expander under another declaration.
type Alias struct {
	Declaration string `toml:"declaration"`
	Builtin     string `toml:"builtin"`
}

// Config is the whole manifest after env overrides.
type Config struct {
	// Path of the manifest the config came from, empty for defaults.
	Path    string       `toml:"-"`
	Engine  EngineConfig `toml:"engine"`
	Cache   CacheConfig  `toml:"cache"`
	Aliases []Alias      `toml:"alias"`
}

// Default returns the configuration used without a manifest.
func Default() Config {
	return Config{
		Engine: EngineConfig{MaxDiagnostics: 100},
		Cache:  CacheConfig{Enabled: true},
	}
}

// FindManifest walks up from startDir to locate macrokit.toml.
func FindManifest(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, ManifestName)
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

// LoadFile decodes a manifest on top of Default. Unknown keys are errors.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	cfg.Path = path
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Load finds the manifest from startDir, loads `.env` next to it (or in
// startDir without a manifest) and applies environment overrides.
// A missing manifest is not an error.
func Load(startDir string) (Config, error) {
	path, ok, err := FindManifest(startDir)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	envDir := startDir
	if ok {
		if cfg, err = LoadFile(path); err != nil {
			return Config{}, err
		}
		envDir = filepath.Dir(path)
	}
	if err := loadDotEnv(filepath.Join(envDir, ".env")); err != nil {
		return Config{}, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// loadDotEnv не перезаписывает уже выставленные переменные окружения.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides fields from the environment.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvJobs); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvJobs, err)
		}
		c.Engine.Jobs = n
	}
	if v, ok := lookup(EnvStrict); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvStrict, err)
		}
		c.Engine.Strict = b
	}
	if v, ok := lookup(EnvCacheDir); ok && v != "" {
		c.Cache.Dir = v
	}
	if v, ok := lookup(EnvNoCache); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvNoCache, err)
		}
		if b {
			c.Cache.Enabled = false
		}
	}
	return c.Validate()
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.Engine.Jobs < 0 {
		return fmt.Errorf("engine.jobs must be >= 0, got %d", c.Engine.Jobs)
	}
	if c.Engine.MaxDiagnostics < 0 {
		return fmt.Errorf("engine.max_diagnostics must be >= 0, got %d", c.Engine.MaxDiagnostics)
	}
	for i, a := range c.Aliases {
		if strings.TrimSpace(a.Declaration) == "" || strings.TrimSpace(a.Builtin) == "" {
			return fmt.Errorf("alias #%d: declaration and builtin are required", i+1)
		}
	}
	return nil
}

// Registry returns the builtin macros plus configured aliases.
func (c Config) Registry() (*macro.Registry, error) {
	reg := macro.Builtins()
	for i, a := range c.Aliases {
		if _, err := reg.Alias(a.Declaration, a.Builtin); err != nil {
			return nil, fmt.Errorf("alias #%d: %w", i+1, err)
		}
	}
	return reg, nil
}

// CacheDir resolves the cache directory.
func (c Config) CacheDir() (string, error) {
	dir := c.Cache.Dir
	if dir == "" {
		return engine.DefaultCacheDir("macrokit")
	}
	if !filepath.IsAbs(dir) && c.Path != "" {
		dir = filepath.Join(filepath.Dir(c.Path), dir)
	}
	return dir, nil
}

// OpenCache opens the configured cache, nil when caching is disabled.
func (c Config) OpenCache() (*engine.Cache, error) {
	if !c.Cache.Enabled {
		return nil, nil
	}
	dir, err := c.CacheDir()
	if err != nil {
		return nil, err
	}
	return engine.OpenCache(dir)
}
