package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"macrokit/internal/macro"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func noEnv(string) (string, bool) { return "", false }

func TestFindManifest_WalksUp(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ManifestName), "")
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	path, ok, err := FindManifest(nested)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, filepath.Join(root, ManifestName), path)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ManifestName)
	writeFile(t, path, `
[engine]
jobs = 3
strict = true

[cache]
enabled = false
dir = ".cache"

[[alias]]
declaration = "//! MACRO: attribute(greet)"
builtin = "say_hello"
`)
	cfg, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, 3, cfg.Engine.Jobs)
	require.True(t, cfg.Engine.Strict)
	require.Equal(t, 100, cfg.Engine.MaxDiagnostics, "unset keys keep defaults")
	require.False(t, cfg.Cache.Enabled)
	require.Len(t, cfg.Aliases, 1)

	cacheDir, err := cfg.CacheDir()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, ".cache"), cacheDir)

	c, err := cfg.OpenCache()
	require.NoError(t, err)
	require.Nil(t, c, "disabled cache")

	reg, err := cfg.Registry()
	require.NoError(t, err)
	def, ok := reg.Lookup("greet")
	require.True(t, ok)
	require.Equal(t, macro.Attribute, def.Declaration.Kind)
}

func TestLoadFile_Errors(t *testing.T) {
	tests := []struct {
		body string
		msg  string
	}{
		{"[engine]\njobs = -1\n", "engine.jobs"},
		{"[engine]\nthreads = 2\n", "unknown keys: engine.threads"},
		{"[engine\n", "failed to parse TOML"},
		{"[[alias]]\nbuiltin = \"say_hello\"\n", "declaration and builtin are required"},
	}
	for _, tt := range tests {
		path := filepath.Join(t.TempDir(), ManifestName)
		writeFile(t, path, tt.body)
		_, err := LoadFile(path)
		require.Error(t, err, tt.body)
		require.Contains(t, err.Error(), tt.msg)
	}
}

func TestRegistry_BadAlias(t *testing.T) {
	cfg := Default()
	cfg.Aliases = []Alias{{Declaration: "//! MACRO: function(x)", Builtin: "say_hello"}}
	_, err := cfg.Registry()
	require.ErrorIs(t, err, macro.ErrKindMismatch)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvJobs:     "7",
		EnvStrict:   "true",
		EnvCacheDir: "/tmp/mk",
		EnvNoCache:  "1",
	}
	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}))
	require.Equal(t, 7, cfg.Engine.Jobs)
	require.True(t, cfg.Engine.Strict)
	require.Equal(t, "/tmp/mk", cfg.Cache.Dir)
	require.False(t, cfg.Cache.Enabled)

	bad := Default()
	err := bad.ApplyEnv(func(k string) (string, bool) {
		if k == EnvJobs {
			return "many", true
		}
		return "", false
	})
	require.ErrorContains(t, err, EnvJobs)

	require.NoError(t, Default().Validate())
	same := Default()
	require.NoError(t, same.ApplyEnv(noEnv))
	require.Equal(t, Default(), same)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ManifestName), "[engine]\njobs = 2\n")
	writeFile(t, filepath.Join(dir, ".env"), EnvJobs+"=5\n")
	t.Setenv(EnvJobs, "")
	require.NoError(t, os.Unsetenv(EnvJobs))

	cfg, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, 5, cfg.Engine.Jobs)
	require.Equal(t, filepath.Join(dir, ManifestName), cfg.Path)
}

func TestLoad_NoManifest(t *testing.T) {
	dir := t.TempDir()
	for _, k := range []string{EnvJobs, EnvStrict, EnvCacheDir, EnvNoCache} {
		t.Setenv(k, "")
	}
	cfg, err := Load(dir)
	require.NoError(t, err)
	require.Empty(t, cfg.Path)
	require.True(t, cfg.Cache.Enabled)
}

func TestDecodeBatch(t *testing.T) {
	src := `
[[invocation]]
id = "one"
macro = "say_hello"
input = "fn greet(){ return 1; }"
args = 'message = "Hello"'

[[invocation]]
macro = "hello_world"
input = '"Howdy"'
`
	reqs, err := DecodeBatch(strings.NewReader(src), "jobs.toml")
	require.NoError(t, err)
	require.Len(t, reqs, 2)
	require.Equal(t, "one", reqs[0].ID)
	require.True(t, reqs[0].HasArgs)
	require.Equal(t, `message = "Hello"`, reqs[0].Args)
	require.False(t, reqs[1].HasArgs)

	_, err = DecodeBatch(strings.NewReader("[[invocation]]\ninput = \"x\"\n"), "bad.toml")
	require.ErrorContains(t, err, "macro is required")

	_, err = DecodeBatch(strings.NewReader("[[invocation]]\nmacro = \"x\"\nextra = 1\n"), "bad.toml")
	require.ErrorContains(t, err, "unknown key")
}
