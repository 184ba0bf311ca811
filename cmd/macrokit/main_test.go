package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"macrokit/internal/config"
	"macrokit/internal/engine"
	"macrokit/internal/version"
)

// resetFlags возвращает флаги к значениям по умолчанию: rootCmd глобальный.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	resetFlags(rootCmd)
	current = &session{logger: zap.NewNop(), cfg: config.Default()}

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append([]string{"--color", "off", "--log-level", "error"}, args...))
	err = rootCmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, config.ManifestName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const noCacheManifest = `
[cache]
enabled = false

[[alias]]
declaration = "//! MACRO: attribute(greet)"
builtin = "say_hello"
`

func TestExpandKinds(t *testing.T) {
	manifest := writeManifest(t, noCacheManifest)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "attribute with message",
			args: []string{"expand", "say_hello", "--input", "fn greet(){ return 1; }", "--args", `message = "Hello"`},
			want: "fn greet(){ println!(\"Hello\"); return 1; }\n",
		},
		{
			name: "attribute alias",
			args: []string{"expand", "greet", "--input", "fn f() {}", "--args", ""},
			want: "fn f() { println!(\"Default hello message\");}\n",
		},
		{
			name: "derive with helper",
			args: []string{"expand", "SayHello", "--input", "#[hello_message = \"Hi\"]\nenum Bar { A }"},
			want: "\nimpl SayHello for Bar {\n\tfn say_hello(){\n\t\tprintln!(\"Hi\");\n\t}\n}\n",
		},
		{
			name: "function",
			args: []string{"expand", "hello_world", "--input", `"Hi"`},
			want: "println!(\"Hi\")\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, stderr, err := execute(t, append([]string{"--config", manifest}, tt.args...)...)
			require.NoError(t, err, stderr)
			require.Equal(t, tt.want, out)
		})
	}
}

func TestExpandFromFile(t *testing.T) {
	manifest := writeManifest(t, noCacheManifest)
	input := filepath.Join(t.TempDir(), "item.rs")
	require.NoError(t, os.WriteFile(input, []byte("struct Foo;\n"), 0o600))

	out, _, err := execute(t, "--config", manifest, "expand", "SayHello", input)
	require.NoError(t, err)
	require.Contains(t, out, "impl SayHello for Foo")
	require.Contains(t, out, `println!("Default hello world message");`)
}

func TestExpandFatal(t *testing.T) {
	manifest := writeManifest(t, noCacheManifest)

	out, stderr, err := execute(t, "--config", manifest, "expand", "SayHello", "--input", "fn not_a_type() {}")
	require.Error(t, err)
	require.Empty(t, out)
	require.Contains(t, stderr, "ERROR MAC4001")

	out, stderr, err = execute(t, "--config", manifest, "expand", "nope", "--input", "x")
	require.ErrorIs(t, err, engine.ErrUnknownMacro)
	require.Empty(t, out)
	require.Contains(t, stderr, "MAC4005")
}

func TestExpandStructured(t *testing.T) {
	manifest := writeManifest(t, noCacheManifest)

	out, _, err := execute(t, "--config", manifest, "expand", "say_hello",
		"--input", "fn f() {}", "--args", "message = 42", "--format", "json")
	require.NoError(t, err)

	var got resultPayload
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Equal(t, "say_hello", got.Macro)
	require.Equal(t, "attribute", got.Kind)
	require.Contains(t, got.Output, "Default hello message")
	require.NotEmpty(t, got.ID)
	require.Len(t, got.Diagnostics, 1)
	require.Equal(t, "MAC4003", got.Diagnostics[0].Code)
	require.Len(t, got.Diagnostics[0].Fixes, 1)

	out, _, err = execute(t, "--config", manifest, "expand", "hello_world", "--input", `"x"`, "--format", "yaml")
	require.NoError(t, err)
	var gotYAML resultPayload
	require.NoError(t, yaml.Unmarshal([]byte(out), &gotYAML))
	require.Equal(t, `println!("x")`, gotYAML.Output)
}

func TestExpandRejectsInputAndFile(t *testing.T) {
	_, _, err := execute(t, "expand", "say_hello", "some.rs", "--input", "fn f() {}")
	require.Error(t, err)
}

func TestBatch(t *testing.T) {
	manifest := writeManifest(t, noCacheManifest)
	batch := filepath.Join(t.TempDir(), "batch.toml")
	require.NoError(t, os.WriteFile(batch, []byte(`
[[invocation]]
id = "first"
macro = "say_hello"
input = "fn greet(){ return 1; }"
args = 'message = "Hello"'

[[invocation]]
id = "second"
macro = "SayHello"
input = "fn broken() {}"

[[invocation]]
id = "third"
macro = "hello_world"
input = '"Hey"'
`), 0o600))

	out, _, err := execute(t, "--config", manifest, "batch", batch, "--jobs", "2", "--ui", "off")
	require.EqualError(t, err, "1 of 3 invocations failed")

	var got batchPayload
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Equal(t, 3, got.Total)
	require.Equal(t, 1, got.Failed)
	require.Len(t, got.Results, 3)

	ids := []string{got.Results[0].ID, got.Results[1].ID, got.Results[2].ID}
	require.Equal(t, []string{"first", "second", "third"}, ids)
	require.Equal(t, `fn greet(){ println!("Hello"); return 1; }`, got.Results[0].Output)
	require.NotEmpty(t, got.Results[1].Error)
	require.Empty(t, got.Results[1].Output)
	require.Equal(t, `println!("Hey")`, got.Results[2].Output)
}

func TestBatchUIFlagTakesValue(t *testing.T) {
	manifest := writeManifest(t, noCacheManifest)
	batch := filepath.Join(t.TempDir(), "batch.toml")
	require.NoError(t, os.WriteFile(batch, []byte("[[invocation]]\nmacro = \"hello_world\"\ninput = '\"Hi\"'\n"), 0o600))

	// "--ui off" - флаг и его значение, а не второй позиционный аргумент
	out, _, err := execute(t, "--config", manifest, "batch", "--ui", "off", batch)
	require.NoError(t, err)
	require.Contains(t, out, `println!(\"Hi\")`)

	_, _, err = execute(t, "--config", manifest, "batch", batch, "--ui", "sometimes")
	require.ErrorContains(t, err, `invalid --ui value "sometimes"`)
}

func TestBatchBadFile(t *testing.T) {
	batch := filepath.Join(t.TempDir(), "batch.toml")
	require.NoError(t, os.WriteFile(batch, []byte("[[invocation]]\ninput = \"x\"\n"), 0o600))

	_, _, err := execute(t, "--config", writeManifest(t, noCacheManifest), "batch", batch)
	require.ErrorContains(t, err, "macro is required")
}

func TestMacros(t *testing.T) {
	manifest := writeManifest(t, noCacheManifest)

	out, _, err := execute(t, "--config", manifest, "macros")
	require.NoError(t, err)
	require.Contains(t, out, "KIND")
	require.Contains(t, out, "Derive")
	require.Contains(t, out, "hello_message")
	require.Contains(t, out, "//! MACRO: attribute(greet)")

	out, _, err = execute(t, "--config", manifest, "macros", "--format", "json", "--kind", "attribute")
	require.NoError(t, err)
	var got []macroPayload
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	names := make([]string, 0, len(got))
	for _, m := range got {
		require.Equal(t, "attribute", m.Kind)
		names = append(names, m.Name)
	}
	require.Equal(t, []string{"greet", "say_hello"}, names)

	_, _, err = execute(t, "--config", manifest, "macros", "--kind", "procedural")
	require.Error(t, err)
}

func TestTokenize(t *testing.T) {
	input := filepath.Join(t.TempDir(), "frag.rs")
	require.NoError(t, os.WriteFile(input, []byte("#[say_hello] // hi\nfn f"), 0o600))

	out, _, err := execute(t, "--config", writeManifest(t, noCacheManifest), "tokenize", input, "--format", "json")
	require.NoError(t, err)
	require.Contains(t, out, `"kind": "KwFn"`)
	require.Contains(t, out, `"LineComment"`)

	out, _, err = execute(t, "--config", writeManifest(t, noCacheManifest), "tokenize", input)
	require.NoError(t, err)
	require.Contains(t, out, "(leading: Space, LineComment, Newline)")
}

func TestClean(t *testing.T) {
	cacheDir := filepath.Join(t.TempDir(), "cache")
	manifest := writeManifest(t, "[cache]\nenabled = true\ndir = \""+filepath.ToSlash(cacheDir)+"\"\n")

	out, _, err := execute(t, "--config", manifest, "clean")
	require.NoError(t, err)
	require.Equal(t, "cache directory not found\n", out)

	_, _, err = execute(t, "--config", manifest, "expand", "hello_world", "--input", `"cached"`)
	require.NoError(t, err)
	entries, err := os.ReadDir(filepath.Join(cacheDir, "exp"))
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	out, _, err = execute(t, "--config", manifest, "clean")
	require.NoError(t, err)
	require.Equal(t, "removed "+cacheDir+"\n", out)
	entries, err = os.ReadDir(cacheDir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestVersionCommand(t *testing.T) {
	out, _, err := execute(t, "version", "--format", "json", "--full")
	require.NoError(t, err)
	var info version.Info
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	require.Equal(t, version.Version, info.Version)
	require.NotEmpty(t, info.GoVersion)

	out, _, err = execute(t, "version")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "macrokit "), out)
	require.NotContains(t, out, "commit:")

	_, _, err = execute(t, "version", "--format", "xml")
	require.Error(t, err)
}

func TestVersionSkipsBrokenManifest(t *testing.T) {
	broken := writeManifest(t, "[engine\n")
	_, _, err := execute(t, "--config", broken, "version")
	require.NoError(t, err)

	_, _, err = execute(t, "--config", broken, "macros")
	require.Error(t, err)
}

func TestReadUIMode(t *testing.T) {
	for in, want := range map[string]uiMode{"": uiModeAuto, "AUTO": uiModeAuto, "on": uiModeOn, "off": uiModeOff} {
		got, err := readUIMode(in)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	_, err := readUIMode("sometimes")
	require.Error(t, err)
	require.True(t, shouldUseTUI(uiModeOn))
	require.False(t, shouldUseTUI(uiModeOff))
}

func TestNewLogger(t *testing.T) {
	logger, err := newLogger("debug")
	require.NoError(t, err)
	require.True(t, logger.Core().Enabled(zap.DebugLevel))

	_, err = newLogger("loud")
	require.Error(t, err)
	require.False(t, errors.Is(err, os.ErrNotExist))
}

func TestExpandFix(t *testing.T) {
	manifest := writeManifest(t, noCacheManifest)

	out, stderr, err := execute(t, "--config", manifest, "expand", "say_hello",
		"--input", "fn f() {}", "--args", "message = greeting", "--fix")
	require.NoError(t, err)
	require.Contains(t, out, `println!("greeting");`)
	require.Contains(t, stderr, "fixed MAC4003: quote the value")
	require.NotContains(t, stderr, "WARNING")

	// без --fix подставляется сообщение по умолчанию
	out, _, err = execute(t, "--config", manifest, "expand", "say_hello",
		"--input", "fn f() {}", "--args", "message = greeting")
	require.NoError(t, err)
	require.Contains(t, out, "Default hello message")
}

func TestExpandShortDiagnostics(t *testing.T) {
	manifest := writeManifest(t, noCacheManifest)

	out, stderr, err := execute(t, "--config", manifest, "expand", "say_hello",
		"--input", "fn f() {}", "--args", "message = 42", "--diag-style", "short")
	require.NoError(t, err)
	require.Contains(t, out, "Default hello message")
	require.Contains(t, stderr, "warning MAC4003 <say_hello args>:1:11 argument `message` must be a string literal")
	require.Contains(t, stderr, "note MAC4003 <say_hello args>:1:1 default message is used instead")
}
