package prof

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStartStopWritesProfiles(t *testing.T) {
	dir := t.TempDir()
	opts := Options{
		CPUProfile:   filepath.Join(dir, "cpu.out"),
		MemProfile:   filepath.Join(dir, "mem.out"),
		RuntimeTrace: filepath.Join(dir, "trace.out"),
	}
	require.True(t, opts.Enabled())

	p, err := Start(opts)
	require.NoError(t, err)
	require.NoError(t, p.Stop())
	// повторный вызов безопасен
	require.NoError(t, p.Stop())

	for _, path := range []string{opts.CPUProfile, opts.MemProfile, opts.RuntimeTrace} {
		info, err := os.Stat(path)
		require.NoError(t, err, path)
		require.Positive(t, info.Size(), path)
	}
}

func TestStartTraceFailureStopsCPU(t *testing.T) {
	dir := t.TempDir()
	_, err := Start(Options{
		CPUProfile:   filepath.Join(dir, "cpu.out"),
		RuntimeTrace: filepath.Join(dir, "missing", "trace.out"),
	})
	require.ErrorContains(t, err, "failed to start trace")

	// CPU-профиль остановлен, значит его можно запустить снова
	p, err := Start(Options{CPUProfile: filepath.Join(dir, "cpu2.out")})
	require.NoError(t, err)
	require.NoError(t, p.Stop())
}

func TestDisabled(t *testing.T) {
	require.False(t, Options{}.Enabled())
	p, err := Start(Options{})
	require.NoError(t, err)
	require.NoError(t, p.Stop())

	var nilProf *Profiler
	require.NoError(t, nilProf.Stop())
}
