package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"macrokit/internal/config"
	"macrokit/internal/engine"
	"macrokit/internal/macro"
	"macrokit/internal/observ"
	"macrokit/internal/prof"
)

// skipConfigAnnotation marks commands that must work without a manifest.
const skipConfigAnnotation = "macrokit/skip-config"

// session - состояние одного запуска CLI.
type session struct {
	logger       *zap.Logger
	cfg          config.Config
	timer        *observ.Timer
	traceCleanup func(failed bool)
	profiler     *prof.Profiler
}

var current = &session{logger: zap.NewNop(), cfg: config.Default()}

func setupSession(cmd *cobra.Command, _ []string) error {
	flags := cmd.Root().PersistentFlags()

	levelStr, err := flags.GetString("log-level")
	if err != nil {
		return fmt.Errorf("failed to get log-level flag: %w", err)
	}
	logger, err := newLogger(levelStr)
	if err != nil {
		return err
	}
	current.logger = logger

	if cmd.Annotations[skipConfigAnnotation] == "" {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		current.cfg = cfg
		if cfg.Path != "" {
			logger.Debug("manifest loaded", zap.String("path", cfg.Path))
		}
	}

	if timings, _ := flags.GetBool("timings"); timings {
		current.timer = observ.NewTimer()
	}

	profiler, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	current.profiler = profiler

	cleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	current.traceCleanup = cleanup
	return nil
}

// setupProfiling starts the profilers named by --cpu-profile, --mem-profile
// and --runtime-trace.
func setupProfiling(cmd *cobra.Command) (*prof.Profiler, error) {
	flags := cmd.Root().PersistentFlags()
	var opts prof.Options
	var err error
	if opts.CPUProfile, err = flags.GetString("cpu-profile"); err != nil {
		return nil, fmt.Errorf("failed to get cpu-profile flag: %w", err)
	}
	if opts.MemProfile, err = flags.GetString("mem-profile"); err != nil {
		return nil, fmt.Errorf("failed to get mem-profile flag: %w", err)
	}
	if opts.RuntimeTrace, err = flags.GetString("runtime-trace"); err != nil {
		return nil, fmt.Errorf("failed to get runtime-trace flag: %w", err)
	}
	if !opts.Enabled() {
		return nil, nil
	}
	return prof.Start(opts)
}

func teardownSession(failed bool) {
	if current.traceCleanup != nil {
		current.traceCleanup(failed)
	}
	if err := current.profiler.Stop(); err != nil {
		current.logger.Warn("profiling", zap.Error(err))
	}
	if current.timer != nil {
		if report := current.timer.Report(); len(report.Phases) > 0 {
			fmt.Fprint(os.Stderr, current.timer.Summary())
		}
	}
	_ = current.logger.Sync()
}

// newLogger builds a production (JSON to stderr) logger at the given level.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}
	zcfg.Sampling = nil
	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	flags := cmd.Root().PersistentFlags()
	path, err := flags.GetString("config")
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to get config flag: %w", err)
	}

	var cfg config.Config
	if path != "" {
		if cfg, err = config.LoadFile(path); err != nil {
			return config.Config{}, err
		}
		if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
			return config.Config{}, err
		}
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return config.Config{}, fmt.Errorf("working directory: %w", err)
		}
		if cfg, err = config.Load(wd); err != nil {
			return config.Config{}, err
		}
	}

	maxDiagnostics, err := flags.GetInt("max-diagnostics")
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	if maxDiagnostics > 0 {
		cfg.Engine.MaxDiagnostics = maxDiagnostics
	}
	return cfg, nil
}

// engineOptions - флаги команды поверх [engine] и [cache] из манифеста.
type engineOptions struct {
	strict       bool
	noteDefaults bool
	noCache      bool
	jobs         int
	progress     engine.ProgressSink
}

func newEngine(cfg config.Config, opts engineOptions) (*engine.Engine, *macro.Registry, error) {
	reg, err := cfg.Registry()
	if err != nil {
		return nil, nil, err
	}

	var cache *engine.Cache
	if !opts.noCache {
		cache, err = cfg.OpenCache()
		if err != nil {
			// кэш не обязателен: работаем без него
			current.logger.Warn("cache disabled", zap.Error(err))
			cache = nil
		}
	}

	jobs := cfg.Engine.Jobs
	if opts.jobs > 0 {
		jobs = opts.jobs
	}

	eng := engine.New(reg, engine.Config{
		Jobs:           jobs,
		Strict:         cfg.Engine.Strict || opts.strict,
		NoteDefaults:   cfg.Engine.NoteDefaults || opts.noteDefaults,
		MaxDiagnostics: cfg.Engine.MaxDiagnostics,
		Cache:          cache,
		Logger:         current.logger,
		Progress:       opts.progress,
		Timer:          current.timer,
	})
	return eng, reg, nil
}
