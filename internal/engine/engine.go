package engine

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"macrokit/internal/diag"
	"macrokit/internal/macro"
	"macrokit/internal/observ"
	"macrokit/internal/source"
	"macrokit/internal/trace"
)

// ErrUnknownMacro is returned for a request naming no registered macro.
var ErrUnknownMacro = errors.New("unknown macro")

// Config tunes the engine. The zero value is usable.
type Config struct {
	// Jobs limits batch parallelism; <= 0 means GOMAXPROCS.
	Jobs           int
	Strict         bool
	NoteDefaults   bool
	MaxDiagnostics int
	// Cache stores clean expansions; nil disables caching.
	Cache    *Cache
	Logger   *zap.Logger
	Progress ProgressSink
	Timer    *observ.Timer
}

// Engine is the reference host: it looks macros up, feeds them their
// inputs and reads the single output back.
type Engine struct {
	registry *macro.Registry
	cfg      Config
	log      *zap.Logger
}

// New creates an engine over reg.
func New(reg *macro.Registry, cfg Config) *Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{registry: reg, cfg: cfg, log: log.Named("engine")}
}

// Registry returns the macros the engine serves.
func (e *Engine) Registry() *macro.Registry { return e.registry }

func (e *Engine) options() macro.Options {
	return macro.Options{Strict: e.cfg.Strict, NoteDefaults: e.cfg.NoteDefaults}
}

// Invoke runs one request synchronously. The returned Result is never nil.
// A fatal expansion sets Result.Err and returns the same error; the caller
// must not use Output then.
func (e *Engine) Invoke(ctx context.Context, req Request) (*Result, error) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	res := &Result{
		ID:      req.ID,
		Macro:   req.Macro,
		FileSet: source.NewFileSet(),
		Bag:     diag.NewBag(e.cfg.MaxDiagnostics),
	}
	start := time.Now()
	ctx = trace.WithRequest(ctx, req.ID)
	span, ctx := trace.StartSpan(ctx, trace.ScopeInvocation, "expand:"+req.Macro)
	done := e.cfg.Timer.Track("expand " + req.Macro)

	err := e.invoke(ctx, req, res)
	res.Err = err
	res.Elapsed = time.Since(start)

	detail := "ok"
	switch {
	case err != nil:
		detail = "error"
	case res.Cached:
		detail = "cached"
	}
	span.End(detail)
	done(detail)

	log := e.log.With(
		zap.String("id", req.ID),
		zap.String("macro", req.Macro),
		zap.Stringer("kind", res.Kind),
	)
	if err != nil {
		log.Debug("expansion failed", zap.Error(err), zap.Int("diagnostics", res.Bag.Len()))
		return res, err
	}
	log.Debug("expanded",
		zap.Bool("cached", res.Cached),
		zap.Bool("defaulted", defaulted(res.Directives)),
		zap.Duration("elapsed", res.Elapsed),
	)
	return res, nil
}

func (e *Engine) invoke(ctx context.Context, req Request, res *Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	// в реестре может быть любой Expander, не только встроенные;
	// повтор одной и той же диагностики в Bag попадает один раз
	reporter := diag.NewDedupReporter(diag.BagReporter{Bag: res.Bag})

	def, ok := e.registry.Lookup(req.Macro)
	if !ok {
		id := res.FileSet.AddVirtual(fmt.Sprintf("<%s input>", req.Macro), []byte(req.Input))
		diag.ReportError(reporter, diag.MacroUnknown, res.FileSet.Get(id).FullSpan(),
			fmt.Sprintf("no macro named %q is registered", req.Macro)).Emit()
		return fmt.Errorf("%w: %s", ErrUnknownMacro, req.Macro)
	}
	res.Kind = def.Declaration.Kind

	inv := macro.Invocation{
		Kind:    def.Declaration.Kind,
		Name:    req.Macro,
		Input:   req.Input,
		Args:    req.Args,
		HasArgs: req.HasArgs,
	}
	opts := e.options()

	var key Key
	if e.cfg.Cache != nil && !opts.NoteDefaults {
		key = KeyFor(def.Declaration, inv, opts)
		var entry CacheEntry
		hit, err := e.cfg.Cache.Get(key, &entry)
		if err != nil {
			e.log.Warn("cache read failed", zap.String("key", key.String()), zap.Error(err))
		}
		if hit {
			res.Output = entry.Output
			res.Additive = entry.Additive
			res.Directives = entry.directives()
			res.Cached = true
			return nil
		}
	}

	mctx := &macro.Context{FileSet: res.FileSet, Reporter: reporter, Options: opts}
	exp, err := def.Expander.Expand(mctx, inv)
	if err != nil {
		return fmt.Errorf("expand %s: %w", req.Macro, err)
	}
	res.Output = exp.Output
	res.Additive = exp.Additive
	res.Directives = exp.Directives
	e.traceDirectives(ctx, exp.Directives)

	// в кэш только чистые экспансии: диагностики не кэшируются
	if e.cfg.Cache != nil && !opts.NoteDefaults && res.Bag.Len() == 0 {
		if err := e.cfg.Cache.Put(key, entryFromExpansion(req.Macro, res.Kind, exp)); err != nil {
			e.log.Warn("cache write failed", zap.String("key", key.String()), zap.Error(err))
		}
	}
	return nil
}

func (e *Engine) traceDirectives(ctx context.Context, ds []macro.Directive) {
	t := trace.FromContext(ctx)
	if !t.Level().ShouldEmit(trace.ScopeExtract) {
		return
	}
	for _, d := range ds {
		how := "found"
		if d.Defaulted {
			how = "default"
		}
		trace.Point(ctx, trace.ScopeExtract, "directive:"+d.Name, fmt.Sprintf("%s %q", how, d.Value))
	}
}

// ExpandBatch runs reqs in parallel, at most Config.Jobs at a time.
// Results keep the order of reqs. A failing expansion only fails its own
// Result; the returned error is set only when ctx is canceled, in which
// case unscheduled requests have nil results.
func (e *Engine) ExpandBatch(ctx context.Context, reqs []Request) ([]*Result, error) {
	results := make([]*Result, len(reqs))
	if len(reqs) == 0 {
		return results, nil
	}
	span, ctx := trace.StartSpan(ctx, trace.ScopeBatch, "batch")
	defer span.WithExtra("size", fmt.Sprint(len(reqs))).End("")

	jobs := e.cfg.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	reqs = slices.Clone(reqs)
	for i := range reqs {
		if reqs[i].ID == "" {
			reqs[i].ID = uuid.NewString()
		}
		e.emit(Event{Index: i, Total: len(reqs), ID: reqs[i].ID, Macro: reqs[i].Macro, Status: StatusQueued})
	}

	e.log.Debug("batch started", zap.Int("size", len(reqs)), zap.Int("jobs", jobs))

	// Результаты (индексы уникальны для каждой горутины, мьютекс не нужен)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(reqs)))

	for i, req := range reqs {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			e.emit(Event{Index: i, Total: len(reqs), ID: req.ID, Macro: req.Macro, Status: StatusWorking})
			res, err := e.Invoke(gctx, req)
			results[i] = res

			evt := Event{Index: i, Total: len(reqs), ID: req.ID, Macro: req.Macro, Status: StatusDone, Elapsed: res.Elapsed}
			switch {
			case err != nil:
				evt.Status, evt.Err = StatusError, err
			case res.Cached:
				evt.Status = StatusCached
			}
			e.emit(evt)

			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, fmt.Errorf("batch: %w", err)
	}
	return results, nil
}

func (e *Engine) emit(evt Event) {
	if e.cfg.Progress != nil {
		e.cfg.Progress.OnEvent(evt)
	}
}

func defaulted(ds []macro.Directive) bool {
	for _, d := range ds {
		if d.Defaulted {
			return true
		}
	}
	return false
}
