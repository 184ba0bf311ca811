// Package trace records what the expansion engine is doing.
//
// Enable tracing via command-line flags:
//
//	macrokit batch --trace=- --trace-level=detail jobs.toml
//
// Tracers:
//
//   - Nop: zero-overhead tracer when disabled
//   - StreamTracer: immediate write to a file or stderr
//   - RingTracer: last N events in memory, dumped on failure
//   - MultiTracer: fan-out to several tracers
//
// Levels map to scopes: LevelPhase shows commands and batches, LevelDetail
// adds single invocations, LevelDebug adds extraction steps.
//
// Tracers travel through context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span, ctx := trace.StartSpan(ctx, trace.ScopeInvocation, "expand:say_hello")
//	defer span.End("")
//
// The engine tags each invocation with trace.WithRequest, so every event of
// a batch carries the ID of the invocation it belongs to.
package trace
