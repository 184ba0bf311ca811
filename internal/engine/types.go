package engine

import (
	"time"

	"macrokit/internal/diag"
	"macrokit/internal/macro"
	"macrokit/internal/source"
)

// Request asks for one macro expansion.
type Request struct {
	// ID is echoed in the Result and logs; generated when empty.
	ID      string
	Macro   string
	Input   string
	Args    string
	HasArgs bool
}

// Result is the outcome of one request. It is never nil once returned,
// even when the expansion failed: diagnostics still live in Bag.
type Result struct {
	ID         string
	Macro      string
	Kind       macro.Kind
	Output     string
	Additive   bool
	Directives []macro.Directive
	// FileSet holds the fragments the diagnostics point into.
	FileSet *source.FileSet
	Bag     *diag.Bag
	Cached  bool
	Err     error
	Elapsed time.Duration
}

// Failed reports whether the host must not splice Output.
func (r *Result) Failed() bool {
	return r == nil || r.Err != nil
}

// Status captures progress state of one request within a batch.
type Status string

const (
	// StatusQueued indicates the request is waiting for a worker.
	StatusQueued Status = "queued"
	// StatusWorking indicates the request is being expanded.
	StatusWorking Status = "working"
	// StatusDone indicates the expansion succeeded.
	StatusDone Status = "done"
	// StatusCached indicates the output came from the disk cache.
	StatusCached Status = "cached"
	// StatusError indicates the expansion failed.
	StatusError Status = "error"
)

// Event reports progress for one request of a batch.
type Event struct {
	Index   int
	Total   int
	ID      string
	Macro   string
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events. Called from worker goroutines.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

// FuncSink adapts a function to ProgressSink.
type FuncSink func(Event)

func (f FuncSink) OnEvent(evt Event) { f(evt) }
