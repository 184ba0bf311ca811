// Package fix applies the quick fixes attached to diagnostics to the
// fragments they point into. Nothing is written to disk: the caller gets the
// rewritten text of every touched fragment and decides what to do with it
// (the CLI re-runs the expansion with fixed arguments).
package fix

import (
	"errors"
	"fmt"
	"sort"

	"macrokit/internal/diag"
	"macrokit/internal/source"
)

// ErrNoFixes is returned when no fixes were applied.
var ErrNoFixes = errors.New("no applicable fixes found")

// AppliedFix records a successfully applied fix.
type AppliedFix struct {
	Title     string
	Code      diag.Code
	Message   string
	EditCount int
}

// SkippedFix captures a skipped fix with a reason.
type SkippedFix struct {
	Title  string
	Reason string
}

// FileChange is the rewritten content of one fragment.
type FileChange struct {
	File      source.FileID
	Path      string
	Content   string
	EditCount int
}

// Result aggregates applied fixes, skipped ones and changed fragments.
type Result struct {
	Applied []AppliedFix
	Skipped []SkippedFix
	Changes []FileChange
}

// Change returns the rewritten content of the fragment named path.
func (r *Result) Change(path string) (string, bool) {
	if r == nil {
		return "", false
	}
	for _, c := range r.Changes {
		if c.Path == path {
			return c.Content, true
		}
	}
	return "", false
}

type candidate struct {
	diag  diag.Diagnostic
	fix   diag.Fix
	order int
}

// Apply takes the first fix of every diagnostic, in source order, and applies
// those that do not overlap an already accepted one.
func Apply(fs *source.FileSet, diagnostics []diag.Diagnostic) (*Result, error) {
	result := &Result{}
	if fs == nil {
		return result, fmt.Errorf("fix: FileSet is nil")
	}

	candidates := make([]candidate, 0, len(diagnostics))
	for i, d := range diagnostics {
		if len(d.Fixes) == 0 {
			continue
		}
		fx := d.Fixes[0]
		if len(fx.Edits) == 0 {
			result.Skipped = append(result.Skipped, SkippedFix{Title: fx.Title, Reason: "fix has no edits"})
			continue
		}
		candidates = append(candidates, candidate{diag: d, fix: fx, order: i})
	}
	if len(candidates) == 0 {
		return result, ErrNoFixes
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i].diag.Primary, candidates[j].diag.Primary
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return candidates[i].order < candidates[j].order
	})

	accepted := make(map[source.FileID][]diag.TextEdit)
	for _, cand := range candidates {
		if reason := checkEdits(fs, accepted, cand.fix.Edits); reason != "" {
			result.Skipped = append(result.Skipped, SkippedFix{Title: cand.fix.Title, Reason: reason})
			continue
		}
		for _, e := range cand.fix.Edits {
			accepted[e.Span.File] = append(accepted[e.Span.File], e)
		}
		result.Applied = append(result.Applied, AppliedFix{
			Title:     cand.fix.Title,
			Code:      cand.diag.Code,
			Message:   cand.diag.Message,
			EditCount: len(cand.fix.Edits),
		})
	}
	if len(result.Applied) == 0 {
		return result, ErrNoFixes
	}

	ids := make([]source.FileID, 0, len(accepted))
	for id := range accepted {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		file := fs.Get(id)
		result.Changes = append(result.Changes, FileChange{
			File:      id,
			Path:      file.Path,
			Content:   ApplyEdits(file.Content, accepted[id]),
			EditCount: len(accepted[id]),
		})
	}
	return result, nil
}

// checkEdits returns a skip reason, empty when the edits can be applied.
func checkEdits(fs *source.FileSet, accepted map[source.FileID][]diag.TextEdit, edits []diag.TextEdit) string {
	for i, e := range edits {
		if int(e.Span.File) >= fs.Len() {
			return fmt.Sprintf("edit targets unknown file %d", e.Span.File)
		}
		if e.Span.End < e.Span.Start || int(e.Span.End) > len(fs.Get(e.Span.File).Content) {
			return "edit span out of range"
		}
		for _, prev := range accepted[e.Span.File] {
			if spansConflict(prev, e) {
				return "conflicts with a previously applied edit"
			}
		}
		for _, other := range edits[:i] {
			if other.Span.File == e.Span.File && spansConflict(other, e) {
				return "fix edits overlap each other"
			}
		}
	}
	return ""
}

// spansConflict reports whether two edits' spans overlap.
// Spans are half-open [Start, End). Two insertions never conflict; an
// insertion conflicts with a replacement only strictly inside it.
func spansConflict(a, b diag.TextEdit) bool {
	aStart, aEnd := a.Span.Start, a.Span.End
	bStart, bEnd := b.Span.Start, b.Span.End

	if aStart == aEnd && bStart == bEnd {
		return false
	}
	if aStart == aEnd {
		return bStart < aStart && aStart < bEnd
	}
	if bStart == bEnd {
		return aStart < bStart && bStart < aEnd
	}
	return aStart < bEnd && bStart < aEnd
}

// ApplyEdits splices non-overlapping edits into content. Edits at the same
// offset are applied in the given order.
func ApplyEdits(content []byte, edits []diag.TextEdit) string {
	sorted := make([]diag.TextEdit, len(edits))
	copy(sorted, edits)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Span.Start < sorted[j].Span.Start
	})

	out := make([]byte, 0, len(content))
	pos := uint32(0)
	for _, e := range sorted {
		start := max(e.Span.Start, pos)
		out = append(out, content[pos:start]...)
		out = append(out, e.NewText...)
		pos = max(e.Span.End, start)
	}
	out = append(out, content[pos:]...)
	return string(out)
}
