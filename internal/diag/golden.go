package diag

import (
	"fmt"
	"strings"

	"macrokit/internal/source"
)

// FormatShortDiagnostics renders diagnostics one per line:
//
//	<severity> <ID> <path>:<line>:<col> <message>
//
// Multi-line messages are folded onto a single line. Notes follow their
// diagnostic when includeNotes is set. The order of diags is preserved;
// callers sort the Bag first when they need a stable order.
func FormatShortDiagnostics(diags []Diagnostic, fs *source.FileSet, includeNotes bool) string {
	if fs == nil || len(diags) == 0 {
		return ""
	}
	lines := make([]string, 0, len(diags))
	for _, d := range diags {
		lines = append(lines, shortLine(strings.ToLower(d.Severity.String()), d.Code, d.Primary, d.Message, fs))
		if !includeNotes {
			continue
		}
		for _, n := range d.Notes {
			lines = append(lines, shortLine("note", d.Code, n.Span, n.Msg, fs))
		}
	}
	return strings.Join(lines, "\n")
}

func shortLine(sev string, code Code, sp source.Span, msg string, fs *source.FileSet) string {
	path := "<unknown>"
	var pos source.LineCol
	if int(sp.File) < fs.Len() {
		path = fs.Get(sp.File).Path
		pos, _ = fs.Resolve(sp)
	}
	return fmt.Sprintf("%s %s %s:%d:%d %s", sev, code.ID(), path, pos.Line, pos.Col, flatten(msg))
}

func flatten(msg string) string {
	return strings.Join(strings.Fields(msg), " ")
}
