// Package diag defines the diagnostic model shared by the lexer, the macro
// expanders and the engine.
//
// # Purpose
//
//   - Provide deterministic, serialisable records for findings produced while
//     tokenizing fragments and extracting macro directives.
//   - Offer light-weight utilities (Reporter, Bag) that let producers emit
//     diagnostics without coupling to storage or formatting.
//
// Rendering lives in internal/diagfmt. The engine decides which diagnostics
// are fatal for an invocation; this package only records severity.
//
// # Data model
//
// Diagnostic is the central record:
//
//   - Severity – Info, Warning or Error.
//   - Code – numeric identifier (see codes.go) with a stable string ID.
//   - Message – short, actionable text.
//   - Primary – the source.Span inside the fragment the finding refers to.
//   - Notes – optional secondary spans/messages.
//   - Fixes – optional text edits that would address the finding.
//
// # Emitting diagnostics
//
// Producers hold a Reporter. ReportError/ReportWarning/ReportInfo return a
// ReportBuilder that accepts notes and fixes before Emit. BagReporter
// aggregates into a Bag, which supports sorting and deduplication.
package diag
