// Package token defines lexical token kinds and trivia for macro fragments.
// Invariants:
//   - Token.Text is the exact source slice covered by Token.Span.
//   - Only three words are keywords: fn, struct, enum. Everything else the
//     fragment grammar needs (visibility, generics, paths) lexes as Ident or
//     punctuation.
//   - Comments and whitespace are Leading trivia and never appear in the
//     main token stream.
//   - A StringLit keeps its quotes in Text; Token.Unquoted strips them and
//     leaves escapes untouched.
package token
