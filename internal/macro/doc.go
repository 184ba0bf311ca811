// Package macro implements the invocation contract between a host compiler
// and its macros.
//
// Three kinds exist. An attribute macro rewrites the item it decorates, a
// derive macro produces additive code next to a type definition, and a
// function-like macro replaces its call site with an expression. Every kind
// is an Expander: a pure function from an Invocation to an Expansion.
//
// Directives (messages, type names) are extracted from tokens produced by
// internal/lexer, so string literals and comments never leak into matches.
// Optional directives fall back to fixed defaults. The derive type name is
// required and its absence is reported as ErrMissingTypeName.
package macro
