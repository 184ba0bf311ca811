package macro

import (
	"fmt"
	"strconv"

	"macrokit/internal/diag"
	"macrokit/internal/source"
	"macrokit/internal/token"
)

func foundDirective(name string, lit token.Token) Directive {
	return Directive{Name: name, Value: lit.Unquoted(), Span: lit.ContentSpan(), Found: true}
}

func defaultDirective(name, value string, at source.Span) Directive {
	return Directive{Name: name, Value: value, Span: at, Defaulted: true}
}

// spanOf covers tokens[0] .. tokens[len-1].
func spanOf(tokens []token.Token) source.Span {
	if len(tokens) == 0 {
		return source.Span{}
	}
	return tokens[0].Span.Cover(tokens[len(tokens)-1].Span)
}

// significant drops the trailing EOF.
func significant(tokens []token.Token) []token.Token {
	if n := len(tokens); n > 0 && tokens[n-1].Kind == token.EOF {
		return tokens[:n-1]
	}
	return tokens
}

// ===== attribute arguments =====

// argPair is one `key = value` element of an attribute argument list.
type argPair struct {
	key   token.Token
	value []token.Token
}

// splitArgs разбивает аргументы по запятым верхнего уровня.
// Элемент без `ident =` репортится как MacroArgMalformed и пропускается.
func (c *Context) splitArgs(f fragment) []argPair {
	var (
		pairs []argPair
		seg   []token.Token
		depth int
	)
	flush := func() {
		defer func() { seg = seg[:0] }()
		if len(seg) == 0 {
			return
		}
		if len(seg) >= 2 && seg[0].Kind == token.Ident && seg[1].Kind == token.Assign {
			pairs = append(pairs, argPair{
				key:   seg[0],
				value: append([]token.Token(nil), seg[2:]...),
			})
			return
		}
		diag.ReportWarning(c.Reporter, diag.MacroArgMalformed, spanOf(seg),
			"malformed macro argument, expected `key = \"value\"`").Emit()
	}

	for _, tok := range significant(f.tokens) {
		switch tok.Kind {
		case token.LParen, token.LBracket, token.LBrace:
			depth++
		case token.RParen, token.RBracket, token.RBrace:
			if depth > 0 {
				depth--
			}
		case token.Comma:
			if depth == 0 {
				flush()
				continue
			}
		}
		seg = append(seg, tok)
	}
	flush()
	return pairs
}

// stringArg resolves key among pairs. The first occurrence wins; a value
// that is not a single string literal is reported and defaulted.
func (c *Context) stringArg(f fragment, pairs []argPair, key, def string) Directive {
	var (
		d     Directive
		first = true
	)
	for _, p := range pairs {
		if p.key.Text != key {
			continue
		}
		if !first {
			diag.ReportWarning(c.Reporter, diag.MacroDuplicateArg, p.key.Span,
				fmt.Sprintf("duplicate argument `%s`, the first one is used", key)).Emit()
			continue
		}
		first = false
		if len(p.value) == 1 && p.value[0].Kind == token.StringLit {
			d = foundDirective(key, p.value[0])
			continue
		}
		sp := p.key.Span
		if len(p.value) > 0 {
			sp = spanOf(p.value)
		}
		b := diag.ReportWarning(c.Reporter, diag.MacroArgNotString, sp,
			fmt.Sprintf("argument `%s` must be a string literal", key)).
			WithNote(p.key.Span, "default message is used instead")
		if len(p.value) == 1 && p.value[0].Kind != token.Invalid {
			b = b.WithFix("quote the value", diag.TextEdit{Span: sp, NewText: strconv.Quote(p.value[0].Text)})
		}
		b.Emit()
	}
	if d.Found {
		return d
	}
	d = defaultDirective(key, def, f.start())
	c.noteDefault(f, d)
	return d
}

// ===== function body =====

// functionBodyOpen finds the first `fn` keyword and the first `{` after it.
func functionBodyOpen(tokens []token.Token) (fn, brace token.Token, ok bool) {
	i := 0
	for ; i < len(tokens); i++ {
		if tokens[i].Kind == token.KwFn {
			break
		}
	}
	if i == len(tokens) {
		return token.Token{}, token.Token{}, false
	}
	for j := i + 1; j < len(tokens); j++ {
		if tokens[j].Kind == token.LBrace {
			return tokens[i], tokens[j], true
		}
	}
	return tokens[i], token.Token{}, false
}

// ===== derive header =====

// outerAttr is `#[ ... ]` with the bracket contents in body.
type outerAttr struct {
	span source.Span
	body []token.Token
}

type deriveHeader struct {
	keyword token.Token
	name    token.Token
	// attrs holds every `#[...]` in the input, in source order.
	attrs []outerAttr
}

// parseDeriveHeader ищет первый `struct`/`enum`, за которым идёт идентификатор,
// и собирает атрибуты по всему фрагменту: перед типом, на полях и вариантах.
// Строковые литералы - отдельные токены, атрибуты внутри них не видны.
func parseDeriveHeader(tokens []token.Token) (deriveHeader, bool) {
	var h deriveHeader
	found := false
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		switch tok.Kind {
		case token.Hash:
			if attr, next, ok := parseOuterAttr(tokens, i); ok {
				h.attrs = append(h.attrs, attr)
				i = next - 1
			}
		case token.KwStruct, token.KwEnum:
			if !found && i+1 < len(tokens) && tokens[i+1].Kind == token.Ident {
				h.keyword = tok
				h.name = tokens[i+1]
				found = true
			}
		}
	}
	return h, found
}

// parseOuterAttr разбирает `#[...]` (и `#![...]`) начиная с tokens[i] == '#'.
// next указывает на первый токен после закрывающей ']'.
func parseOuterAttr(tokens []token.Token, i int) (attr outerAttr, next int, ok bool) {
	j := i + 1
	if j < len(tokens) && tokens[j].Kind == token.Bang {
		j++
	}
	if j >= len(tokens) || tokens[j].Kind != token.LBracket {
		return outerAttr{}, i + 1, false
	}
	depth := 0
	for k := j; k < len(tokens); k++ {
		switch tokens[k].Kind {
		case token.LBracket:
			depth++
		case token.RBracket:
			depth--
			if depth == 0 {
				return outerAttr{
					span: tokens[i].Span.Cover(tokens[k].Span),
					body: tokens[j+1 : k],
				}, k + 1, true
			}
		}
	}
	return outerAttr{}, i + 1, false
}

// helperMessage resolves `#[helper = "..."]` among the collected attributes;
// the first one wins.
func (c *Context) helperMessage(f fragment, h deriveHeader, helper, def string) Directive {
	var d Directive
	for _, a := range h.attrs {
		if len(a.body) == 0 || a.body[0].Kind != token.Ident || a.body[0].Text != helper {
			continue
		}
		if d.Found {
			diag.ReportWarning(c.Reporter, diag.MacroDuplicateArg, a.span,
				fmt.Sprintf("duplicate helper attribute `%s`, the first one is used", helper)).Emit()
			continue
		}
		body := a.body
		if len(body) == 3 && body[1].Kind == token.Assign && body[2].Kind == token.StringLit {
			d = foundDirective(helper, body[2])
			continue
		}
		diag.ReportWarning(c.Reporter, diag.MacroArgNotString, a.span,
			fmt.Sprintf("helper attribute must have the form #[%s = \"...\"]", helper)).Emit()
	}
	if d.Found {
		return d
	}
	d = defaultDirective(helper, def, f.start())
	c.noteDefault(f, d)
	return d
}

// ===== string literal =====

func firstStringLit(tokens []token.Token) (token.Token, bool) {
	for _, tok := range tokens {
		if tok.Kind == token.StringLit {
			return tok, true
		}
	}
	return token.Token{}, false
}
