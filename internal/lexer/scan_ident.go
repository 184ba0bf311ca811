package lexer

import (
	"unicode/utf8"

	"macrokit/internal/diag"
	"macrokit/internal/token"
)

// scanIdentOrKeyword сканирует [Ident] и проверяет через LookupKeyword.
// Ключевые слова регистрозависимые. Token.Text - ровно исходный срез.
func (lx *Lexer) scanIdentOrKeyword() token.Token {
	if lx.rawIdentAhead() {
		return lx.scanRawIdent()
	}
	start := lx.cursor.Mark()

	r, sz := lx.peekRune()
	if sz == 0 {
		sp := lx.cursor.SpanFrom(start)
		return token.Token{Kind: token.Invalid, Span: sp, Text: ""}
	}
	if r < utf8RuneSelf {
		lx.cursor.Bump()
		for isIdentContinueByte(lx.cursor.Peek()) {
			lx.cursor.Bump()
		}
	} else {
		if !isIdentStartRune(r) {
			lx.bumpRune()
			sp := lx.cursor.SpanFrom(start)
			lx.errLex(diag.LexUnknownChar, sp, "unknown character in fragment")
			return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}
		}
		lx.bumpRune()
		for {
			r2, sz2 := lx.peekRune()
			if sz2 == 0 || !isIdentContinueRune(r2) {
				break
			}
			lx.bumpRune()
		}
	}

	sp := lx.cursor.SpanFrom(start)
	text := lx.text(sp)

	if k, ok := token.LookupKeyword(text); ok {
		return token.Token{Kind: k, Span: sp, Text: text}
	}
	return token.Token{Kind: token.Ident, Span: sp, Text: text}
}

// rawIdentAhead: курсор стоит на `r#`, за которым начинается идентификатор.
func (lx *Lexer) rawIdentAhead() bool {
	b0, b1, ok := lx.cursor.Peek2()
	if !ok || b0 != 'r' || b1 != '#' || lx.cursor.Off+2 >= lx.cursor.Limit {
		return false
	}
	rest := lx.file.Content[lx.cursor.Off+2 : lx.cursor.Limit]
	if b := rest[0]; b < utf8RuneSelf {
		return isIdentStartByte(b)
	}
	r, _ := utf8.DecodeRune(rest)
	return isIdentStartRune(r)
}

// scanRawIdent читает `r#name` как один Ident; ключевые слова не проверяются,
// `r#struct` - обычный идентификатор. Text включает префикс.
func (lx *Lexer) scanRawIdent() token.Token {
	start := lx.cursor.Mark()
	lx.cursor.Bump() // r
	lx.cursor.Bump() // #
	lx.bumpRune()
	for {
		r, sz := lx.peekRune()
		if sz == 0 || !isIdentContinueRune(r) {
			break
		}
		lx.bumpRune()
	}
	sp := lx.cursor.SpanFrom(start)
	return token.Token{Kind: token.Ident, Span: sp, Text: lx.text(sp)}
}
