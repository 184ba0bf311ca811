package lexer

import (
	"macrokit/internal/diag"
	"macrokit/internal/token"
)

// scanPunct выдаёт одно-байтовую пунктуацию. Составные операторы (::, ->, =>)
// не склеиваются: экспандерам достаточно отдельных байтов.
func (lx *Lexer) scanPunct() token.Token {
	start := lx.cursor.Mark()
	b := lx.cursor.Bump()
	sp := lx.cursor.SpanFrom(start)
	if b < 0x21 || b == 0x7f {
		lx.errLex(diag.LexUnknownChar, sp, "unknown character in fragment")
		return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}
	}
	return token.Token{Kind: token.LookupPunct(b), Span: sp, Text: lx.text(sp)}
}
