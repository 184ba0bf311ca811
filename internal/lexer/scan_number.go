package lexer

import "macrokit/internal/token"

// scanNumber съедает цифры, суффиксы (u8, i32, f64), hex/bin префиксы и
// дробную часть. Значение не проверяется: экспандерам числа не нужны.
func (lx *Lexer) scanNumber() token.Token {
	start := lx.cursor.Mark()
	for {
		b := lx.cursor.Peek()
		if isIdentContinueByte(b) {
			lx.cursor.Bump()
			continue
		}
		if b == '.' {
			if _, b1, ok := lx.cursor.Peek2(); ok && isDec(b1) {
				lx.cursor.Bump()
				continue
			}
		}
		break
	}
	sp := lx.cursor.SpanFrom(start)
	return token.Token{Kind: token.NumberLit, Span: sp, Text: lx.text(sp)}
}
