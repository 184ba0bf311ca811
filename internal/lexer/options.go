package lexer

import (
	"macrokit/internal/diag"
	"macrokit/internal/source"
)

type Options struct {
	// Reporter может быть nil - тогда ошибки игнорируем (но продолжаем лексить).
	Reporter diag.Reporter
}

func (lx *Lexer) errLex(code diag.Code, sp source.Span, msg string) {
	if lx.opts.Reporter == nil {
		return
	}
	diag.ReportError(lx.opts.Reporter, code, sp, msg).Emit()
}
