package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"macrokit/internal/diag"
	"macrokit/internal/source"
)

const tabWidth = 4

type paint func(a ...any) string

type palette struct {
	err, warn, info paint
	code            paint
	gutter          paint
	caret           paint
	note            paint
	fix             paint
	del, add        paint
}

func newPalette(enabled bool) palette {
	mk := func(attrs ...color.Attribute) paint {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c.SprintFunc()
	}
	return palette{
		err:    mk(color.FgRed, color.Bold),
		warn:   mk(color.FgYellow, color.Bold),
		info:   mk(color.FgCyan, color.Bold),
		code:   mk(color.Bold),
		gutter: mk(color.FgBlue),
		caret:  mk(color.FgRed, color.Bold),
		note:   mk(color.FgCyan),
		fix:    mk(color.FgGreen),
		del:    mk(color.FgRed),
		add:    mk(color.FgGreen),
	}
}

func (p palette) severity(s diag.Severity) paint {
	switch s {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty печатает диагностики в человекочитаемом виде:
//
//	path:line:col: SEVERITY CODE: message
//	   2 | fn greet() {}
//	     |    ^~~~~
//
// Заметки, исправления и их превью выводятся по флагам opts.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) error {
	if bag == nil || fs == nil {
		return nil
	}
	pal := newPalette(opts.Color)
	for _, d := range bag.Items() {
		var b strings.Builder
		renderDiagnostic(&b, d, fs, opts, pal)
		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}
	}
	return nil
}

func renderDiagnostic(b *strings.Builder, d diag.Diagnostic, fs *source.FileSet, opts PrettyOpts, pal palette) {
	f := fs.Get(d.Primary.File)
	start, end := fs.Resolve(d.Primary)
	fmt.Fprintf(b, "%s:%d:%d: %s %s: %s\n",
		formatPath(f, opts.PathMode, opts.BaseDir), start.Line, start.Col,
		pal.severity(d.Severity)(d.Severity.String()), pal.code(d.Code.ID()), d.Message)

	renderSnippet(b, f, start, end, int(opts.Context), pal)

	if opts.ShowNotes {
		for _, n := range d.Notes {
			ns, _ := fs.Resolve(n.Span)
			fmt.Fprintf(b, "  %s %s:%d:%d: %s\n", pal.note("note:"),
				formatPath(fs.Get(n.Span.File), opts.PathMode, opts.BaseDir), ns.Line, ns.Col, n.Msg)
		}
	}

	if !opts.ShowFixes {
		return
	}
	for i, fx := range d.Fixes {
		fmt.Fprintf(b, "  %s %s\n", pal.fix(fmt.Sprintf("fix #%d:", i+1)), fx.Title)
		for _, e := range fx.Edits {
			es, ee := fs.Resolve(e.Span)
			fmt.Fprintf(b, "    edit %s:%d:%d-%d:%d apply=%q\n",
				formatPath(fs.Get(e.Span.File), opts.PathMode, opts.BaseDir),
				es.Line, es.Col, ee.Line, ee.Col, e.NewText)
			if !opts.ShowPreview {
				continue
			}
			preview, err := buildFixEditPreview(fs, e)
			if err != nil {
				fmt.Fprintf(b, "    preview unavailable: %v\n", err)
				continue
			}
			b.WriteString("    preview:\n")
			for _, line := range preview.before {
				fmt.Fprintf(b, "      %s\n", pal.del("- "+expandTabs(line)))
			}
			for _, line := range preview.after {
				fmt.Fprintf(b, "      %s\n", pal.add("+ "+expandTabs(line)))
			}
		}
	}
}

// renderSnippet выводит строку с ошибкой, context строк вокруг неё и подчёркивание.
// Для многострочных спанов подчёркивается только первая строка.
func renderSnippet(b *strings.Builder, f *source.File, start, end source.LineCol, context int, pal palette) {
	if f == nil || len(f.Content) == 0 {
		return
	}
	lineCount := uint32(len(f.LineIdx)) + 1 //nolint:gosec // bounded by content length
	ctx := uint32(max(context, 0))          //nolint:gosec // non-negative
	first := uint32(1)
	if start.Line > ctx {
		first = max(start.Line-ctx, 1)
	}
	last := min(start.Line+ctx, lineCount)
	width := len(fmt.Sprint(last))

	for ln := first; ln <= last; ln++ {
		text := f.GetLine(ln)
		fmt.Fprintf(b, "%s %s\n", pal.gutter(fmt.Sprintf("%*d |", width+2, ln)), expandTabs(text))
		if ln != start.Line {
			continue
		}
		pad, length := underline(text, start, end)
		fmt.Fprintf(b, "%s %s%s\n", pal.gutter(fmt.Sprintf("%*s |", width+2, "")),
			strings.Repeat(" ", pad), pal.caret("^"+strings.Repeat("~", max(length-1, 0))))
	}
}

// underline возвращает отступ и ширину подчёркивания в колонках терминала.
func underline(line string, start, end source.LineCol) (pad, length int) {
	startByte := min(max(int(start.Col)-1, 0), len(line))
	endByte := len(line)
	if end.Line == start.Line {
		endByte = min(max(int(end.Col)-1, startByte), len(line))
	}
	pad = runewidth.StringWidth(expandTabs(line[:startByte]))
	length = runewidth.StringWidth(expandTabs(line[startByte:endByte]))
	if length == 0 {
		length = 1
	}
	return pad, length
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", strings.Repeat(" ", tabWidth))
}
