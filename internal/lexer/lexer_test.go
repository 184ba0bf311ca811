package lexer_test

import (
	"testing"

	"macrokit/internal/diag"
	"macrokit/internal/lexer"
	"macrokit/internal/source"
	"macrokit/internal/token"
)

// testReporter собирает все диагностики, полученные от лексера
type testReporter struct {
	diagnostics []diag.Diagnostic
}

func (r *testReporter) Report(code diag.Code, sev diag.Severity, primary source.Span, msg string, notes []diag.Note, fixes []diag.Fix) {
	r.diagnostics = append(r.diagnostics, diag.Diagnostic{
		Severity: sev,
		Code:     code,
		Message:  msg,
		Primary:  primary,
		Notes:    notes,
		Fixes:    fixes,
	})
}

func (r *testReporter) codes() []diag.Code {
	out := make([]diag.Code, 0, len(r.diagnostics))
	for _, d := range r.diagnostics {
		out = append(out, d.Code)
	}
	return out
}

// makeTestLexer создаёт лексер для тестовой строки
func makeTestLexer(input string) (*lexer.Lexer, *testReporter) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("fragment", []byte(input))
	file := fs.Get(fileID)

	reporter := &testReporter{}
	return lexer.New(file, lexer.Options{Reporter: reporter}), reporter
}

func kindsOf(tokens []token.Token) []token.Kind {
	out := make([]token.Kind, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, t.Kind)
	}
	return out
}

func sameKinds(t *testing.T, input string, got, want []token.Kind) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%q: got %d tokens %v, want %d %v", input, len(got), got, len(want), want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("%q: token %d: got %s, want %s", input, i, got[i], want[i])
		}
	}
}

func TestLexer_Kinds(t *testing.T) {
	tests := []struct {
		input string
		want  []token.Kind
	}{
		{"", []token.Kind{token.EOF}},
		{"fn greet(){ return 1; }", []token.Kind{
			token.KwFn, token.Ident, token.LParen, token.RParen, token.LBrace,
			token.Ident, token.NumberLit, token.Semicolon, token.RBrace, token.EOF,
		}},
		{"#[derive(SayHello)] struct Foo;", []token.Kind{
			token.Hash, token.LBracket, token.Ident, token.LParen, token.Ident, token.RParen, token.RBracket,
			token.KwStruct, token.Ident, token.Semicolon, token.EOF,
		}},
		{`message = "Hi"`, []token.Kind{token.Ident, token.Assign, token.StringLit, token.EOF}},
		{"enum E { A, B }", []token.Kind{
			token.KwEnum, token.Ident, token.LBrace, token.Ident, token.Comma, token.Ident, token.RBrace, token.EOF,
		}},
		{"x: &'a str", []token.Kind{token.Ident, token.Colon, token.Punct, token.Lifetime, token.Ident, token.EOF}},
		{"'{' '\\n'", []token.Kind{token.CharLit, token.CharLit, token.EOF}},
		{"1.5f32 0xff", []token.Kind{token.NumberLit, token.NumberLit, token.EOF}},
		{"x.y", []token.Kind{token.Ident, token.Dot, token.Ident, token.EOF}},
		{"<T>", []token.Kind{token.Lt, token.Ident, token.Gt, token.EOF}},
		{"println!", []token.Kind{token.Ident, token.Bang, token.EOF}},
		{"Fn fnx", []token.Kind{token.Ident, token.Ident, token.EOF}},
		{"привет", []token.Kind{token.Ident, token.EOF}},
		{"struct r#Raw {}", []token.Kind{token.KwStruct, token.Ident, token.LBrace, token.RBrace, token.EOF}},
		{"r#struct r#", []token.Kind{token.Ident, token.Ident, token.Hash, token.EOF}},
	}
	for _, tt := range tests {
		lx, rep := makeTestLexer(tt.input)
		sameKinds(t, tt.input, kindsOf(lx.All()), tt.want)
		if len(rep.diagnostics) != 0 {
			t.Errorf("%q: unexpected diagnostics %v", tt.input, rep.codes())
		}
	}
}

func TestLexer_LeadingBOM(t *testing.T) {
	input := "\ufeffmessage = \"B\""
	lx, rep := makeTestLexer(input)
	toks := lx.All()
	sameKinds(t, input, kindsOf(toks), []token.Kind{token.Ident, token.Assign, token.StringLit, token.EOF})
	if len(rep.diagnostics) != 0 {
		t.Errorf("unexpected diagnostics %v", rep.codes())
	}
	if len(toks[0].Leading) != 1 || toks[0].Leading[0].Kind != token.TriviaBOM || toks[0].Span.Start != 3 {
		t.Errorf("first token = %+v", toks[0])
	}

	// BOM не в начале - обычный неизвестный символ
	input = "x \ufeff"
	lx, rep = makeTestLexer(input)
	sameKinds(t, input, kindsOf(lx.All()), []token.Kind{token.Ident, token.Invalid, token.EOF})
	if len(rep.diagnostics) != 1 {
		t.Errorf("expected one diagnostic, got %v", rep.codes())
	}
}

func TestLexer_RawIdent(t *testing.T) {
	input := "r#fn r#тип r"
	lx, _ := makeTestLexer(input)
	toks := lx.All()
	sameKinds(t, input, kindsOf(toks), []token.Kind{token.Ident, token.Ident, token.Ident, token.EOF})
	for i, want := range []string{"r#fn", "r#тип", "r"} {
		if toks[i].Text != want {
			t.Errorf("token %d text = %q, want %q", i, toks[i].Text, want)
		}
	}
}

func TestLexer_StringsAreOpaque(t *testing.T) {
	input := `"fn x() { }" fn`
	lx, _ := makeTestLexer(input)
	toks := lx.All()
	sameKinds(t, input, kindsOf(toks), []token.Kind{token.StringLit, token.KwFn, token.EOF})
	if got := toks[0].Unquoted(); got != "fn x() { }" {
		t.Errorf("Unquoted() = %q", got)
	}
}

func TestLexer_StringEscapes(t *testing.T) {
	input := `"say \"hi\"\n" x`
	lx, rep := makeTestLexer(input)
	toks := lx.All()
	sameKinds(t, input, kindsOf(toks), []token.Kind{token.StringLit, token.Ident, token.EOF})
	if got := toks[0].Unquoted(); got != `say \"hi\"\n` {
		t.Errorf("escapes must be kept verbatim, got %q", got)
	}
	if len(rep.diagnostics) != 0 {
		t.Errorf("unexpected diagnostics %v", rep.codes())
	}
}

func TestLexer_MultilineString(t *testing.T) {
	input := "\"line1\nline2\""
	lx, rep := makeTestLexer(input)
	toks := lx.All()
	sameKinds(t, input, kindsOf(toks), []token.Kind{token.StringLit, token.EOF})
	if len(rep.diagnostics) != 0 {
		t.Errorf("unexpected diagnostics %v", rep.codes())
	}
}

func TestLexer_CommentsAreTrivia(t *testing.T) {
	input := "// fn a() {\n/* fn b() { /* nested */ } */ fn c() {}"
	lx, rep := makeTestLexer(input)
	toks := lx.All()
	sameKinds(t, input, kindsOf(toks), []token.Kind{
		token.KwFn, token.Ident, token.LParen, token.RParen, token.LBrace, token.RBrace, token.EOF,
	})
	if len(rep.diagnostics) != 0 {
		t.Errorf("unexpected diagnostics %v", rep.codes())
	}

	lead := toks[0].Leading
	var kinds []token.TriviaKind
	for _, tr := range lead {
		kinds = append(kinds, tr.Kind)
	}
	want := []token.TriviaKind{token.TriviaLineComment, token.TriviaNewline, token.TriviaBlockComment, token.TriviaSpace}
	if len(kinds) != len(want) {
		t.Fatalf("leading trivia = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("trivia %d: got %s, want %s", i, kinds[i], want[i])
		}
	}
}

func TestLexer_DocTrivia(t *testing.T) {
	input := "//! MACRO: derive(SayHello)\n/// docs\nstruct S;"
	lx, _ := makeTestLexer(input)
	tok := lx.Next()
	if tok.Kind != token.KwStruct {
		t.Fatalf("got %s, want KwStruct", tok.Kind)
	}
	if len(tok.Leading) < 3 {
		t.Fatalf("expected leading trivia, got %d", len(tok.Leading))
	}
	if tok.Leading[0].Kind != token.TriviaInnerDoc || tok.Leading[0].Text != "//! MACRO: derive(SayHello)" {
		t.Errorf("first trivia = %s %q", tok.Leading[0].Kind, tok.Leading[0].Text)
	}
	if tok.Leading[2].Kind != token.TriviaDocLine {
		t.Errorf("third trivia = %s, want DocLine", tok.Leading[2].Kind)
	}
}

func TestLexer_Errors(t *testing.T) {
	tests := []struct {
		input string
		last  token.Kind
		code  diag.Code
	}{
		{`"open`, token.Invalid, diag.LexUnterminatedString},
		{`"ends with escape\`, token.Invalid, diag.LexUnterminatedString},
		{"/* open", token.EOF, diag.LexUnterminatedBlockComment},
		{"'", token.Invalid, diag.LexUnterminatedChar},
		{"'\\n", token.Invalid, diag.LexUnterminatedChar},
		{"€", token.Invalid, diag.LexUnknownChar},
		{"\x01", token.Invalid, diag.LexUnknownChar},
	}
	for _, tt := range tests {
		lx, rep := makeTestLexer(tt.input)
		toks := lx.All()
		if toks[len(toks)-1].Kind != token.EOF {
			t.Fatalf("%q: lexer must end with EOF", tt.input)
		}
		if tt.last != token.EOF && toks[0].Kind != tt.last {
			t.Errorf("%q: first token %s, want %s", tt.input, toks[0].Kind, tt.last)
		}
		if len(rep.diagnostics) != 1 {
			t.Fatalf("%q: expected 1 diagnostic, got %v", tt.input, rep.codes())
		}
		if rep.diagnostics[0].Code != tt.code {
			t.Errorf("%q: code %s, want %s", tt.input, rep.diagnostics[0].Code.ID(), tt.code.ID())
		}
		if rep.diagnostics[0].Severity != diag.SevError {
			t.Errorf("%q: severity %s", tt.input, rep.diagnostics[0].Severity)
		}
	}
}

func TestLexer_Spans(t *testing.T) {
	input := `fn  "ab"`
	lx, _ := makeTestLexer(input)
	toks := lx.All()
	if toks[0].Span.Start != 0 || toks[0].Span.End != 2 {
		t.Errorf("fn span = %v", toks[0].Span)
	}
	if toks[1].Span.Start != 4 || toks[1].Span.End != 8 {
		t.Errorf("string span = %v", toks[1].Span)
	}
	cs := toks[1].ContentSpan()
	if cs.Start != 5 || cs.End != 7 {
		t.Errorf("content span = %v", cs)
	}
	if toks[2].Span.Start != 8 || !toks[2].Span.Empty() {
		t.Errorf("EOF span = %v", toks[2].Span)
	}
}

func TestLexer_PeekDoesNotConsume(t *testing.T) {
	lx, _ := makeTestLexer("fn x")
	p := lx.Peek()
	n := lx.Next()
	if p.Kind != token.KwFn || n.Kind != token.KwFn {
		t.Fatalf("peek=%s next=%s", p.Kind, n.Kind)
	}
	if lx.Next().Kind != token.Ident {
		t.Fatal("expected Ident after fn")
	}
	if lx.Next().Kind != token.EOF || lx.Next().Kind != token.EOF {
		t.Fatal("EOF must be sticky")
	}
}

func TestLexer_NilReporter(t *testing.T) {
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("x", []byte(`"open`)))
	toks := lexer.New(file, lexer.Options{}).All()
	if toks[0].Kind != token.Invalid {
		t.Errorf("got %s", toks[0].Kind)
	}
}
