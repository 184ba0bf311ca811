package lexer_test

import (
	"testing"

	"macrokit/internal/diag"
	"macrokit/internal/lexer"
	"macrokit/internal/source"
	"macrokit/internal/token"
)

const maxFuzzInput = 1 << 16 // 64 KiB

var fuzzSeeds = []string{
	"",
	"fn main() {}",
	"fn greet(name: &str) -> String { format!(\"hi {}\", name) }",
	"#[derive(SayHello)]\npub struct Point<T> { x: T, y: T }",
	"message = \"Hi\\n\\t\\u{1F600}\"",
	"/// doc\n//! inner\n/* block /* nested */ */ enum E { A, B }",
	"r#\"raw \"string\"\"# b'x' 'c' 0x1F 1_000u32 3.14e-2",
	"\"unterminated",
	"/* unterminated",
	"@ ` \x00 \xff",
}

func FuzzLexerTokens(f *testing.F) {
	for _, s := range fuzzSeeds {
		f.Add([]byte(s))
	}
	f.Fuzz(func(t *testing.T, input []byte) {
		if len(input) > maxFuzzInput {
			input = input[:maxFuzzInput]
		}
		input = append([]byte(nil), input...)

		fs := source.NewFileSet()
		file := fs.Get(fs.AddVirtual("<fuzz input>", input))

		bag := diag.NewBag(64)
		lx := lexer.New(file, lexer.Options{Reporter: diag.BagReporter{Bag: bag}})

		prevEnd := uint32(0)
		for i := 0; ; i++ {
			tok := lx.Next()
			if tok.Span.Start < prevEnd || tok.Span.End < tok.Span.Start {
				t.Fatalf("token %d %v has span %v after offset %d", i, tok.Kind, tok.Span, prevEnd)
			}
			if int(tok.Span.End) > len(input) {
				t.Fatalf("token %d span %v past end %d", i, tok.Span, len(input))
			}
			prevEnd = tok.Span.End
			if tok.Kind == token.EOF {
				break
			}
			if i > len(input)+1 {
				t.Fatalf("lexer does not advance on %q", input)
			}
		}
	})
}
