package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"macrokit/internal/diag"
	"macrokit/internal/diagfmt"
	"macrokit/internal/lexer"
	"macrokit/internal/source"
	"macrokit/internal/token"
)

var tokenizeCmd = &cobra.Command{
	Use:   "tokenize [flags] file|-",
	Short: "Tokenize a macro input fragment",
	Long:  `Tokenize shows how macro extraction sees a fragment: significant tokens with their leading trivia`,
	Args:  cobra.ExactArgs(1),
	RunE:  runTokenize,
}

func init() {
	tokenizeCmd.Flags().String("format", "pretty", "output format (pretty|json|dump)")
}

type tokenizeResult struct {
	FileSet *source.FileSet
	Tokens  []token.Token
	Bag     *diag.Bag
}

func tokenizeFile(path string, maxDiagnostics int) (tokenizeResult, error) {
	data, name, err := readInput(path)
	if err != nil {
		return tokenizeResult{}, err
	}
	fs := source.NewFileSet()
	id := fs.AddVirtual(name, data)
	bag := diag.NewBag(maxDiagnostics)
	lx := lexer.New(fs.Get(id), lexer.Options{Reporter: diag.BagReporter{Bag: bag}})
	return tokenizeResult{FileSet: fs, Tokens: lx.All(), Bag: bag}, nil
}

func runTokenize(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}

	result, err := tokenizeFile(args[0], current.cfg.Engine.MaxDiagnostics)
	if err != nil {
		return fmt.Errorf("tokenization failed: %w", err)
	}

	// Выводим диагностику в stderr, если есть
	if result.Bag.Len() > 0 {
		opts := diagfmt.PrettyOpts{
			Color:    useColor(cmd, os.Stderr),
			Context:  1,
			PathMode: diagfmt.PathModeAuto,
		}
		if err := diagfmt.Pretty(cmd.ErrOrStderr(), result.Bag, result.FileSet, opts); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	switch format {
	case "pretty":
		return diagfmt.FormatTokensPretty(out, result.Tokens, result.FileSet)
	case "json":
		return diagfmt.FormatTokensJSON(out, result.Tokens)
	case "dump":
		return diagfmt.FormatTokensDump(out, result.Tokens)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}
