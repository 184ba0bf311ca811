package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"macrokit/internal/engine"
	"macrokit/internal/fix"
)

var expandCmd = &cobra.Command{
	Use:   "expand [flags] macro [file|-]",
	Short: "Expand one macro invocation",
	Long: `Expand feeds the named macro its input (from --input, a file or stdin)
and prints the output fragment. Diagnostics go to stderr; a fatal expansion
prints nothing and exits with status 1.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runExpand,
}

func init() {
	expandCmd.Flags().String("args", "", "attribute argument text, e.g. 'message = \"Hi\"'")
	expandCmd.Flags().String("input", "", "input text (instead of a file or stdin)")
	expandCmd.Flags().Bool("strict", false, "fail attribute expansion on items without a function body")
	expandCmd.Flags().Bool("note-defaults", false, "report an info diagnostic for every default substitution")
	expandCmd.Flags().Bool("no-cache", false, "bypass the expansion cache")
	expandCmd.Flags().String("format", "text", "output format (text|json|yaml)")
	expandCmd.Flags().String("diag-style", "pretty", "diagnostics on stderr (pretty|short)")
	expandCmd.Flags().Bool("fix", false, "apply suggested fixes to the arguments and input, then expand again")
}

func runExpand(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	switch format {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	req, err := expandRequest(cmd, args)
	if err != nil {
		return err
	}

	strict, _ := cmd.Flags().GetBool("strict")
	noteDefaults, _ := cmd.Flags().GetBool("note-defaults")
	noCache, _ := cmd.Flags().GetBool("no-cache")
	eng, _, err := newEngine(current.cfg, engineOptions{
		strict:       strict,
		noteDefaults: noteDefaults,
		noCache:      noCache,
	})
	if err != nil {
		return err
	}

	res, invokeErr := eng.Invoke(cmd.Context(), req)

	if applyFixes, _ := cmd.Flags().GetBool("fix"); applyFixes {
		if fixed, ok := fixRequest(cmd, req, res); ok {
			res, invokeErr = eng.Invoke(cmd.Context(), fixed)
		}
	}

	if format != "text" {
		if err := encodeStructured(cmd.OutOrStdout(), format, makeResultPayload(res)); err != nil {
			return err
		}
		return invokeErr
	}

	printDiagnostics(cmd, res)
	if invokeErr != nil {
		return invokeErr
	}
	return writeFragment(cmd.OutOrStdout(), res.Output)
}

func expandRequest(cmd *cobra.Command, args []string) (engine.Request, error) {
	req := engine.Request{Macro: args[0]}

	if cmd.Flags().Changed("args") {
		req.Args, _ = cmd.Flags().GetString("args")
		req.HasArgs = true
	}

	switch {
	case cmd.Flags().Changed("input"):
		if len(args) > 1 {
			return req, fmt.Errorf("--input and a file argument are mutually exclusive")
		}
		req.Input, _ = cmd.Flags().GetString("input")
	case len(args) > 1:
		data, _, err := readInput(args[1])
		if err != nil {
			return req, err
		}
		req.Input = string(data)
	case !isTerminal(os.Stdin):
		data, _, err := readInput("-")
		if err != nil {
			return req, err
		}
		req.Input = string(data)
	}
	return req, nil
}

// fixRequest applies the first fix of every diagnostic to the request
// fragments. ok is false when nothing changed.
func fixRequest(cmd *cobra.Command, req engine.Request, res *engine.Result) (engine.Request, bool) {
	if res == nil || res.Bag == nil || res.FileSet == nil {
		return req, false
	}
	result, err := fix.Apply(res.FileSet, res.Bag.Items())
	if err != nil {
		if !errors.Is(err, fix.ErrNoFixes) {
			current.logger.Sugar().Warnf("apply fixes: %v", err)
		}
		return req, false
	}

	fixed := req
	if text, ok := result.Change(fmt.Sprintf("<%s args>", req.Macro)); ok {
		fixed.Args = text
		fixed.HasArgs = true
	}
	if text, ok := result.Change(fmt.Sprintf("<%s input>", req.Macro)); ok {
		fixed.Input = text
	}
	if fixed == req {
		return req, false
	}

	if !quiet(cmd) {
		for _, a := range result.Applied {
			fmt.Fprintf(cmd.ErrOrStderr(), "fixed %s: %s\n", a.Code.ID(), a.Title)
		}
		for _, s := range result.Skipped {
			fmt.Fprintf(cmd.ErrOrStderr(), "skipped fix %q: %s\n", s.Title, s.Reason)
		}
	}
	return fixed, true
}
