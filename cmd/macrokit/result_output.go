package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"macrokit/internal/diag"
	"macrokit/internal/diagfmt"
	"macrokit/internal/engine"
	"macrokit/internal/observ"
)

type directivePayload struct {
	Name      string `json:"name" yaml:"name"`
	Value     string `json:"value" yaml:"value"`
	Found     bool   `json:"found" yaml:"found"`
	Defaulted bool   `json:"defaulted,omitempty" yaml:"defaulted,omitempty"`
}

// resultPayload is the structured form of one engine.Result.
type resultPayload struct {
	ID          string                   `json:"id" yaml:"id"`
	Macro       string                   `json:"macro" yaml:"macro"`
	Kind        string                   `json:"kind" yaml:"kind"`
	Output      string                   `json:"output" yaml:"output"`
	Additive    bool                     `json:"additive" yaml:"additive"`
	Cached      bool                     `json:"cached,omitempty" yaml:"cached,omitempty"`
	Error       string                   `json:"error,omitempty" yaml:"error,omitempty"`
	ElapsedMS   float64                  `json:"elapsed_ms" yaml:"elapsed_ms"`
	Directives  []directivePayload       `json:"directives,omitempty" yaml:"directives,omitempty"`
	Diagnostics []diagfmt.DiagnosticJSON `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}

type batchPayload struct {
	Results []resultPayload `json:"results" yaml:"results"`
	Total   int             `json:"total" yaml:"total"`
	Failed  int             `json:"failed" yaml:"failed"`
	Timings *observ.Report  `json:"timings,omitempty" yaml:"timings,omitempty"`
}

func diagJSONOpts() diagfmt.JSONOpts {
	return diagfmt.JSONOpts{
		IncludePositions: true,
		PathMode:         diagfmt.PathModeAuto,
		IncludeNotes:     true,
		IncludeFixes:     true,
	}
}

func makeResultPayload(res *engine.Result) resultPayload {
	p := resultPayload{
		ID:        res.ID,
		Macro:     res.Macro,
		Kind:      res.Kind.String(),
		Additive:  res.Additive,
		Cached:    res.Cached,
		ElapsedMS: float64(res.Elapsed.Microseconds()) / 1000,
	}
	if res.Failed() {
		p.Error = res.Err.Error()
	} else {
		p.Output = res.Output
	}
	for _, d := range res.Directives {
		p.Directives = append(p.Directives, directivePayload{
			Name: d.Name, Value: d.Value, Found: d.Found, Defaulted: d.Defaulted,
		})
	}
	if res.Bag != nil && res.Bag.Len() > 0 {
		p.Diagnostics = diagfmt.BuildDiagnosticsOutput(res.Bag, res.FileSet, diagJSONOpts()).Diagnostics
	}
	return p
}

// encodeStructured пишет v как json или yaml.
func encodeStructured(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// printDiagnostics renders res diagnostics to stderr in the pretty form.
func printDiagnostics(cmd *cobra.Command, res *engine.Result) {
	if res == nil || res.Bag == nil || res.Bag.Len() == 0 {
		return
	}
	if style, _ := cmd.Flags().GetString("diag-style"); style == "short" {
		fmt.Fprintln(cmd.ErrOrStderr(), diag.FormatShortDiagnostics(res.Bag.Items(), res.FileSet, true))
		return
	}
	opts := diagfmt.PrettyOpts{
		Color:       useColor(cmd, os.Stderr),
		Context:     1,
		PathMode:    diagfmt.PathModeAuto,
		ShowNotes:   true,
		ShowFixes:   true,
		ShowPreview: true,
	}
	if err := diagfmt.Pretty(cmd.ErrOrStderr(), res.Bag, res.FileSet, opts); err != nil {
		current.logger.Sugar().Warnf("render diagnostics: %v", err)
	}
}

func writeFragment(w io.Writer, text string) error {
	if text == "" {
		return nil
	}
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	_, err := io.WriteString(w, text)
	return err
}
