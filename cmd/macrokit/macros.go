package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"macrokit/internal/macro"
)

var macrosCmd = &cobra.Command{
	Use:   "macros [flags]",
	Short: "List registered macros",
	Long:  `Macros lists the builtin macros and the aliases declared in macrokit.toml, with their registration headers`,
	Args:  cobra.NoArgs,
	RunE:  runMacros,
}

func init() {
	macrosCmd.Flags().String("format", "text", "output format (text|json|yaml)")
	macrosCmd.Flags().StringSlice("kind", nil, "only list these kinds (attribute|derive|function)")
}

type macroPayload struct {
	Name       string   `json:"name" yaml:"name"`
	Kind       string   `json:"kind" yaml:"kind"`
	Attributes []string `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	Header     string   `json:"header" yaml:"header"`
}

func runMacros(cmd *cobra.Command, _ []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	kindNames, err := cmd.Flags().GetStringSlice("kind")
	if err != nil {
		return fmt.Errorf("failed to get kind flag: %w", err)
	}

	reg, err := current.cfg.Registry()
	if err != nil {
		return err
	}

	defs := reg.All()
	if len(kindNames) > 0 {
		kinds := make([]macro.Kind, 0, len(kindNames))
		for _, name := range kindNames {
			k, ok := macro.ParseKind(name)
			if !ok {
				return fmt.Errorf("unknown macro kind %q", name)
			}
			kinds = append(kinds, k)
		}
		defs = reg.FilterByKind(kinds...)
	}

	payload := make([]macroPayload, 0, len(defs))
	for _, def := range defs {
		payload = append(payload, macroPayload{
			Name:       def.Name(),
			Kind:       def.Declaration.Kind.String(),
			Attributes: def.Declaration.Attributes,
			Header:     def.Declaration.String(),
		})
	}

	switch format {
	case "text":
		return renderMacrosText(cmd.OutOrStdout(), payload)
	case "json", "yaml":
		return encodeStructured(cmd.OutOrStdout(), format, payload)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

func renderMacrosText(w io.Writer, macros []macroPayload) error {
	title := cases.Title(language.English)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tNAME\tHELPERS\tHEADER")
	for _, m := range macros {
		helpers := "-"
		if len(m.Attributes) > 0 {
			helpers = strings.Join(m.Attributes, ", ")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", title.String(m.Kind), m.Name, helpers, m.Header)
	}
	return tw.Flush()
}
