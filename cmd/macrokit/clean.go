package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"macrokit/internal/engine"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove the expansion cache",
	Long:  "Remove every cached expansion from the cache directory configured in macrokit.toml (or the user cache directory).",
	Args:  cobra.NoArgs,
	RunE:  runClean,
}

func runClean(cmd *cobra.Command, _ []string) error {
	dir, err := current.cfg.CacheDir()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if _, err := os.Stat(dir); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if !quiet(cmd) {
				_, _ = fmt.Fprintf(out, "cache directory not found\n")
			}
			return nil
		}
		return fmt.Errorf("failed to stat %q: %w", dir, err)
	}

	cache, err := engine.OpenCache(dir)
	if err != nil {
		return err
	}
	if err := cache.DropAll(); err != nil {
		return fmt.Errorf("failed to clean %q: %w", dir, err)
	}
	if !quiet(cmd) {
		_, _ = fmt.Fprintf(out, "removed %s\n", dir)
	}
	return nil
}
