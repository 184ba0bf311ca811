package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"macrokit/internal/config"
	"macrokit/internal/engine"
	"macrokit/internal/ui"
)

var batchCmd = &cobra.Command{
	Use:   "batch [flags] file.toml",
	Short: "Expand every [[invocation]] of a batch file in parallel",
	Long: `Batch reads [[invocation]] entries (macro, input, args, id) from a TOML
file ("-" for stdin), expands them in parallel and prints the results in
request order.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().Int("jobs", 0, "max parallel expansions (0 = from config or GOMAXPROCS)")
	batchCmd.Flags().String("format", "json", "output format (json|yaml)")
	batchCmd.Flags().String("ui", "auto", "progress UI on stderr (auto|on|off)")
	batchCmd.Flags().Bool("strict", false, "fail attribute expansion on items without a function body")
	batchCmd.Flags().Bool("no-cache", false, "bypass the expansion cache")
}

func runBatch(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	if format != "json" && format != "yaml" {
		return fmt.Errorf("unknown format: %s", format)
	}
	uiFlag, _ := cmd.Flags().GetString("ui")
	mode, err := readUIMode(uiFlag)
	if err != nil {
		return err
	}

	data, name, err := readInput(args[0])
	if err != nil {
		return err
	}
	reqs, err := config.DecodeBatch(strings.NewReader(string(data)), name)
	if err != nil {
		return err
	}

	jobs, _ := cmd.Flags().GetInt("jobs")
	strict, _ := cmd.Flags().GetBool("strict")
	noCache, _ := cmd.Flags().GetBool("no-cache")
	opts := engineOptions{jobs: jobs, strict: strict, noCache: noCache}

	var results []*engine.Result
	var batchErr error
	if shouldUseTUI(mode) && len(reqs) > 0 {
		results, batchErr = runBatchWithUI(cmd.Context(), fmt.Sprintf("expanding %s", name), reqs, opts)
	} else {
		var eng *engine.Engine
		if eng, _, err = newEngine(current.cfg, opts); err != nil {
			return err
		}
		results, batchErr = eng.ExpandBatch(cmd.Context(), reqs)
	}

	payload := batchPayload{Total: len(reqs)}
	for _, res := range results {
		if res == nil {
			payload.Failed++
			continue
		}
		if res.Failed() {
			payload.Failed++
		}
		payload.Results = append(payload.Results, makeResultPayload(res))
	}
	if current.timer != nil {
		report := current.timer.Report()
		payload.Timings = &report
	}

	if err := encodeStructured(cmd.OutOrStdout(), format, payload); err != nil {
		return err
	}
	if batchErr != nil {
		return batchErr
	}
	if payload.Failed > 0 {
		return fmt.Errorf("%d of %d invocations failed", payload.Failed, payload.Total)
	}
	return nil
}

type batchOutcome struct {
	results []*engine.Result
	err     error
}

func runBatchWithUI(ctx context.Context, title string, reqs []engine.Request, opts engineOptions) ([]*engine.Result, error) {
	events := make(chan engine.Event, 256)
	opts.progress = engine.ChannelSink{Ch: events}
	eng, _, err := newEngine(current.cfg, opts)
	if err != nil {
		return nil, err
	}

	labels := make([]string, len(reqs))
	for i, req := range reqs {
		labels[i] = req.Macro
		if req.ID != "" {
			labels[i] = req.ID + " " + req.Macro
		}
	}

	outcomeCh := make(chan batchOutcome, 1)
	go func() {
		results, err := eng.ExpandBatch(ctx, reqs)
		close(events)
		outcomeCh <- batchOutcome{results: results, err: err}
	}()

	uiErr := ui.Run(ctx, os.Stderr, title, labels, events)
	if uiErr != nil {
		// UI упал: дочитываем события, чтобы воркеры не заблокировались
		go func() {
			for range events {
			}
		}()
	}
	outcome := <-outcomeCh
	if uiErr != nil && outcome.err == nil {
		current.logger.Sugar().Warnf("progress UI: %v", uiErr)
	}
	return outcome.results, outcome.err
}
