package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"bookbinder/internal/config"
	"bookbinder/internal/export"
	"bookbinder/internal/workflow"
)

var errSplitFailed = errors.New("split failed")

func newSplitCommand(ctx *commandContext) *cobra.Command {
	var outputRoot string
	var strict bool

	cmd := &cobra.Command{
		Use:   "split <file|dir>",
		Short: "Export every chapter of a book, or every book under a folder, as separate files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := config.ExpandPath(strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("resolve input: %w", err)
			}
			root := strings.TrimSpace(outputRoot)
			if root != "" {
				if root, err = config.ExpandPath(root); err != nil {
					return fmt.Errorf("resolve output root: %w", err)
				}
			}

			out := cmd.OutOrStdout()
			printer := &splitPrinter{out: out, colorize: shouldColorize(out)}
			runner, closeFn, err := ctx.openRunner(
				workflow.WithSegmentProgress(printer.segment),
				workflow.WithBookProgress(printer.book),
			)
			if err != nil {
				return err
			}
			defer closeFn()

			summary, err := runner.Split(cmd.Context(), input, root)
			if err != nil {
				return err
			}
			printer.summary(summary)
			return splitExitError(summary, strict)
		},
	}

	cmd.Flags().StringVarP(&outputRoot, "output-root", "o", "", "Write each book folder under this directory instead of next to the book")
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero when any chapter or book fails")
	return cmd
}

// splitPrinter serializes progress lines from concurrent books.
type splitPrinter struct {
	mu       sync.Mutex
	out      io.Writer
	colorize bool
}

func (p *splitPrinter) segment(job workflow.BookJob, res export.Result) {
	name := filepath.Join(filepath.Base(job.OutputDir), filepath.Base(res.OutputPath))
	detail := fmt.Sprintf("(%s - %s)", formatClock(res.Start), formatClock(res.End))
	switch {
	case !res.OK && res.Err != nil:
		detail = res.Err.Error()
	case res.Superseded:
		detail += " overwritten by a later chapter"
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, unitLine(res.OK, name, detail, p.colorize))
}

func (p *splitPrinter) book(outcome workflow.BookOutcome) {
	p.mu.Lock()
	defer p.mu.Unlock()
	name := filepath.Base(outcome.Job.Source)
	for _, warning := range outcome.Report.Warnings {
		fmt.Fprintln(p.out, renderStatusLine(name, statusWarn, warning, p.colorize))
	}
	switch {
	case outcome.Err != nil:
		fmt.Fprintln(p.out, unitLine(false, name, outcome.Err.Error(), p.colorize))
	case outcome.Plan.Empty():
		fmt.Fprintln(p.out, unitLine(false, name, "no chapters planned", p.colorize))
	default:
		detail := fmt.Sprintf("%d file(s) for %d chapter(s) -> %s", outcome.Report.Succeeded(), len(outcome.Plan.Chapters), outcome.Job.OutputDir)
		fmt.Fprintln(p.out, unitLine(outcome.OK(), name, detail, p.colorize))
	}
}

func (p *splitPrinter) summary(summary workflow.SplitSummary) {
	succeeded, failed := summary.Segments()
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "Done: %d written, %d failed, %d book(s)\n", succeeded, failed, len(summary.Books))
}

// splitExitError maps a finished run to the process exit status: nothing
// written always fails, partial output fails only in strict mode.
func splitExitError(summary workflow.SplitSummary, strict bool) error {
	if summary.TotalFailure() {
		return fmt.Errorf("%w: no chapters were written", errSplitFailed)
	}
	if strict && summary.AnyFailure() {
		incomplete := 0
		for _, book := range summary.Books {
			if !book.OK() {
				incomplete++
			}
		}
		return fmt.Errorf("%w: %d book(s) incomplete", errSplitFailed, incomplete)
	}
	return nil
}
