package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"bookbinder/internal/assemble"
	"bookbinder/internal/config"
	"bookbinder/internal/workflow"
)

func newMergeCommand(ctx *commandContext) *cobra.Command {
	var output string
	var title string

	cmd := &cobra.Command{
		Use:   "merge <dir>",
		Short: "Join the chapter files in a folder into one chaptered audiobook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := config.ExpandPath(strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("resolve folder: %w", err)
			}
			target := strings.TrimSpace(output)
			if target != "" {
				if target, err = config.ExpandPath(target); err != nil {
					return fmt.Errorf("resolve output: %w", err)
				}
			}

			runner, closeFn, err := ctx.openRunner()
			if err != nil {
				return err
			}
			defer closeFn()

			out := cmd.OutOrStdout()
			outcome := runner.Merge(cmd.Context(), dir, target, strings.TrimSpace(title))
			colorize := shouldColorize(out)
			if outcome.Err != nil {
				fmt.Fprintln(out, unitLine(false, filepath.Base(dir), outcome.Err.Error(), colorize))
				return fmt.Errorf("merge %s: %w", dir, outcome.Err)
			}
			printMergeResult(out, outcome, colorize)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default <dir>/<dir name>.m4b)")
	cmd.Flags().StringVar(&title, "title", "", "Container title")
	return cmd
}

func printMergeResult(out io.Writer, outcome workflow.MergeOutcome, colorize bool) {
	result := outcome.Result
	for _, entry := range result.Plan.Entries {
		detail := fmt.Sprintf("(%s - %s)", formatClock(entry.Start), formatClock(entry.End))
		fmt.Fprintln(out, unitLine(true, entry.Label, detail, colorize))
	}
	fmt.Fprintln(out, renderStatusLine("Artist", artistKind(result), artistLabel(result), colorize))
	fmt.Fprintln(out, renderStatusLine("Cover", coverKind(result), coverLabel(result), colorize))
	fmt.Fprintln(out, renderStatusLine("Duration", statusInfo, formatLength(result.Plan.Duration()), colorize))
	fmt.Fprintf(out, "Done: %d file(s) merged into %s\n", len(outcome.Sources), result.Output)
}

func artistLabel(result assemble.Result) string {
	artist := result.Artist()
	if !artist.Found {
		return "Not found"
	}
	return artist.Value
}

func artistKind(result assemble.Result) statusKind {
	if result.Artist().Found {
		return statusOK
	}
	return statusWarn
}

func coverLabel(result assemble.Result) string {
	switch {
	case !result.Cover.Found:
		return "None"
	case result.CoverResized:
		return "Embedded (resized)"
	default:
		return "Embedded"
	}
}

func coverKind(result assemble.Result) statusKind {
	if result.Cover.Found {
		return statusOK
	}
	return statusInfo
}
