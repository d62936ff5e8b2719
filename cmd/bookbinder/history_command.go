package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"bookbinder/internal/history"
)

type historyEntry struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Status    string    `json:"status"`
	Source    string    `json:"source"`
	Output    string    `json:"output,omitempty"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
	Message   string    `json:"message,omitempty"`
	StartedAt time.Time `json:"started_at"`
	Elapsed   string    `json:"elapsed,omitempty"`
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent split and merge jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openHistory()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if store == nil {
				fmt.Fprintln(out, "Job history is disabled (set [history] enabled = true)")
				return nil
			}
			defer store.Close()

			jobs, err := store.List(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("list history: %w", err)
			}
			entries := historyEntries(jobs)
			if jsonOutput {
				return writeJSON(cmd, entries)
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, "No jobs recorded yet")
				return nil
			}
			fmt.Fprintln(out, renderHistoryTable(entries))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of jobs to show (0 for all)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.AddCommand(newHistoryShowCommand(ctx))
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one job in full",
		Long:  "Show one job in full. The id may be the short prefix printed by \"bookbinder history\".",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openHistory()
			if err != nil {
				return err
			}
			if store == nil {
				return errors.New("job history is disabled (set [history] enabled = true)")
			}
			defer store.Close()

			job, err := lookupJob(cmd.Context(), store, strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			entry := historyEntries([]history.Job{*job})[0]
			if jsonOutput {
				return writeJSON(cmd, entry)
			}
			printHistoryEntry(cmd.OutOrStdout(), entry)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

// lookupJob resolves a full id or a unique id prefix.
func lookupJob(ctx context.Context, store *history.Store, id string) (*history.Job, error) {
	if id == "" {
		return nil, errors.New("job id is required")
	}
	job, err := store.Get(ctx, id)
	if err == nil || !errors.Is(err, history.ErrNotFound) {
		return job, err
	}
	jobs, listErr := store.List(ctx, 0)
	if listErr != nil {
		return nil, fmt.Errorf("list history: %w", listErr)
	}
	var match *history.Job
	for i := range jobs {
		if !strings.HasPrefix(jobs[i].ID, id) {
			continue
		}
		if match != nil {
			return nil, fmt.Errorf("job id %q is ambiguous", id)
		}
		match = &jobs[i]
	}
	if match == nil {
		return nil, err
	}
	return match, nil
}

func printHistoryEntry(out io.Writer, e historyEntry) {
	colorize := shouldColorize(out)
	for _, line := range renderSectionHeader("Job "+e.ID, colorize) {
		fmt.Fprintln(out, line)
	}
	kind := statusInfo
	switch history.Status(e.Status) {
	case history.StatusSucceeded:
		kind = statusOK
	case history.StatusPartial:
		kind = statusWarn
	case history.StatusFailed:
		kind = statusError
	}
	fmt.Fprintln(out, renderStatusLine("Status", kind, e.Status, colorize))
	fmt.Fprintln(out, renderStatusLine("Kind", statusInfo, e.Kind, colorize))
	fmt.Fprintln(out, renderStatusLine("Source", statusInfo, e.Source, colorize))
	if e.Output != "" {
		fmt.Fprintln(out, renderStatusLine("Output", statusInfo, e.Output, colorize))
	}
	fmt.Fprintln(out, renderStatusLine("Files", statusInfo,
		fmt.Sprintf("%d written, %d failed", e.Succeeded, e.Failed), colorize))
	fmt.Fprintln(out, renderStatusLine("Started", statusInfo, e.StartedAt.Local().Format("2006-01-02 15:04:05"), colorize))
	if e.Elapsed != "" {
		fmt.Fprintln(out, renderStatusLine("Elapsed", statusInfo, e.Elapsed, colorize))
	}
	if e.Message != "" {
		fmt.Fprintln(out, renderStatusLine("Message", kind, e.Message, colorize))
	}
}

func historyEntries(jobs []history.Job) []historyEntry {
	entries := make([]historyEntry, 0, len(jobs))
	for _, job := range jobs {
		entry := historyEntry{
			ID:        job.ID,
			Kind:      job.Kind,
			Status:    string(job.Status),
			Source:    job.Source,
			Output:    job.Output,
			Succeeded: job.Succeeded,
			Failed:    job.Failed,
			Message:   job.Message,
			StartedAt: job.StartedAt,
		}
		if elapsed := job.Elapsed(); elapsed > 0 {
			entry.Elapsed = elapsed.Round(time.Second).String()
		}
		entries = append(entries, entry)
	}
	return entries
}

func renderHistoryTable(entries []historyEntry) string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		id := e.ID
		if len(id) > 8 {
			id = id[:8]
		}
		rows = append(rows, []string{
			id,
			e.Kind,
			e.Status,
			filepath.Base(e.Source),
			strconv.Itoa(e.Succeeded),
			strconv.Itoa(e.Failed),
			e.StartedAt.Local().Format("2006-01-02 15:04"),
			e.Elapsed,
		})
	}
	return renderTable("", []string{"ID", "Kind", "Status", "Source", "OK", "Failed", "Started", "Elapsed"}, rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignRight})
}

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
