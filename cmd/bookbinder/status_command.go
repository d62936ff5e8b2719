package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"bookbinder/internal/deps"
	"bookbinder/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check ffmpeg, ffprobe and the working directories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			statuses := preflight.CheckSystemDeps(cfg)
			versions := make(map[string]string, len(statuses))
			for _, status := range statuses {
				if !status.Available {
					continue
				}
				if version, err := deps.Version(cmd.Context(), status.Command); err == nil {
					versions[status.Name] = version
				}
			}
			checks := preflight.RunAll(cfg)

			var lines []string
			lines = append(lines, renderSectionHeader("Dependencies", colorize)...)
			lines = append(lines, dependencyLines(statuses, versions, colorize)...)
			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Directories", colorize)...)
			lines = append(lines, preflightLines(checks, colorize)...)
			lines = append(lines, renderStatusLine("History", statusInfo, yesNo(cfg.History.Enabled), colorize))
			fmt.Fprintln(out, strings.Join(lines, "\n"))

			if missing := deps.MissingRequired(statuses); len(missing) > 0 {
				return fmt.Errorf("%d required dependency(ies) missing", len(missing))
			}
			if failed := preflight.Failed(checks); len(failed) > 0 {
				return fmt.Errorf("%d preflight check(s) failed", len(failed))
			}
			return nil
		},
	}
}
