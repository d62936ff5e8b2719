package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"bookbinder/internal/chapters"
	"bookbinder/internal/config"
	"bookbinder/internal/media/ffprobe"
	"bookbinder/internal/probe"
	"bookbinder/internal/textutil"
)

type probeReport struct {
	Path      string            `json:"path"`
	Duration  float64           `json:"duration_seconds"`
	Tags      map[string]string `json:"tags"`
	Container *probeContainer   `json:"container,omitempty"`
	Streams   []probeStream     `json:"streams,omitempty"`
	Policy    string            `json:"policy"`
	Chapters  []probeChapter    `json:"chapters"`
	Warnings  []string          `json:"warnings,omitempty"`
}

type probeContainer struct {
	Format       string `json:"format"`
	SizeBytes    int64  `json:"size_bytes"`
	AudioStreams int    `json:"audio_streams"`
	Cover        string `json:"cover,omitempty"`
}

type probeStream struct {
	Index    int    `json:"index"`
	Type     string `json:"type"`
	Codec    string `json:"codec"`
	Detail   string `json:"detail,omitempty"`
	Attached bool   `json:"attached_picture,omitempty"`
}

type probeChapter struct {
	Index int     `json:"index"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Label string  `json:"label"`
}

func newProbeCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "probe <file>",
		Short: "Show duration, tags, streams and the chapter plan of a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ExpandPath(strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("resolve input: %w", err)
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			runner, closeFn, err := ctx.openRunner()
			if err != nil {
				return err
			}
			defer closeFn()

			media, err := runner.Prober().Probe(cmd.Context(), path)
			if err != nil {
				return err
			}
			plan := runner.Planner().Plan(media)
			report := buildProbeReport(media, plan)

			// Stream listing is informational; a failure leaves the table out.
			if inspected, err := ffprobe.Inspect(cmd.Context(), cfg.FFprobeBinary(), path); err == nil {
				report.Container = containerInfo(inspected)
				report.Streams = probeStreams(inspected.Streams)
			}

			if jsonOutput {
				return writeJSON(cmd, report)
			}
			printProbeReport(cmd.OutOrStdout(), report)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func buildProbeReport(media probe.MediaProbe, plan chapters.Plan) probeReport {
	report := probeReport{
		Path:     media.Path,
		Duration: media.Duration,
		Tags:     media.Tags,
		Policy:   string(plan.Policy),
		Chapters: make([]probeChapter, 0, len(plan.Chapters)),
		Warnings: plan.Warnings,
	}
	if report.Tags == nil {
		report.Tags = map[string]string{}
	}
	for _, ch := range plan.Chapters {
		report.Chapters = append(report.Chapters, probeChapter{
			Index: ch.Index,
			Start: ch.Start,
			End:   ch.End,
			Label: ch.Label,
		})
	}
	return report
}

func containerInfo(inspected ffprobe.Result) *probeContainer {
	info := &probeContainer{
		Format:       inspected.Format.FormatName,
		SizeBytes:    inspected.SizeBytes(),
		AudioStreams: inspected.AudioStreamCount(),
	}
	if cover, ok := inspected.CoverStream(); ok {
		info.Cover = fmt.Sprintf("%s %dx%d", cover.CodecName, cover.Width, cover.Height)
	}
	return info
}

func probeStreams(streams []ffprobe.Stream) []probeStream {
	out := make([]probeStream, 0, len(streams))
	for _, s := range streams {
		ps := probeStream{
			Index:    s.Index,
			Type:     s.CodecType,
			Codec:    s.CodecName,
			Attached: s.Disposition["attached_pic"] == 1,
		}
		switch s.CodecType {
		case "audio":
			ps.Detail = fmt.Sprintf("%s Hz, %d ch", s.SampleRate, s.Channels)
		case "video":
			ps.Detail = fmt.Sprintf("%dx%d", s.Width, s.Height)
		}
		out = append(out, ps)
	}
	return out
}

func printProbeReport(out io.Writer, report probeReport) {
	colorize := shouldColorize(out)
	for _, line := range renderSectionHeader(report.Path, colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out, renderStatusLine("Duration", statusInfo, formatLength(report.Duration), colorize))
	tagNames := make([]string, 0, len(report.Tags))
	for name := range report.Tags {
		tagNames = append(tagNames, name)
	}
	sort.Strings(tagNames)
	for _, name := range tagNames {
		fmt.Fprintln(out, renderStatusLine(name, statusInfo, report.Tags[name], colorize))
	}

	if c := report.Container; c != nil {
		fmt.Fprintln(out, renderStatusLine("Container", statusInfo,
			fmt.Sprintf("%s, %s, %d audio stream(s)", c.Format, humanize.IBytes(uint64(max(c.SizeBytes, 0))), c.AudioStreams), colorize))
		cover := c.Cover
		if cover == "" {
			cover = "None"
		}
		fmt.Fprintln(out, renderStatusLine("Cover", textutil.Ternary(c.Cover != "", statusOK, statusInfo), cover, colorize))
	}

	if len(report.Streams) > 0 {
		rows := make([][]string, 0, len(report.Streams))
		for _, s := range report.Streams {
			rows = append(rows, []string{strconv.Itoa(s.Index), s.Type, s.Codec, s.Detail, yesNo(s.Attached)})
		}
		fmt.Fprintln(out, renderTable("Streams", []string{"#", "Type", "Codec", "Detail", "Cover"}, rows,
			[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft}))
	}

	for _, warning := range report.Warnings {
		fmt.Fprintln(out, renderStatusLine("Plan", statusWarn, warning, colorize))
	}
	if len(report.Chapters) == 0 {
		fmt.Fprintln(out, renderStatusLine("Chapters", statusWarn, "nothing to export", colorize))
		return
	}
	rows := make([][]string, 0, len(report.Chapters))
	for _, ch := range report.Chapters {
		rows = append(rows, []string{
			strconv.Itoa(ch.Index),
			formatClock(ch.Start),
			formatClock(ch.End),
			formatClock(ch.End - ch.Start),
			ch.Label,
		})
	}
	title := fmt.Sprintf("Chapter plan (%s)", report.Policy)
	fmt.Fprintln(out, renderTable(title, []string{"#", "Start", "End", "Length", "Label"}, rows,
		[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignLeft}))
}
