package assemble

import (
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"
)

var metadataEscaper = strings.NewReplacer(
	`\`, `\\`,
	"=", `\=`,
	";", `\;`,
	"#", `\#`,
	"\n", "\\\n",
)

func escapeMetadata(value string) string {
	return metadataEscaper.Replace(value)
}

func millis(seconds float64) int64 {
	return int64(math.Round(seconds * 1000))
}

// WriteMetadata renders plan as an ffmetadata document with one chapter per
// entry. Times use a 1/1000 timebase; START of each chapter equals END of
// the one before it.
func WriteMetadata(w io.Writer, plan Plan) error {
	var b strings.Builder
	b.WriteString(";FFMETADATA1\n")
	if plan.Title != "" {
		fmt.Fprintf(&b, "title=%s\n", escapeMetadata(plan.Title))
	}
	for _, entry := range plan.Entries {
		b.WriteString("\n[CHAPTER]\nTIMEBASE=1/1000\n")
		fmt.Fprintf(&b, "START=%d\n", millis(entry.Start))
		fmt.Fprintf(&b, "END=%d\n", millis(entry.End))
		fmt.Fprintf(&b, "title=%s\n", escapeMetadata(entry.Label))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteConcatList renders the concat demuxer input list. Paths are made
// absolute so the list can live in a scratch directory.
func WriteConcatList(w io.Writer, sources []string) error {
	var b strings.Builder
	for _, source := range sources {
		abs, err := filepath.Abs(source)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", source, err)
		}
		fmt.Fprintf(&b, "file '%s'\n", strings.ReplaceAll(abs, "'", `'\''`))
	}
	_, err := io.WriteString(w, b.String())
	return err
}
