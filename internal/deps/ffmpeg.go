package deps

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

var commandContext = exec.CommandContext

// MediaRequirements lists the engine binaries for the given commands.
func MediaRequirements(ffmpegBinary, ffprobeBinary string) []Requirement {
	return []Requirement{
		{
			Name:        "FFmpeg",
			Command:     ffmpegBinary,
			Description: "Required for splitting and merging",
		},
		{
			Name:        "FFprobe",
			Command:     ffprobeBinary,
			Description: "Required for duration, chapter and tag probes",
		},
	}
}

// Version runs "<binary> -version" and returns the first output line, for
// example "ffmpeg version 7.1 Copyright ...".
func Version(ctx context.Context, binary string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	output, err := commandContext(ctx, binary, "-version").Output() //nolint:gosec
	if err != nil {
		return "", fmt.Errorf("%s -version: %w", binary, err)
	}
	line, _, _ := strings.Cut(strings.TrimSpace(string(output)), "\n")
	line = strings.TrimSpace(line)
	if line == "" {
		return "", fmt.Errorf("%s -version: empty output", binary)
	}
	return line, nil
}
