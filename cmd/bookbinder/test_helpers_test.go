package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Stub ffprobe: books whose path contains "broken" report no duration, every
// other input is 9000 seconds long without chapters or tags.
const stubFFprobe = `#!/bin/sh
for last; do :; done
case "$last" in
  *broken*) dur="N/A" ;;
  *) dur="9000.000000" ;;
esac
case "$*" in
  *-show_chapters*) echo '{"chapters":[]}' ;;
  *format=duration*) echo "$dur" ;;
esac
exit 0
`

// Stub ffmpeg: writes a few bytes to the output (last argument) and fails
// cover extraction so merges run without artwork.
const stubFFmpeg = `#!/bin/sh
if [ "$1" = "-version" ]; then
  echo "ffmpeg version stub"
  exit 0
fi
for last; do :; done
case "$last" in
  *cover.jpg) exit 1 ;;
esac
printf 'audio' > "$last"
`

type cliTestEnv struct {
	baseDir    string
	configPath string
	libraryDir string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	binDir := filepath.Join(base, "bin")
	for _, dir := range []string{homeDir, binDir, filepath.Join(base, "library")} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("BOOKBINDER_FFMPEG", "")
	t.Setenv("BOOKBINDER_FFPROBE", "")

	ffmpeg := filepath.Join(binDir, "ffmpeg")
	ffprobe := filepath.Join(binDir, "ffprobe")
	writeExecutable(t, ffmpeg, stubFFmpeg)
	writeExecutable(t, ffprobe, stubFFprobe)

	configPath := filepath.Join(base, "bookbinder.toml")
	content := fmt.Sprintf(`[paths]
state_dir = %q
log_dir = %q
temp_dir = %q

[engine]
ffmpeg_binary = %q
ffprobe_binary = %q
probe_timeout_seconds = 10
transcode_timeout_seconds = 10

[history]
enabled = true
`,
		filepath.Join(base, "state"),
		filepath.Join(base, "logs"),
		filepath.Join(base, "tmp"),
		ffmpeg,
		ffprobe,
	)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	return &cliTestEnv{
		baseDir:    base,
		configPath: configPath,
		libraryDir: filepath.Join(base, "library"),
	}
}

func writeExecutable(t *testing.T, path, script string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func writeBook(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("book"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
