// Package ffprobe provides a typed wrapper around ffprobe output.
//
// Key types:
//   - Result: parsed ffprobe JSON containing streams, chapters and format metadata
//   - Stream: individual audio/video stream properties, including dispositions
//   - Chapter: an embedded chapter marker with its title tag
//   - Format: container-level metadata (duration, size, bitrate, tags)
//
// Entry points:
//   - Inspect: one ffprobe call returning streams, chapters and format
//   - Chapters: the chapter list only
//   - FormatEntry: a single format field or tag in nokey form
package ffprobe
