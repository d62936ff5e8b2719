// Package engine models the external media-processing engine as a capability
// interface with four operations: duration, chapter and tag probes plus a
// single transcode primitive. FFmpeg implements it by shelling out to
// ffprobe and ffmpeg; tests substitute a double that returns canned probe
// data and records transcode requests.
package engine
