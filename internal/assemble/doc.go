// Package assemble joins an ordered list of audio files into one chaptered
// container.
//
// Assembly runs as a fixed sequence of stages: validate the request, read
// tags and cover art from the first file, measure every file, concatenate
// into a lossless intermediate, synthesize a chapter metadata document and
// encode the final container. Any stage failure aborts the run. Scratch
// files live in one temporary directory that is removed on every exit path,
// and the container is written under a hidden partial name that is renamed
// into place only after the engine succeeds.
package assemble
