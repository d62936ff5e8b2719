// Package chapters turns a probe result into a chapter plan: an ordered,
// gap-free, non-overlapping list of labelled time windows.
//
// Two policies exist. The embedded policy trusts the container's chapter
// markers after sorting, clamping and stitching them. The equal-split policy
// cuts the timeline into fixed-length windows when no markers exist.
package chapters
