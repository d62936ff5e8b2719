// Package probe answers "what is in this file" for the split and merge
// pipelines: duration, embedded chapters, selected tags and cover art.
//
// Every query is best effort. Engine failures and unparsable answers become
// absent data (a zero duration, an empty chapter list, a Lookup with Found
// false and a Reason) rather than errors, so callers can fall back to the
// next policy. Only an unusable input path is reported as an error.
package probe
