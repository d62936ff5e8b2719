// Package export writes one audio file per planned chapter.
//
// Exporter runs one engine invocation per chapter with bounded concurrency,
// verifies each output, and reports per-chapter results in plan order. A
// failed chapter never stops its siblings. An advisory lock on the output
// directory keeps two jobs from writing into the same folder.
package export
