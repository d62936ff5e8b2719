// Package preflight provides readiness checks for the engine binaries and
// the filesystem paths bookbinder depends on.
//
// These checks run in two contexts:
//   - The split and merge commands call RunAll and CheckSystemDeps before
//     starting work, so a missing ffmpeg fails fast instead of per chapter.
//   - The CLI "bookbinder status" command renders every result as a table.
package preflight
