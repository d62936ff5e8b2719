// Package textutil turns chapter titles and file names into labels that are
// safe to use as output file stems.
//
// SanitizeLabel keeps Unicode letters and digits, spaces, underscores and
// hyphens, replaces every other rune with an underscore and normalizes the
// result to NFC. Applying it twice yields the same label.
package textutil
