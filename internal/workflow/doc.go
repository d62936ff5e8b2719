// Package workflow turns CLI inputs into split and merge jobs and runs them.
//
// A split input is either one container or a directory tree searched for
// containers; each container becomes a book job whose chapters land in a
// folder named after the book. Book jobs run with bounded concurrency and
// each one owns its own segment worker pool. A merge input is one folder of
// chapter files joined in natural filename order. Every job carries a
// generated id that tags its log lines and its history ledger row.
package workflow
