// Package memory provides in-memory implementations of the storage ports.
//
// The harvest command's --dry-run mode uses them: job outputs and the
// combined corpus are kept in memory, reads fall through to the on-disk
// store, and nothing is written.
package memory
