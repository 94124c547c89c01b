// Package jsonl persists harvest records as JSON Lines files.
//
// Each succeeded job writes <output_dir>/jobs/<job>.jsonl and the merger
// writes <output_dir>/<corpus_file>. One record per line, UTF-8.
//
// Every write goes to a temporary file in the destination directory, is
// fsynced, then renamed over the target, so readers see either the previous
// file or the complete new one.
package jsonl
