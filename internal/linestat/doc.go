// Package linestat provides line count collection and aggregation.
//
// It scans target directories using fastwalk, counts lines in files whose
// extension is accepted for that target, and aggregates the counts per
// section, per extension and in total.
package linestat
