// Package history records race outcomes to SQLite and aggregates them into
// per-endpoint statistics.
//
// The store implements race.Recorder, so every race and attempt flows into
// it when history is enabled. A cron-driven scheduler prunes records past
// the retention window. The stats queries back the `mercury stats` command.
package history
