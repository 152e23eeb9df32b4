// Package logger builds the slog loggers used across the link checker.
// Production runs log JSON; every other environment logs text. Logs go to
// stderr so that the run summary on stdout stays readable.
package logger
