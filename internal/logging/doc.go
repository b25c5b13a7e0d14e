// Package logging builds slog loggers for the CLI and pipeline components.
//
// Two output formats are supported: a compact console format for interactive
// use and structured JSON for machine consumption. Components attach a
// standardized component attribute via NewComponentLogger so console output
// can prefix messages consistently.
package logging
