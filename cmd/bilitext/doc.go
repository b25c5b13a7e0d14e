// Package main hosts the bilitext CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into calls
// against the transcript pipeline: single-video metadata and transcript
// fetches, whole-account batch exports, credential cache maintenance, and
// configuration scaffolding. It centralizes configuration resolution and
// structured logging setup so subcommands can focus on user experience
// instead of wiring.
package main
