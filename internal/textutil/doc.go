// Package textutil provides text processing helpers for transcript cleanup
// and human-readable formatting.
//
// The primary use cases are:
//   - Stripping the four known subtitle/transcript timestamp syntaxes
//   - Formatting durations, counts, and relative times for output headers
//
// RemoveTimestamps is idempotent: applying it twice yields the same result
// as applying it once.
package textutil
