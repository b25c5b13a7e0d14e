// Package corrector polishes raw speech-to-text transcripts with an LLM.
// Correction is best-effort: any provider failure leaves the raw transcript
// usable, so callers degrade instead of failing the video.
package corrector
