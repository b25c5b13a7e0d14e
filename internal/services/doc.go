// Package services defines the shared error taxonomy for external
// collaborators and hosts the subprocess/HTTP service clients under its
// subpackages (ytdlp, whisper, corrector).
//
// Sentinel errors classify failures so the pipeline coordinator can decide
// between falling back to the next source, aborting with an
// authentication-required condition, or surfacing a transport failure.
package services
