// Package resolver defines the transcript sources and the order-independent
// contract the pipeline coordinator iterates over. Each resolver either
// produces an artifact, reports "nothing here" so the next source runs, or
// reports an authentication failure that no amount of falling back can fix.
package resolver

import (
	"context"

	"bilitext/internal/bili"
)

// Origin identifies which source produced a transcript.
type Origin string

const (
	// OriginAPI is the platform's native subtitle API.
	OriginAPI Origin = "api"
	// OriginDownloader is subtitle files fetched by yt-dlp.
	OriginDownloader Origin = "downloader"
	// OriginASR is a raw speech-to-text transcript.
	OriginASR Origin = "asr"
	// OriginASRCorrected is an ASR transcript after LLM correction.
	OriginASRCorrected Origin = "asr_corrected"
)

// Request carries everything a resolver needs for one video.
type Request struct {
	Video *bili.VideoInfo
	// WorkDir is the per-video working directory for downloads and cached
	// transcripts.
	WorkDir string
	// CookieJar is an optional Netscape cookie file for authenticated
	// downloader runs.
	CookieJar string
}

// Artifact is one resolved transcript.
type Artifact struct {
	Text   string
	Origin Origin
}

// Resolver attempts to produce a transcript from one source. Resolve returns
// an error wrapping services.ErrNotFound when the source has nothing, which
// sends the coordinator to the next resolver; services.ErrAuthRequired
// propagates untouched.
type Resolver interface {
	Name() string
	Resolve(ctx context.Context, req *Request) (*Artifact, error)
}
