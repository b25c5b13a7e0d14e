package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"bilitext/internal/bili"
	"bilitext/internal/resolver"
	"bilitext/internal/services"
	"bilitext/internal/services/corrector"
)

type stubResolver struct {
	name     string
	artifact *resolver.Artifact
	err      error
	calls    int
}

func (s *stubResolver) Name() string { return s.name }

func (s *stubResolver) Resolve(ctx context.Context, req *resolver.Request) (*resolver.Artifact, error) {
	s.calls++
	return s.artifact, s.err
}

type stubProvider struct {
	reply string
	err   error
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return s.reply, s.err
}

func notFound(name string) error {
	return services.Wrap(services.ErrNotFound, "resolver", name, "nothing", nil)
}

func testVideo() *bili.VideoInfo {
	return &bili.VideoInfo{BVID: "BV1xx411c7mD", CID: 222, Title: "Test"}
}

func newCoordinator(t *testing.T, opts Options) *Coordinator {
	t.Helper()
	if opts.WorkRoot == "" {
		opts.WorkRoot = t.TempDir()
	}
	coord, err := New(opts)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return coord
}

func TestTranscriptFirstSourceWins(t *testing.T) {
	first := &stubResolver{name: "api", artifact: &resolver.Artifact{Text: "native", Origin: resolver.OriginAPI}}
	second := &stubResolver{name: "downloader"}
	coord := newCoordinator(t, Options{Resolvers: []resolver.Resolver{first, second}})

	result, err := coord.Transcript(context.Background(), testVideo(), "")
	if err != nil {
		t.Fatalf("Transcript returned error: %v", err)
	}
	if result.Text != "native" || result.Origin != resolver.OriginAPI {
		t.Fatalf("unexpected result %+v", result)
	}
	if second.calls != 0 {
		t.Fatal("later resolvers must not run after a hit")
	}
}

func TestTranscriptFallsBackOnNotFound(t *testing.T) {
	first := &stubResolver{name: "api", err: notFound("api")}
	second := &stubResolver{name: "downloader", artifact: &resolver.Artifact{Text: "srt text", Origin: resolver.OriginDownloader}}
	coord := newCoordinator(t, Options{Resolvers: []resolver.Resolver{first, second}})

	result, err := coord.Transcript(context.Background(), testVideo(), "")
	if err != nil {
		t.Fatalf("Transcript returned error: %v", err)
	}
	if result.Origin != resolver.OriginDownloader {
		t.Fatalf("unexpected origin %q", result.Origin)
	}
	if first.calls != 1 || second.calls != 1 {
		t.Fatalf("unexpected call counts: %d, %d", first.calls, second.calls)
	}
}

func TestTranscriptAuthRequiredAborts(t *testing.T) {
	first := &stubResolver{name: "downloader", err: services.Wrap(services.ErrAuthRequired, "ytdlp", "download", "members only", nil)}
	second := &stubResolver{name: "asr"}
	coord := newCoordinator(t, Options{Resolvers: []resolver.Resolver{first, second}})

	_, err := coord.Transcript(context.Background(), testVideo(), "")
	if !errors.Is(err, services.ErrAuthRequired) {
		t.Fatalf("expected ErrAuthRequired, got %v", err)
	}
	if second.calls != 0 {
		t.Fatal("auth failure must stop the chain")
	}
}

func TestTranscriptAllSourcesExhausted(t *testing.T) {
	coord := newCoordinator(t, Options{Resolvers: []resolver.Resolver{
		&stubResolver{name: "api", err: notFound("api")},
		&stubResolver{name: "downloader", err: notFound("downloader")},
	}})

	_, err := coord.Transcript(context.Background(), testVideo(), "")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTranscriptCorrectsASROutput(t *testing.T) {
	workRoot := t.TempDir()
	asr := &stubResolver{name: "asr", artifact: &resolver.Artifact{Text: "raw speech", Origin: resolver.OriginASR}}
	fixed := corrector.New(&stubProvider{reply: "CORRECTED_TRANSCRIPT:\npolished speech\n\nKEY_CORRECTIONS:\n- fixed a name"}, nil)
	coord := newCoordinator(t, Options{
		Resolvers: []resolver.Resolver{asr},
		Corrector: fixed,
		WorkRoot:  workRoot,
	})

	result, err := coord.Transcript(context.Background(), testVideo(), "")
	if err != nil {
		t.Fatalf("Transcript returned error: %v", err)
	}
	if result.Origin != resolver.OriginASRCorrected || result.Text != "polished speech" {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.CorrectionNotes == "" {
		t.Fatal("correction notes lost")
	}

	// Corrected text persisted next to the raw transcript.
	data, err := os.ReadFile(filepath.Join(workRoot, "BV1xx411c7mD", CorrectedTranscriptName))
	if err != nil {
		t.Fatalf("corrected transcript not persisted: %v", err)
	}
	if string(data) != "polished speech\n" {
		t.Fatalf("unexpected persisted text %q", data)
	}

	// Correction notes persisted beside it.
	notes, err := os.ReadFile(filepath.Join(workRoot, "BV1xx411c7mD", CorrectionNotesName))
	if err != nil {
		t.Fatalf("correction notes not persisted: %v", err)
	}
	if string(notes) != "- fixed a name\n" {
		t.Fatalf("unexpected persisted notes %q", notes)
	}
}

func TestTranscriptNoNotesFileWhenNoneReported(t *testing.T) {
	workRoot := t.TempDir()
	asr := &stubResolver{name: "asr", artifact: &resolver.Artifact{Text: "raw speech", Origin: resolver.OriginASR}}
	fixed := corrector.New(&stubProvider{reply: "CORRECTED_TRANSCRIPT:\npolished speech\n\nKEY_CORRECTIONS:\nnone"}, nil)
	coord := newCoordinator(t, Options{
		Resolvers: []resolver.Resolver{asr},
		Corrector: fixed,
		WorkRoot:  workRoot,
	})

	if _, err := coord.Transcript(context.Background(), testVideo(), ""); err != nil {
		t.Fatalf("Transcript returned error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(workRoot, "BV1xx411c7mD", CorrectionNotesName)); !os.IsNotExist(err) {
		t.Fatal("no notes file should be written when the model reported none")
	}
}

func TestTranscriptCorrectionFailureDegrades(t *testing.T) {
	asr := &stubResolver{name: "asr", artifact: &resolver.Artifact{Text: "raw speech", Origin: resolver.OriginASR}}
	broken := corrector.New(&stubProvider{err: errors.New("connection refused")}, nil)
	coord := newCoordinator(t, Options{Resolvers: []resolver.Resolver{asr}, Corrector: broken})

	result, err := coord.Transcript(context.Background(), testVideo(), "")
	if err != nil {
		t.Fatalf("correction failure must not fail the video: %v", err)
	}
	if result.Origin != resolver.OriginASR || result.Text != "raw speech" {
		t.Fatalf("raw transcript should survive, got %+v", result)
	}
	if !result.CorrectionFailed {
		t.Fatal("degraded result should be flagged")
	}
}

func TestTranscriptNoCorrectionForSubtitles(t *testing.T) {
	api := &stubResolver{name: "api", artifact: &resolver.Artifact{Text: "native", Origin: resolver.OriginAPI}}
	fixed := corrector.New(&stubProvider{reply: "CORRECTED_TRANSCRIPT:\nshould not run"}, nil)
	coord := newCoordinator(t, Options{Resolvers: []resolver.Resolver{api}, Corrector: fixed})

	result, err := coord.Transcript(context.Background(), testVideo(), "")
	if err != nil {
		t.Fatalf("Transcript returned error: %v", err)
	}
	if result.Text != "native" || result.Origin != resolver.OriginAPI {
		t.Fatalf("subtitle text must pass through uncorrected, got %+v", result)
	}
}

func TestTranscriptDiskCacheShortCircuits(t *testing.T) {
	workRoot := t.TempDir()
	workDir := filepath.Join(workRoot, "BV1xx411c7mD")
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(workDir, resolver.RawTranscriptName), []byte("raw"), 0o644); err != nil {
		t.Fatalf("seed raw: %v", err)
	}
	if err := os.WriteFile(filepath.Join(workDir, CorrectedTranscriptName), []byte("corrected from disk"), 0o644); err != nil {
		t.Fatalf("seed corrected: %v", err)
	}

	untouched := &stubResolver{name: "api"}
	coord := newCoordinator(t, Options{Resolvers: []resolver.Resolver{untouched}, WorkRoot: workRoot})

	result, err := coord.Transcript(context.Background(), testVideo(), "")
	if err != nil {
		t.Fatalf("Transcript returned error: %v", err)
	}
	if result.Text != "corrected from disk" || result.Origin != resolver.OriginASRCorrected {
		t.Fatalf("unexpected result %+v", result)
	}
	if untouched.calls != 0 {
		t.Fatal("resolvers must not run when both transcripts are cached")
	}
}

func TestTranscriptPayWalledPolicySkip(t *testing.T) {
	untouched := &stubResolver{name: "api"}
	coord := newCoordinator(t, Options{Resolvers: []resolver.Resolver{untouched}})

	video := testVideo()
	video.ChargingExclusive = true
	video.ChargingLevel = "charging level 2"

	_, err := coord.Transcript(context.Background(), video, "")
	if err == nil {
		t.Fatal("pay-walled video should fail under skip policy")
	}
	if errors.Is(err, services.ErrAuthRequired) {
		t.Fatal("policy skip must not abort the whole batch")
	}
	if untouched.calls != 0 {
		t.Fatal("no source should run for a skipped video")
	}
}

func TestTranscriptPayWalledPolicyForce(t *testing.T) {
	api := &stubResolver{name: "api", artifact: &resolver.Artifact{Text: "partial", Origin: resolver.OriginAPI}}
	coord := newCoordinator(t, Options{Resolvers: []resolver.Resolver{api}, PartialContentPolicy: PolicyForce})

	video := testVideo()
	video.ChargingExclusive = true

	result, err := coord.Transcript(context.Background(), video, "")
	if err != nil {
		t.Fatalf("force policy should proceed: %v", err)
	}
	if result.Text != "partial" {
		t.Fatalf("unexpected result %+v", result)
	}
}
