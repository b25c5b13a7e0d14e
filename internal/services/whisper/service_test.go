package whisper

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"bilitext/internal/services"
)

func TestTranscribeProducesTranscriptPath(t *testing.T) {
	service := NewService("", "", 0, nil)
	dir := t.TempDir()
	audio := filepath.Join(dir, "audio.m4a")

	var gotArgs []string
	service.WithCommandRunner(func(ctx context.Context, name string, args ...string) (string, error) {
		gotArgs = args
		// Whisper writes a .txt named after the audio stem.
		return "", os.WriteFile(filepath.Join(dir, "audio.txt"), []byte("transcribed text"), 0o644)
	})

	path, err := service.Transcribe(context.Background(), audio, dir)
	if err != nil {
		t.Fatalf("Transcribe returned error: %v", err)
	}
	if path != filepath.Join(dir, "audio.txt") {
		t.Fatalf("unexpected transcript path %q", path)
	}

	if gotArgs[0] != audio {
		t.Fatalf("audio path should be the first arg: %v", gotArgs)
	}
	mIdx := slices.Index(gotArgs, "--model")
	if mIdx < 0 || gotArgs[mIdx+1] != DefaultModel {
		t.Fatalf("default model not requested: %v", gotArgs)
	}
	fIdx := slices.Index(gotArgs, "--output_format")
	if fIdx < 0 || gotArgs[fIdx+1] != "txt" {
		t.Fatalf("txt output not requested: %v", gotArgs)
	}
}

func TestTranscribeMissingOutput(t *testing.T) {
	service := NewService("whisper", "small", 0, nil)
	service.WithCommandRunner(func(ctx context.Context, name string, args ...string) (string, error) {
		return "", nil // exits zero but writes nothing
	})

	_, err := service.Transcribe(context.Background(), filepath.Join(t.TempDir(), "audio.m4a"), "")
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool for missing transcript, got %v", err)
	}
}

func TestTranscribeCommandFailure(t *testing.T) {
	service := NewService("whisper", "small", 0, nil)
	service.WithCommandRunner(func(ctx context.Context, name string, args ...string) (string, error) {
		return "CUDA out of memory", errors.New("exit status 1")
	})

	_, err := service.Transcribe(context.Background(), filepath.Join(t.TempDir(), "audio.m4a"), "")
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
}
