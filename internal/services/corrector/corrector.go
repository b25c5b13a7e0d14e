package corrector

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"bilitext/internal/logging"
	"bilitext/internal/services"
)

// Result holds the outcome of one correction pass.
type Result struct {
	// Corrected is the cleaned transcript text.
	Corrected string
	// Notes lists the notable fixes the model reported; empty when the model
	// reported none or omitted the section.
	Notes string
	// Degraded is set when the response lacked the expected markers and the
	// whole reply was taken as the corrected text.
	Degraded bool
}

// Corrector runs transcripts through a provider and parses the marked reply.
type Corrector struct {
	provider Provider
	logger   *slog.Logger
}

// New creates a corrector over the given provider.
func New(provider Provider, logger *slog.Logger) *Corrector {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Corrector{
		provider: provider,
		logger:   logging.NewComponentLogger(logger, "corrector"),
	}
}

// Provider returns the underlying provider name for logging.
func (c *Corrector) Provider() string {
	if c.provider == nil {
		return ""
	}
	return c.provider.Name()
}

// Correct runs one transcript through the provider. The raw text survives any
// failure here; callers keep it and flag the video instead of failing it.
func (c *Corrector) Correct(ctx context.Context, raw string) (Result, error) {
	var result Result
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return result, services.Wrap(services.ErrValidation, "corrector", "correct", "empty transcript", nil)
	}
	if c.provider == nil {
		return result, services.Wrap(services.ErrConfiguration, "corrector", "correct", "no provider configured", nil)
	}

	started := time.Now()
	reply, err := c.provider.Complete(ctx, correctionSystemPrompt, raw)
	if err != nil {
		return result, services.Wrap(services.ErrExternalTool, "corrector", c.provider.Name(), "completion failed", err)
	}

	result = parseReply(reply)
	if result.Corrected == "" {
		return Result{}, services.Wrap(services.ErrExternalTool, "corrector", c.provider.Name(), "empty corrected transcript", nil)
	}

	c.logger.Info("transcript corrected",
		logging.String("provider", c.provider.Name()),
		logging.Bool("degraded", result.Degraded),
		logging.Int("raw_chars", len(raw)),
		logging.Int("corrected_chars", len(result.Corrected)),
		logging.Duration("elapsed", time.Since(started)))
	return result, nil
}

// parseReply splits a marked reply into corrected text and correction notes.
// A reply without the transcript marker is used whole: a usable but unmarked
// correction beats discarding the model's work.
func parseReply(reply string) Result {
	reply = strings.TrimSpace(reply)

	idx := strings.Index(reply, correctedMarker)
	if idx < 0 {
		return Result{Corrected: reply, Degraded: true}
	}
	rest := reply[idx+len(correctedMarker):]

	var notes string
	if notesIdx := strings.Index(rest, correctionsMarker); notesIdx >= 0 {
		notes = strings.TrimSpace(rest[notesIdx+len(correctionsMarker):])
		rest = rest[:notesIdx]
	}
	if strings.EqualFold(notes, "none") {
		notes = ""
	}
	return Result{
		Corrected: strings.TrimSpace(rest),
		Notes:     notes,
	}
}
