package export

import (
	"fmt"
	"strings"
	"time"

	"bilitext/internal/resolver"
	"bilitext/internal/textutil"
)

const timeRounding = 100 * time.Millisecond

// originOrder fixes the rendering order of the per-source buckets.
var originOrder = []resolver.Origin{
	resolver.OriginAPI,
	resolver.OriginDownloader,
	resolver.OriginASR,
	resolver.OriginASRCorrected,
}

var originLabels = map[resolver.Origin]string{
	resolver.OriginAPI:          "native subtitles",
	resolver.OriginDownloader:   "downloaded subtitles",
	resolver.OriginASR:          "speech-to-text (raw)",
	resolver.OriginASRCorrected: "speech-to-text (corrected)",
}

// RenderStats produces the human-readable stats report written next to the
// combined output.
func RenderStats(stats *Stats) string {
	var builder strings.Builder

	builder.WriteString("Batch export statistics\n")
	builder.WriteString("=======================\n")
	fmt.Fprintf(&builder, "Run ID:        %s\n", stats.RunID)
	fmt.Fprintf(&builder, "User:          %d\n", stats.UID)
	fmt.Fprintf(&builder, "Total videos:  %d\n", stats.Total)
	fmt.Fprintf(&builder, "Processed:     %d\n", stats.Processed)
	fmt.Fprintf(&builder, "Succeeded:     %d\n", stats.Succeeded())
	fmt.Fprintf(&builder, "Failed:        %d\n", len(stats.Failed))
	fmt.Fprintf(&builder, "Token estimate: ~%s\n", textutil.FormatCount(int64(stats.TokenEstimate)))
	fmt.Fprintf(&builder, "Elapsed:       %s\n", stats.Elapsed.Round(timeRounding))

	builder.WriteString("\nBy source:\n")
	for _, origin := range originOrder {
		if count := stats.Counts[origin]; count > 0 {
			fmt.Fprintf(&builder, "  %-28s %d\n", originLabels[origin]+":", count)
		}
	}
	if stats.CorrectionFailures > 0 {
		fmt.Fprintf(&builder, "  %-28s %d\n", "correction failures:", stats.CorrectionFailures)
	}

	if len(stats.Failed) > 0 {
		builder.WriteString("\nFailed videos:\n")
		for _, failed := range stats.Failed {
			fmt.Fprintf(&builder, "  %s  %s\n    %s\n", failed.BVID, failed.Title, failed.Error)
		}
	}
	return builder.String()
}
