package credentials

// Operation identifies a pipeline action whose failure mode depends on
// whether the platform session is authenticated.
type Operation string

const (
	// OpFetchSubtitles covers native subtitle listing and download, which the
	// platform gates behind a logged-in session.
	OpFetchSubtitles Operation = "fetch_subtitles"
	// OpCorrectionRetry covers re-running transcript correction; it talks to
	// the LLM provider, never the platform.
	OpCorrectionRetry Operation = "correction_retry"
	// OpBatchExport covers whole-account exports, which enumerate videos and
	// fetch subtitles on the caller's behalf.
	OpBatchExport Operation = "batch_export"
)

// AuthRequired reports whether an operation cannot meaningfully proceed
// without platform credentials. Operations that only touch local files or
// third-party services do not require them.
func AuthRequired(op Operation) bool {
	switch op {
	case OpFetchSubtitles, OpBatchExport:
		return true
	default:
		return false
	}
}
