package domain

// SummarizeRequest is the input to the summarization client.
type SummarizeRequest struct {
	Text      string
	ModelID   string
	MaxLength int
	MinLength int
}

// FailureKind classifies an unsuccessful SummarizeResult.
type FailureKind string

const (
	FailureKindNone       FailureKind = ""
	FailureKindValidation FailureKind = "validation"
	FailureKindRemote     FailureKind = "remote"
)

// SummarizeStats are the measurements attached to a result.
type SummarizeStats struct {
	ModelID          string
	FallbackModel    bool
	ProcessingTimeMs int64
	InputTokens      int
	OutputTokens     int
	Attempts         int
}

// SummarizeResult is the value returned by the summarization client.
// Remote exhaustion is reported here, never as a Go error.
type SummarizeResult struct {
	Success bool
	Summary string
	Error   string
	Kind    FailureKind
	Stats   SummarizeStats
}
