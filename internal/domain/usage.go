package domain

import "time"

// UsageEventType enumerates metered operations.
type UsageEventType string

const (
	UsageFixSpelling UsageEventType = "TEXT_FIX_SPELLING"
	UsageLecture     UsageEventType = "TEXT_LECTURE"
	UsageExtractURL  UsageEventType = "EXTRACT_URL"
	UsageExtractPDF  UsageEventType = "EXTRACT_PDF"
	UsageOCR         UsageEventType = "OCR"
)

// UsageEvent is an audit row for a completed or failed operation.
type UsageEvent struct {
	UserID     string
	RequestID  string
	Type       UsageEventType
	Success    bool
	LatencyMS  int
	Properties map[string]any
	CreatedAt  time.Time
}
