package domain

// VideoDescriptor identifies a resolved video and where to fetch it from.
// DirectMediaURL is time-limited and must be consumed promptly; the
// descriptor is never cached or revalidated.
type VideoDescriptor struct {
	VideoID        string
	Title          string
	DirectMediaURL string
	Description    string
}

// TranscriptResult is the final output of one pipeline run.
type TranscriptResult struct {
	Descriptor VideoDescriptor
	Text       string
}
