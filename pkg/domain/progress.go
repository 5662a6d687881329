package domain

// Stage identifies the pipeline phase a progress event belongs to.
type Stage string

const (
	StageParsing           Stage = "parsing"
	StageDownloading       Stage = "downloading"
	StageExtractingAudio   Stage = "extracting_audio"
	StageSpeechRecognition Stage = "speech_recognition"
	StageCleaning          Stage = "cleaning"
	StageCompleted         Stage = "completed"
)

// ProgressEvent reports forward movement inside one stage. Percent is
// non-decreasing within a stage but resets at stage boundaries.
type ProgressEvent struct {
	Stage   Stage
	Percent int
	Message string
}

// ProgressFunc receives progress events. A nil ProgressFunc is valid and
// means the caller does not observe progress.
type ProgressFunc func(ProgressEvent)

// Emit invokes f if it is non-nil.
func (f ProgressFunc) Emit(stage Stage, percent int, message string) {
	if f == nil {
		return
	}
	f(ProgressEvent{Stage: stage, Percent: percent, Message: message})
}
