package contract

import "context"

// Completer is the text-completion boundary. Implementations must return
// either a non-empty candidate utterance or an error; the caller decides
// what to substitute on failure. No retries happen behind this interface.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// Transcriber turns a recorded audio file into text. Used for offline
// enrichment after a call completes, never on the live audio path.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (Transcription, error)
}

// Transcription is the offline speech-to-text result for a whole recording.
type Transcription struct {
	Text     string  `json:"text"`
	Duration float64 `json:"duration,omitempty"`
	Language string  `json:"language,omitempty"`
}
