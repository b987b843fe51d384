package client

import (
	"context"
	"io"
)

// Turn is one prior exchange handed to the generation backend as
// conversation context.
type Turn struct {
	Role    string // "user" or "assistant"
	Content string
}

// GenerationClient produces an assistant reply from a system instruction
// and the recent conversation turns.
type GenerationClient interface {
	Complete(ctx context.Context, system string, turns []Turn) (string, error)
}

// TranscriptionClient converts an audio recording into text.
type TranscriptionClient interface {
	Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error)
}
