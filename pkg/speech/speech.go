package speech

import (
	"context"
	"errors"
)

var (
	ErrQueueFull   = errors.New("speech queue is full")
	ErrQueueClosed = errors.New("speech queue is closed")
	ErrSynthesis   = errors.New("speech synthesis failed")
)

// Synthesizer turns a reply string into playable audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (audio []byte, contentType string, err error)
}

// Utterance is one reply waiting to be spoken.
type Utterance struct {
	SessionID string
	TurnID    string
	Text      string
}

// Playback is the result of synthesizing one utterance. Fallback is true
// when the local engine produced the audio because the remote one failed.
// Err is set when both engines failed; Text still carries the reply so the
// caller can fall back to showing it.
type Playback struct {
	Utterance
	Audio       []byte
	ContentType string
	Fallback    bool
	Err         error
}
