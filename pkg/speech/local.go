package speech

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
)

// Local synthesizes speech with the espeak-ng binary on the host. Quality is
// nowhere near the remote engine; it exists so a reply is still spoken when
// the remote service is down.
type Local struct {
	binary string
	voice  string
}

func NewLocal() *Local {
	binary := os.Getenv("ESPEAK_BINARY")
	if binary == "" {
		binary = "espeak-ng"
	}

	voice := os.Getenv("ESPEAK_VOICE")
	if voice == "" {
		voice = "en-us"
	}

	return &Local{binary: binary, voice: voice}
}

func (l *Local) Synthesize(ctx context.Context, text string) ([]byte, string, error) {
	if text == "" {
		return nil, "", fmt.Errorf("%w: empty text", ErrSynthesis)
	}

	var out, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, l.binary, "--stdout", "-v", l.voice, text)
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, "", fmt.Errorf("%s: %w (%s)", l.binary, err, stderr.String())
	}

	return out.Bytes(), "audio/wav", nil
}
