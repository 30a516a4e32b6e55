package audio

import (
	"context"
	"io"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

// TranscriptionService is the batch path: short uploaded clips go through
// Whisper instead of the streaming relay. Temp files are removed as soon as
// the transcript is back.
type TranscriptionService struct {
	client *openai.Client
}

func NewTranscriptionService(apiKey string) *TranscriptionService {
	return &TranscriptionService{client: openai.NewClient(apiKey)}
}

func (t *TranscriptionService) TranscribeClip(ctx context.Context, clip io.Reader, filename string) (string, error) {
	tmpFile, err := os.CreateTemp("", "voice-clip-*"+filename)
	if err != nil {
		return "", err
	}
	defer os.Remove(tmpFile.Name())
	defer tmpFile.Close()

	if _, err := io.Copy(tmpFile, clip); err != nil {
		return "", err
	}

	req := openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: tmpFile.Name(),
		Language: "en",
	}

	resp, err := t.client.CreateTranscription(ctx, req)
	if err != nil {
		return "", err
	}

	return resp.Text, nil
}
