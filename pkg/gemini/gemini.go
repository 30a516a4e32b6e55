package gemini

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// IGemini phrases the clarifying reply for an utterance the rule classifier
// could not place. The pipeline never depends on it: any error falls back to
// the fixed clarifying phrase.
type IGemini interface {
	SuggestClarification(ctx context.Context, transcript string, knownCommands []string) (string, error)
}

type geminiClient struct {
	apiKey    string
	modelName string
	client    *genai.Client
}

func NewGeminiClient() (IGemini, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("gemini API key is required")
	}

	modelName := os.Getenv("GEMINI_MODEL_NAME")
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	return &geminiClient{
		apiKey:    apiKey,
		modelName: modelName,
		client:    client,
	}, nil
}

const clarificationPrompt = `A user of a healthcare portal said: "%s".
The portal only understands these command types: %s.
Write one short, friendly sentence suggesting the closest supported command.
Do not answer the user's question. Do not use markdown. One sentence only.`

func (g *geminiClient) SuggestClarification(ctx context.Context, transcript string, knownCommands []string) (string, error) {
	model := g.client.GenerativeModel(g.modelName)

	prompt := fmt.Sprintf(clarificationPrompt, transcript, strings.Join(knownCommands, ", "))

	res, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}

	if len(res.Candidates) == 0 || len(res.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("no response from Gemini API")
	}

	text, ok := res.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return "", errors.New("unexpected response type from Gemini API")
	}

	return strings.TrimSpace(string(text)), nil
}
