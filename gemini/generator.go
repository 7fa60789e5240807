package gemini

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/pwnbisht/llm-chatbot/models"
)

// DefaultGenerationModel is used when GEMINI_MODEL is unset.
const DefaultGenerationModel = "gemini-3-pro-preview"

// Generator runs multi-turn chat generation through the Gemini SDK.
type Generator struct {
	client *genai.Client
	model  string
}

// NewGenerator connects to the API with the given key. The model name comes
// from GEMINI_MODEL when set.
func NewGenerator(ctx context.Context, apiKey string) (*Generator, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	model := os.Getenv("GEMINI_MODEL")
	if model == "" {
		model = DefaultGenerationModel
	}
	return &Generator{client: client, model: model}, nil
}

// Close releases the underlying client.
func (g *Generator) Close() error {
	return g.client.Close()
}

// Generate sends the conversation fragments as a chat and returns the model's
// text reply. System fragments become the system instruction; assistant
// fragments replay as model turns; the final user fragment is sent as the
// live message.
func (g *Generator) Generate(ctx context.Context, fragments []models.Fragment, temperature float64) (string, error) {
	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(float32(temperature))

	var systemParts []genai.Part
	var turns []*genai.Content
	for _, f := range fragments {
		switch f.Role {
		case models.RoleSystem:
			systemParts = append(systemParts, genai.Text(f.Content))
		case models.RoleAssistant:
			turns = append(turns, &genai.Content{
				Role:  "model",
				Parts: []genai.Part{genai.Text(f.Content)},
			})
		default:
			turns = append(turns, &genai.Content{
				Role:  "user",
				Parts: []genai.Part{genai.Text(f.Content)},
			})
		}
	}
	if len(systemParts) > 0 {
		model.SystemInstruction = &genai.Content{Parts: systemParts}
	}
	if len(turns) == 0 {
		return "", fmt.Errorf("no user message to send")
	}

	last := turns[len(turns)-1]
	cs := model.StartChat()
	cs.History = turns[:len(turns)-1]

	resp, err := cs.SendMessage(ctx, last.Parts...)
	if err != nil {
		return "", fmt.Errorf("generation request failed: %w", err)
	}

	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
	}
	return sb.String(), nil
}
