package ai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const DefaultModel = "gemini-2.5-flash"

// Provider abstracts the LLM backend behind the study generators.
type Provider interface {
	// GenerateText returns the first text part of the model response.
	GenerateText(ctx context.Context, prompt string) (string, error)

	// GenerateStructured decodes a JSON response into output.
	GenerateStructured(ctx context.Context, prompt string, output any) error

	Close()
}

// GeminiProvider implements Provider on Google Gemini.
type GeminiProvider struct {
	client    *genai.Client
	textModel *genai.GenerativeModel
	jsonModel *genai.GenerativeModel
}

func NewGeminiProvider(ctx context.Context, apiKey, modelName string) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	if modelName == "" {
		modelName = DefaultModel
	}

	textModel := client.GenerativeModel(modelName)
	textModel.SetTemperature(0.7)

	// separate model instance so concurrent requests never share a mutated MIME type
	jsonModel := client.GenerativeModel(modelName)
	jsonModel.SetTemperature(0.4)
	jsonModel.ResponseMIMEType = "application/json"

	return &GeminiProvider{
		client:    client,
		textModel: textModel,
		jsonModel: jsonModel,
	}, nil
}

func (g *GeminiProvider) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := g.textModel.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	return firstText(resp)
}

func (g *GeminiProvider) GenerateStructured(ctx context.Context, prompt string, output any) error {
	resp, err := g.jsonModel.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return err
	}

	txt, err := firstText(resp)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(txt), output); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}
	return nil
}

func (g *GeminiProvider) Close() {
	g.client.Close()
}

func firstText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no response from LLM")
	}

	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			return string(txt), nil
		}
	}
	return "", fmt.Errorf("no text content in response")
}
