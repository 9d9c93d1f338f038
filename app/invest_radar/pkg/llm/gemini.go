package llm

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/capability"
)

// generateAPI genai.Models 中用到的方法
type generateAPI interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gemini Google Gemini API
type Gemini struct {
	api         generateAPI
	model       string
	maxTokens   int
	temperature float32
}

// NewGemini 创建 Gemini 客户端
func NewGemini(ctx context.Context, apiKey, model string, maxTokens int, temperature float32) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &Gemini{api: client.Models, model: model, maxTokens: maxTokens, temperature: temperature}, nil
}

var _ Completer = (*Gemini)(nil)

func (g *Gemini) Provider() string { return "gemini" }

func (g *Gemini) Complete(ctx context.Context, p Prompt) (string, error) {
	config := &genai.GenerateContentConfig{}
	if g.temperature > 0 {
		config.Temperature = genai.Ptr(g.temperature)
	}
	if g.maxTokens > 0 {
		config.MaxOutputTokens = int32(g.maxTokens)
	}
	if p.System != "" {
		config.SystemInstruction = genai.NewContentFromText(p.System, genai.RoleUser)
	}

	resp, err := g.api.GenerateContent(ctx, g.model, genai.Text(p.User), config)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return "", capability.FromStatus(apiErr.Code, err)
		}
		return "", err
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", capability.Transient(fmt.Errorf("empty response from Gemini API"))
	}
	text := resp.Text()
	if text == "" {
		return "", capability.Transient(fmt.Errorf("empty text in Gemini response"))
	}
	return text, nil
}
