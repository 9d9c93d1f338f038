package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/capability"
)

// Name 能力名称
const Name = "embedding"

const maxInputRunes = 20000

// Embedder 文本向量化接口
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// embedAPI genai.Models 中用到的方法
type embedAPI interface {
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

// Gemini 使用 Gemini embedding 模型
type Gemini struct {
	api    embedAPI
	model  string
	policy capability.Policy
}

// NewGemini 创建 Gemini 向量化客户端
func NewGemini(ctx context.Context, apiKey, model string, p capability.Policy) (*Gemini, error) {
	if apiKey == "" {
		return nil, errors.New("embedding api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &Gemini{api: client.Models, model: model, policy: p}, nil
}

var _ Embedder = (*Gemini)(nil)

// Embed 返回文本向量
func (g *Gemini) Embed(ctx context.Context, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, capability.Reject(Name, errors.New("text is empty"))
	}
	if r := []rune(text); len(r) > maxInputRunes {
		// 长文档只取开头部分
		text = string(r[:maxInputRunes])
	}

	return capability.Invoke(ctx, Name, g.policy, func(ctx context.Context) ([]float32, error) {
		resp, err := g.api.EmbedContent(ctx, g.model, genai.Text(text), nil)
		if err != nil {
			var apiErr genai.APIError
			if errors.As(err, &apiErr) {
				return nil, capability.FromStatus(apiErr.Code, err)
			}
			return nil, err
		}
		if resp == nil || len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
			return nil, capability.Transient(errors.New("empty embedding in Gemini response"))
		}
		return resp.Embeddings[0].Values, nil
	})
}
