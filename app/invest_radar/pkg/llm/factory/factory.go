package factory

import (
	"context"
	"fmt"

	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/config"
	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/llm"
)

// NewCompleter 根据配置创建大模型客户端，并套上进程级限流
func NewCompleter(ctx context.Context, cfg *config.Config) (llm.Completer, error) {
	c := cfg.LLM
	var (
		completer llm.Completer
		err       error
	)

	switch c.Provider {
	case "", "openai":
		if c.BaseURL == "" {
			return nil, fmt.Errorf("llm base url is missing")
		}
		completer, err = llm.NewOpenAI(ctx, c.BaseURL, c.APIKey, c.Model, c.MaxTokens, c.Temperature)
	case "claude":
		if c.APIKey == "" {
			return nil, fmt.Errorf("anthropic api key is missing")
		}
		completer = llm.NewClaude(c.APIKey, c.Model, c.MaxTokens, c.Temperature)
	case "gemini":
		if c.APIKey == "" {
			return nil, fmt.Errorf("gemini api key is missing")
		}
		completer, err = llm.NewGemini(ctx, c.APIKey, c.Model, c.MaxTokens, c.Temperature)
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", c.Provider)
	}
	if err != nil {
		return nil, err
	}

	return llm.NewLimited(completer, cfg.Concurrency.RPM, cfg.Concurrency.QPS), nil
}
