package llm

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/capability"
)

// OpenAI 兼容 OpenAI 协议的服务（DeepSeek、Qwen 等）
type OpenAI struct {
	chatModel   model.BaseChatModel
	maxTokens   int
	temperature float32
}

// NewOpenAI 初始化 eino ChatModel
func NewOpenAI(ctx context.Context, baseURL, apiKey, modelName string, maxTokens int, temperature float32) (*OpenAI, error) {
	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   modelName,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM 初始化失败: %w", err)
	}
	return NewOpenAIWithModel(chatModel, maxTokens, temperature), nil
}

// NewOpenAIWithModel 使用已有的 ChatModel，测试时可注入假实现
func NewOpenAIWithModel(cm model.BaseChatModel, maxTokens int, temperature float32) *OpenAI {
	return &OpenAI{chatModel: cm, maxTokens: maxTokens, temperature: temperature}
}

var _ Completer = (*OpenAI)(nil)

func (o *OpenAI) Provider() string { return "openai" }

func (o *OpenAI) Complete(ctx context.Context, p Prompt) (string, error) {
	messages := make([]*schema.Message, 0, 2)
	if p.System != "" {
		messages = append(messages, schema.SystemMessage(p.System))
	}
	messages = append(messages, schema.UserMessage(p.User))

	var opts []model.Option
	if o.maxTokens > 0 {
		opts = append(opts, model.WithMaxTokens(o.maxTokens))
	}
	if o.temperature > 0 {
		opts = append(opts, model.WithTemperature(o.temperature))
	}

	resp, err := o.chatModel.Generate(ctx, messages, opts...)
	if err != nil {
		return "", err
	}
	if resp == nil || resp.Content == "" {
		return "", capability.Transient(fmt.Errorf("empty response from %s", o.Provider()))
	}
	return resp.Content, nil
}
