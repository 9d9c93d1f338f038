package sentiment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/capability"
	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/llm"
	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/model"
)

// Name 能力名称
const Name = "sentiment"

// maxInputRunes 超过此长度的输入直接拒绝，避免无意义的 token 消耗
const maxInputRunes = 8000

// Classifier 情感分析接口
type Classifier interface {
	Classify(ctx context.Context, text string) (model.SentimentResult, error)
}

// LLMClassifier 通过大模型做情感分类
type LLMClassifier struct {
	completer llm.Completer
	policy    capability.Policy
}

// NewLLMClassifier 创建分类器
func NewLLMClassifier(c llm.Completer, p capability.Policy) *LLMClassifier {
	return &LLMClassifier{completer: c, policy: p}
}

var _ Classifier = (*LLMClassifier)(nil)

const systemPrompt = `You are a financial sentiment classifier for Indian equity markets.
Reply with JSON only, no markdown: {"label": "positive|neutral|negative", "score": 0.0-1.0}
score is your confidence in the label.`

type reply struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Classify 对文本做情感分类
func (c *LLMClassifier) Classify(ctx context.Context, text string) (model.SentimentResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.SentimentResult{}, capability.Reject(Name, errors.New("text is empty"))
	}
	if len([]rune(text)) > maxInputRunes {
		return model.SentimentResult{}, capability.Reject(Name, fmt.Errorf("text longer than %d characters", maxInputRunes))
	}

	return capability.Invoke(ctx, Name, c.policy, func(ctx context.Context) (model.SentimentResult, error) {
		content, err := c.completer.Complete(ctx, llm.Prompt{System: systemPrompt, User: text})
		if err != nil {
			return model.SentimentResult{}, err
		}
		var r reply
		if err := llm.DecodeJSON(content, &r); err != nil {
			return model.SentimentResult{}, err
		}
		return normalize(r)
	})
}

func normalize(r reply) (model.SentimentResult, error) {
	res := model.SentimentResult{
		Label: model.SentimentLabel(strings.ToLower(strings.TrimSpace(r.Label))),
		Score: r.Score,
	}
	if err := model.Validate(res); err != nil {
		return model.SentimentResult{}, capability.Permanent(fmt.Errorf("malformed sentiment reply: %w", err))
	}
	return res, nil
}
