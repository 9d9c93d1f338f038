package entity

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
const Name = "entities"

const maxInputRunes = 8000

// Extractor 实体抽取接口，返回顺序即抽取顺序，允许重复
type Extractor interface {
	Extract(ctx context.Context, text string) ([]model.Entity, error)
}

// LLMExtractor 通过大模型抽取实体
type LLMExtractor struct {
	completer llm.Completer
	policy    capability.Policy
}

// NewLLMExtractor 创建抽取器
func NewLLMExtractor(c llm.Completer, p capability.Policy) *LLMExtractor {
	return &LLMExtractor{completer: c, policy: p}
}

var _ Extractor = (*LLMExtractor)(nil)

const systemPrompt = `You extract named entities from investment questions about Indian markets (NSE/BSE).
Reply with JSON only, no markdown:
{"entities": [{"text": "...", "category": "ticker|organization|monetary-amount|sector|person|location", "confidence": 0.0-1.0}]}
Use the NSE symbol as text for listed companies when you are sure of it (e.g. RELIANCE, TCS, HDFCBANK).
Keep the order in which entities appear in the question. Return {"entities": []} when there are none.`

type reply struct {
	Entities []model.Entity `json:"entities"`
}

// Extract 抽取实体
func (e *LLMExtractor) Extract(ctx context.Context, text string) ([]model.Entity, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, capability.Reject(Name, errors.New("text is empty"))
	}
	if len([]rune(text)) > maxInputRunes {
		return nil, capability.Reject(Name, fmt.Errorf("text longer than %d characters", maxInputRunes))
	}

	return capability.Invoke(ctx, Name, e.policy, func(ctx context.Context) ([]model.Entity, error) {
		content, err := e.completer.Complete(ctx, llm.Prompt{System: systemPrompt, User: text})
		if err != nil {
			return nil, err
		}
		var r reply
		if err := llm.DecodeJSON(content, &r); err != nil {
			return nil, err
		}
		return clean(r.Entities), nil
	})
}

// clean 丢弃空文本，规范类别并把置信度夹到 [0,1]
func clean(in []model.Entity) []model.Entity {
	out := make([]model.Entity, 0, len(in))
	for _, ent := range in {
		ent.Text = strings.TrimSpace(ent.Text)
		if ent.Text == "" {
			continue
		}
		ent.Category = strings.ToLower(strings.TrimSpace(ent.Category))
		if ent.Confidence < 0 {
			ent.Confidence = 0
		}
		if ent.Confidence > 1 {
			ent.Confidence = 1
		}
		out = append(out, ent)
	}
	return out
}
