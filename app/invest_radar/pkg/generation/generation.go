package generation

import (
	"context"
	"fmt"
	"strings"

	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/capability"
	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/llm"
	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/model"
)

// Name 能力名称
const Name = "generation"

// Output 生成结果。UsedFactIDs 为 nil 表示模型没有声明引用了哪些数据，
// 非 nil 的空切片表示声明了“一条都没用”。
type Output struct {
	Text        string
	Confidence  float64
	UsedFactIDs []string
}

// Generator 投资建议生成接口
type Generator interface {
	Generate(ctx context.Context, q model.Query, actx model.AnalysisContext) (Output, error)
}

// LLMGenerator 通过大模型生成投资建议
type LLMGenerator struct {
	completer llm.Completer
	policy    capability.Policy
}

// NewLLMGenerator 创建生成器
func NewLLMGenerator(c llm.Completer, p capability.Policy) *LLMGenerator {
	return &LLMGenerator{completer: c, policy: p}
}

var _ Generator = (*LLMGenerator)(nil)

const systemPrompt = "你是一个 JSON 生成器。请只输出 JSON 字符串。"

const promptTpl = `Role: SEBI-registered investment adviser for Indian markets (NSE/BSE)

Context
Investor profile: age %d, risk tolerance %s, investment horizon %s.
Question sentiment: %s (confidence %.2f)
Extracted entities:
%s
Market facts (id = value, as of):
%s

Instructions
Answer the investor's question with a concrete, explainable recommendation suited to the profile.
Only rely on the market facts listed above; if they are missing, say the recommendation is based on general principles.
Reply strictly in this JSON format, no markdown:
{
    "recommendation": "recommendation text with reasoning and caveats",
    "confidence": 0.0-1.0,
    "used_fact_ids": ["ids of the market facts you relied on, e.g. TCS:price"]
}

Question:
%s`

type reply struct {
	Recommendation string   `json:"recommendation"`
	Confidence     float64  `json:"confidence"`
	UsedFactIDs    []string `json:"used_fact_ids"`
}

// Generate 根据问题和分析上下文生成建议
func (g *LLMGenerator) Generate(ctx context.Context, q model.Query, actx model.AnalysisContext) (Output, error) {
	if err := q.Validate(); err != nil {
		return Output{}, capability.Reject(Name, err)
	}

	prompt := BuildPrompt(q, actx)
	return capability.Invoke(ctx, Name, g.policy, func(ctx context.Context) (Output, error) {
		content, err := g.completer.Complete(ctx, llm.Prompt{System: systemPrompt, User: prompt})
		if err != nil {
			return Output{}, err
		}
		var r reply
		if err := llm.DecodeJSON(content, &r); err != nil {
			return Output{}, err
		}
		r.Recommendation = strings.TrimSpace(r.Recommendation)
		if r.Recommendation == "" {
			return Output{}, capability.Permanent(fmt.Errorf("empty recommendation"))
		}
		return Output{Text: r.Recommendation, Confidence: r.Confidence, UsedFactIDs: r.UsedFactIDs}, nil
	})
}

// BuildPrompt 把上下文渲染成提示词
func BuildPrompt(q model.Query, actx model.AnalysisContext) string {
	var ents strings.Builder
	if len(actx.Entities) == 0 {
		ents.WriteString("- (none)\n")
	}
	for _, e := range actx.Entities {
		fmt.Fprintf(&ents, "- %s [%s] %.2f\n", e.Text, e.Category, e.Confidence)
	}

	var facts strings.Builder
	if len(actx.Facts) == 0 {
		facts.WriteString("- (none)\n")
	}
	for _, f := range actx.Facts {
		fmt.Fprintf(&facts, "- %s = %s (%s)\n", f.ID(), f.Value, f.AsOf.Format("2006-01-02 15:04"))
	}

	return fmt.Sprintf(promptTpl,
		q.Profile.Age, q.Profile.RiskTolerance, q.Profile.InvestmentHorizon,
		actx.Sentiment.Label, actx.Sentiment.Score,
		ents.String(),
		facts.String(),
		q.Text,
	)
}
