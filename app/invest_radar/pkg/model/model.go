package model

import (
	"sort"
	"strings"
	"time"
)

// RiskTolerance 风险偏好
type RiskTolerance string

const (
	RiskConservative RiskTolerance = "conservative"
	RiskModerate     RiskTolerance = "moderate"
	RiskAggressive   RiskTolerance = "aggressive"
)

// InvestmentHorizon 投资期限
type InvestmentHorizon string

const (
	HorizonShort  InvestmentHorizon = "short"
	HorizonMedium InvestmentHorizon = "medium"
	HorizonLong   InvestmentHorizon = "long"
)

// UserProfile 用户投资画像
type UserProfile struct {
	Age               int               `json:"age" validate:"gt=0,lte=150"`
	RiskTolerance     RiskTolerance     `json:"risk_tolerance" validate:"oneof=conservative moderate aggressive"`
	InvestmentHorizon InvestmentHorizon `json:"investment_horizon" validate:"oneof=short medium long"`
}

// Query 用户提交的投资问题，提交后不可修改
type Query struct {
	Text    string      `json:"query" validate:"required,notblank"`
	Profile UserProfile `json:"profile"`
}

// Entity 实体抽取结果
type Entity struct {
	Text       string  `json:"text" validate:"required"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence" validate:"gte=0,lte=1"`
}

// 常用实体类别
const (
	CategoryTicker       = "ticker"
	CategoryOrganization = "organization"
	CategoryMoney        = "monetary-amount"
	CategorySector       = "sector"
)

// SentimentLabel 情感标签
type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNeutral  SentimentLabel = "neutral"
	SentimentNegative SentimentLabel = "negative"
)

// SentimentResult 情感分析结果
type SentimentResult struct {
	Label SentimentLabel `json:"label" validate:"oneof=positive neutral negative"`
	Score float64        `json:"score" validate:"gte=0,lte=1"`
}

// NeutralSentiment 情感分析失败时使用的默认值
func NeutralSentiment() SentimentResult {
	return SentimentResult{Label: SentimentNeutral, Score: 0.5}
}

// MarketFact 单条市场数据
type MarketFact struct {
	Instrument string    `json:"instrument"`
	Attribute  string    `json:"attribute"`
	Value      string    `json:"value"`
	AsOf       time.Time `json:"as_of"`
	Source     string    `json:"source,omitempty"`
}

// ID 返回 (instrument, attribute) 组成的唯一标识，例如 "TCS:price"
func (f MarketFact) ID() string {
	return FactKey{Instrument: f.Instrument, Attribute: f.Attribute}.String()
}

// FactKey 市场数据集合的主键
type FactKey struct {
	Instrument string
	Attribute  string
}

func (k FactKey) String() string {
	return strings.ToUpper(k.Instrument) + ":" + k.Attribute
}

// FactSet 以 (instrument, attribute) 为键的市场数据集合，后写覆盖先写。
// 零值可直接使用，不是并发安全的。
type FactSet struct {
	facts map[FactKey]MarketFact
}

// NewFactSet 创建集合
func NewFactSet(facts ...MarketFact) *FactSet {
	s := &FactSet{facts: make(map[FactKey]MarketFact, len(facts))}
	for _, f := range facts {
		s.Put(f)
	}
	return s
}

// Put 写入一条数据
func (s *FactSet) Put(f MarketFact) {
	if s.facts == nil {
		s.facts = make(map[FactKey]MarketFact)
	}
	s.facts[FactKey{Instrument: strings.ToUpper(f.Instrument), Attribute: f.Attribute}] = f
}

// Merge 合并另一个集合，other 中的值优先
func (s *FactSet) Merge(other *FactSet) {
	if other == nil {
		return
	}
	for _, f := range other.facts {
		s.Put(f)
	}
}

// Len 集合大小
func (s *FactSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.facts)
}

// Facts 按 instrument, attribute 排序返回
func (s *FactSet) Facts() []MarketFact {
	if s == nil || len(s.facts) == 0 {
		return []MarketFact{}
	}
	out := make([]MarketFact, 0, len(s.facts))
	for _, f := range s.facts {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Instrument != out[j].Instrument {
			return out[i].Instrument < out[j].Instrument
		}
		return out[i].Attribute < out[j].Attribute
	})
	return out
}

// AnalysisContext 合并后的分析上下文，每次请求构建一次，构建后只读
type AnalysisContext struct {
	Query     Query
	Entities  []Entity
	Sentiment SentimentResult
	Facts     []MarketFact
}

// NewAnalysisContext 构建上下文，复制传入的切片
func NewAnalysisContext(q Query, entities []Entity, sentiment SentimentResult, facts *FactSet) AnalysisContext {
	ents := make([]Entity, len(entities))
	copy(ents, entities)
	return AnalysisContext{
		Query:     q,
		Entities:  ents,
		Sentiment: sentiment,
		Facts:     facts.Facts(),
	}
}

// Instruments 上下文中出现过的所有标的
func (c AnalysisContext) Instruments() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, f := range c.Facts {
		if _, ok := seen[f.Instrument]; ok {
			continue
		}
		seen[f.Instrument] = struct{}{}
		out = append(out, f.Instrument)
	}
	return out
}

// 可选子任务名称，即降级标记
const (
	TaskSentiment     = "sentiment"
	TaskEntities      = "entities"
	TaskMarketContext = "market_context"
)

// OptionalTasks 按固定顺序列出所有可选子任务
var OptionalTasks = []string{TaskSentiment, TaskEntities, TaskMarketContext}

// AnalysisResult 一次分析的最终结果，创建后不再修改
type AnalysisResult struct {
	RunID          string
	Recommendation string
	Confidence     float64
	CitedFacts     []MarketFact
	Degraded       []string
	CreatedAt      time.Time
}

// IsDegraded 判断某个子任务是否降级
func (r *AnalysisResult) IsDegraded(task string) bool {
	for _, d := range r.Degraded {
		if d == task {
			return true
		}
	}
	return false
}
