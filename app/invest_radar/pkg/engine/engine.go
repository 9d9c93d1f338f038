package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/bytedance/gg/gson"
	"github.com/google/uuid"

	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/config"
	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/entity"
	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/generation"
	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/llm/factory"
	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/logger"
	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/market"
	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/model"
	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/sentiment"
)

var (
	// ErrInvalidQuery 问题或用户画像不合法，未发起任何调用
	ErrInvalidQuery = errors.New("invalid query")
	// ErrGenerationUnavailable 生成步骤重试后仍失败，本次运行没有结果
	ErrGenerationUnavailable = errors.New("generation unavailable")
)

// State 运行状态
type State string

const (
	StateStarted    State = "started"
	StateFanOut     State = "fan_out"
	StateMerging    State = "merging"
	StateGenerating State = "generating"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

// Observer 接收状态迁移通知，在运行所在的 goroutine 中同步调用
type Observer func(runID string, state State)

// MarketResolver 行情上下文解析
type MarketResolver interface {
	Resolve(ctx context.Context, entities []model.Entity) (*model.FactSet, error)
}

// Deps 引擎依赖的能力。Resolver 为 nil 时不查询行情。
type Deps struct {
	Sentiment sentiment.Classifier
	Entities  entity.Extractor
	Resolver  MarketResolver
	Generator generation.Generator
}

// Options 引用规则等运行参数
type Options struct {
	// MaxCitedFacts 生成模型未声明引用时最多引用多少条，0 表示不限
	MaxCitedFacts int
	// CiteReferencedOnly 生成模型未声明引用时，只引用推荐文本提到的标的
	CiteReferencedOnly bool
	Observer           Observer
}

// Engine 核心处理引擎
type Engine struct {
	deps Deps
	opts Options
	now  func() time.Time
}

// New 使用给定的能力创建引擎
func New(deps Deps, opts Options) *Engine {
	return &Engine{deps: deps, opts: opts, now: time.Now}
}

// NewEngine 根据配置创建引擎实例
func NewEngine(ctx context.Context, cfg *config.Config) (*Engine, error) {
	completer, err := factory.NewCompleter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("LLM 初始化失败: %w", err)
	}

	resolver, err := market.NewResolverFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("行情数据源初始化失败: %w", err)
	}
	logger.Log.Infof("行情数据源: %v，最大并发 %d", resolver.Sources(), cfg.Market.MaxInFlight)

	return New(Deps{
		Sentiment: sentiment.NewLLMClassifier(completer, cfg.Adapters.Sentiment.Policy()),
		Entities:  entity.NewLLMExtractor(completer, cfg.Adapters.Entities.Policy()),
		Resolver:  resolver,
		Generator: generation.NewLLMGenerator(completer, cfg.Adapters.Generation.Policy()),
	}, Options{
		MaxCitedFacts:      cfg.Analysis.MaxCitedFacts,
		CiteReferencedOnly: cfg.Analysis.CiteReferencedOnly,
	}), nil
}

// WithObserver 返回一个使用指定 Observer 的引擎副本，能力实例共享
func (e *Engine) WithObserver(o Observer) *Engine {
	cp := *e
	cp.opts.Observer = o
	return &cp
}

// fanOut 三个可选子任务的汇合结果
type fanOut struct {
	sentiment    model.SentimentResult
	sentimentErr error
	entities     []model.Entity
	entitiesErr  error
	facts        *model.FactSet
	marketErr    error
}

// Run 执行一次分析。调用方取消时返回 ctx 的错误且没有结果；
// 生成失败时返回 ErrGenerationUnavailable。
func (e *Engine) Run(ctx context.Context, q model.Query) (*model.AnalysisResult, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}

	runID := uuid.NewString()
	log := logger.WithRun(runID)
	start := e.now()
	e.transition(runID, StateStarted)
	log.Infof("开始分析: age=%d risk=%s horizon=%s", q.Profile.Age, q.Profile.RiskTolerance, q.Profile.InvestmentHorizon)

	// 1. 并发执行可选子任务
	e.transition(runID, StateFanOut)
	out := e.fanOut(ctx, q.Text)
	if err := ctx.Err(); err != nil {
		log.Warnf("分析已取消: %v", err)
		return nil, err
	}

	// 2. 汇合，失败的子任务使用默认值
	e.transition(runID, StateMerging)
	var degraded []string
	if out.sentimentErr != nil {
		log.Warnf("情感分析降级: %v", out.sentimentErr)
		out.sentiment = model.NeutralSentiment()
		degraded = append(degraded, model.TaskSentiment)
	}
	if out.entitiesErr != nil {
		log.Warnf("实体抽取降级: %v", out.entitiesErr)
		out.entities = nil
		degraded = append(degraded, model.TaskEntities)
	}
	if out.marketErr != nil {
		log.Warnf("行情上下文降级: %v", out.marketErr)
		out.facts = nil
		degraded = append(degraded, model.TaskMarketContext)
	}
	actx := model.NewAnalysisContext(q, out.entities, out.sentiment, out.facts)
	log.Debugf("分析上下文: %s", gson.ToString(actx))

	// 3. 生成建议，必选步骤
	e.transition(runID, StateGenerating)
	gen, err := e.deps.Generator.Generate(ctx, q, actx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			log.Warnf("分析已取消: %v", ctxErr)
			return nil, ctxErr
		}
		e.transition(runID, StateFailed)
		log.Errorf("生成建议失败: %v", err)
		return nil, fmt.Errorf("%w: %w", ErrGenerationUnavailable, err)
	}

	// 4. 组装结果
	result := &model.AnalysisResult{
		RunID:          runID,
		Recommendation: gen.Text,
		Confidence:     clamp(gen.Confidence),
		CitedFacts:     e.cite(gen, actx.Facts),
		Degraded:       canonical(degraded),
		CreatedAt:      e.now().UTC(),
	}
	e.transition(runID, StateCompleted)
	log.Infof("分析完成: 耗时 %v，引用 %d 条数据，降级 %v", e.now().Sub(start).Round(time.Millisecond), len(result.CitedFacts), result.Degraded)
	return result, nil
}

// fanOut 情感分析与“实体抽取→行情解析”链并发执行，等待全部结束
func (e *Engine) fanOut(ctx context.Context, text string) fanOut {
	var (
		out fanOut
		wg  sync.WaitGroup
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		out.sentiment, out.sentimentErr = e.deps.Sentiment.Classify(ctx, text)
	}()
	go func() {
		defer wg.Done()
		out.entities, out.entitiesErr = e.deps.Entities.Extract(ctx, text)
		if e.deps.Resolver == nil {
			return
		}
		// 实体抽取失败时以空列表解析，得到空集合；只有解析器自身失败才标记 market_context
		ents := out.entities
		if out.entitiesErr != nil {
			ents = nil
		}
		out.facts, out.marketErr = e.deps.Resolver.Resolve(ctx, ents)
	}()
	wg.Wait()

	return out
}

func (e *Engine) transition(runID string, s State) {
	logger.WithRun(runID).Debugf("状态迁移: %s", s)
	if e.opts.Observer != nil {
		e.opts.Observer(runID, s)
	}
}

// canonical 按 model.OptionalTasks 的固定顺序输出降级标记，结果非 nil
func canonical(flags []string) []string {
	set := make(map[string]bool, len(flags))
	for _, f := range flags {
		set[f] = true
	}
	out := make([]string, 0, len(flags))
	for _, t := range model.OptionalTasks {
		if set[t] {
			out = append(out, t)
		}
	}
	return out
}

func clamp(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
