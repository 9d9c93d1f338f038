package server

import (
	"context"
	"fmt"
	"time"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/invest_radar/app/advisor/internal/conf"
	"github.com/iWorld-y/invest_radar/app/advisor/internal/usecase"
	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/config"
	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/document"
	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/embedding"
	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/engine"
	irLogger "github.com/iWorld-y/invest_radar/app/invest_radar/pkg/logger"
)

// NewAdvisorConfig 将 internal/conf.Advisor 转换为 pkg/config.Config，
// 并按命令行版本的规则叠加环境变量和默认值
func NewAdvisorConfig(c *conf.Advisor) (*config.Config, error) {
	cfg := &config.Config{}
	if c != nil {
		if err := convert(c, cfg); err != nil {
			return nil, err
		}
	}
	cfg.ApplyEnv()
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid advisor config: %w", err)
	}
	return cfg, nil
}

func convert(c *conf.Advisor, cfg *config.Config) error {
	if c.Llm != nil {
		cfg.LLM = config.LLMConfig{
			Provider:    c.Llm.Provider,
			BaseURL:     c.Llm.BaseUrl,
			APIKey:      c.Llm.ApiKey,
			Model:       c.Llm.Model,
			MaxTokens:   int(c.Llm.MaxTokens),
			Temperature: c.Llm.Temperature,
		}
	}
	if c.Embedding != nil {
		cfg.Embedding = config.EmbeddingConfig{
			Provider: c.Embedding.Provider,
			APIKey:   c.Embedding.ApiKey,
			Model:    c.Embedding.Model,
		}
	}
	if c.Search != nil {
		cfg.Search.Provider = c.Search.Provider
		if c.Search.Tavily != nil {
			cfg.Search.Tavily.APIKey = c.Search.Tavily.ApiKey
		}
		if c.Search.Searxng != nil {
			cfg.Search.SearXNG = config.SearXNGConfig{
				BaseURL: c.Search.Searxng.BaseUrl,
				Timeout: int(c.Search.Searxng.Timeout),
			}
		}
	}
	if m := c.Market; m != nil {
		ttl, err := parseDuration("market.cache_ttl", m.CacheTtl)
		if err != nil {
			return err
		}
		cfg.Market = config.MarketConfig{
			Sources:        m.Sources,
			ExchangeSuffix: m.ExchangeSuffix,
			YahooBaseURL:   m.YahooBaseUrl,
			Proxy:          m.Proxy,
			YahooRPS:       m.YahooRps,
			NewsMaxResults: int(m.NewsMaxResults),
			NewsDays:       int(m.NewsDays),
			MaxInFlight:    int(m.MaxInFlight),
			CacheTTL:       ttl,
			CacheCapacity:  int(m.CacheCapacity),
			Aliases:        m.Aliases,
		}
	}
	if a := c.Adapters; a != nil {
		for _, item := range []struct {
			name string
			src  *conf.Adapter
			dst  *config.AdapterConfig
		}{
			{"sentiment", a.Sentiment, &cfg.Adapters.Sentiment},
			{"entities", a.Entities, &cfg.Adapters.Entities},
			{"market_context", a.MarketContext, &cfg.Adapters.MarketContext},
			{"generation", a.Generation, &cfg.Adapters.Generation},
			{"document", a.Document, &cfg.Adapters.Document},
			{"embedding", a.Embedding, &cfg.Adapters.Embedding},
		} {
			if item.src == nil {
				continue
			}
			var err error
			if item.dst.Timeout, err = parseDuration("adapters."+item.name+".timeout", item.src.Timeout); err != nil {
				return err
			}
			if item.dst.Backoff, err = parseDuration("adapters."+item.name+".backoff", item.src.Backoff); err != nil {
				return err
			}
		}
	}
	if c.Analysis != nil {
		cfg.Analysis = config.AnalysisConfig{
			MaxCitedFacts:      int(c.Analysis.MaxCitedFacts),
			CiteReferencedOnly: c.Analysis.CiteReferencedOnly,
		}
	}
	if c.Log != nil {
		cfg.Log = config.LogConfig{Level: c.Log.Level, File: c.Log.File}
	}
	if c.Concurrency != nil {
		cfg.Concurrency = config.ConcurrencyConfig{
			QPS: int(c.Concurrency.Qps),
			RPM: int(c.Concurrency.Rpm),
		}
	}
	return nil
}

func parseDuration(field, s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	return d, nil
}

// NewAnalyzer 初始化分析引擎
func NewAnalyzer(cfg *config.Config, logger log.Logger) (usecase.Analyzer, error) {
	// 初始化日志
	if err := irLogger.InitLogger(cfg.Log.Level, cfg.Log.File); err != nil {
		log.NewHelper(logger).Errorf("Failed to init invest_radar logger: %v", err)
		_ = irLogger.InitLogger("info", "") // 降级处理
	}

	eng, err := engine.NewEngine(context.Background(), cfg)
	if err != nil {
		log.NewHelper(logger).Errorf("Failed to init engine: %v", err)
		return nil, err
	}
	return eng, nil
}

// NewExtractor 文档抽取能力
func NewExtractor(cfg *config.Config) document.Extractor {
	return document.NewLocalExtractor(cfg.Adapters.Document.Policy())
}

// NewEmbedder 未配置 embedding.api_key 时返回 nil，上传流程跳过向量化
func NewEmbedder(cfg *config.Config, logger log.Logger) (embedding.Embedder, error) {
	if cfg.Embedding.APIKey == "" {
		log.NewHelper(logger).Info("embedding disabled: no api key")
		return nil, nil
	}
	if cfg.Embedding.Provider != "gemini" {
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Embedding.Provider)
	}
	return embedding.NewGemini(context.Background(), cfg.Embedding.APIKey, cfg.Embedding.Model, cfg.Adapters.Embedding.Policy())
}
