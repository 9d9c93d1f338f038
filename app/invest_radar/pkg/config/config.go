package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/capability"
)

// Config 项目配置结构体
type Config struct {
	LLM         LLMConfig         `yaml:"llm"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	Search      SearchConfig      `yaml:"search"`
	Market      MarketConfig      `yaml:"market"`
	Adapters    AdaptersConfig    `yaml:"adapters"`
	Analysis    AnalysisConfig    `yaml:"analysis"`
	Log         LogConfig         `yaml:"log"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
}

// LLMConfig LLM 相关配置，Provider 取值 openai / claude / gemini
type LLMConfig struct {
	Provider    string  `yaml:"provider"`
	BaseURL     string  `yaml:"base_url"`
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float32 `yaml:"temperature"`
}

// EmbeddingConfig 向量化配置，目前只支持 gemini，APIKey 为空时关闭
type EmbeddingConfig struct {
	Provider string `yaml:"provider"`
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
}

// SearchConfig 搜索相关配置
type SearchConfig struct {
	Provider string        `yaml:"provider"`
	Tavily   TavilyConfig  `yaml:"tavily"`
	SearXNG  SearXNGConfig `yaml:"searxng"`
}

// TavilyConfig Tavily 配置
type TavilyConfig struct {
	APIKey string `yaml:"api_key"`
}

// SearXNGConfig SearXNG 配置
type SearXNGConfig struct {
	BaseURL string `yaml:"base_url"`
	Timeout int    `yaml:"timeout"`
}

// MarketConfig 行情数据源配置
type MarketConfig struct {
	// Sources 按顺序查询，后面的数据源覆盖前面的同名字段，可选 yahoo / news
	Sources        []string          `yaml:"sources"`
	ExchangeSuffix string            `yaml:"exchange_suffix"`
	YahooBaseURL   string            `yaml:"yahoo_base_url"`
	Proxy          string            `yaml:"proxy"`
	YahooRPS       float64           `yaml:"yahoo_rps"`
	NewsMaxResults int               `yaml:"news_max_results"`
	NewsDays       int               `yaml:"news_days"`
	MaxInFlight    int               `yaml:"max_in_flight"`
	CacheTTL       time.Duration     `yaml:"cache_ttl"`
	CacheCapacity  int               `yaml:"cache_capacity"`
	Aliases        map[string]string `yaml:"aliases"`
}

// AdapterConfig 单个能力的超时与退避
type AdapterConfig struct {
	Timeout time.Duration `yaml:"timeout"`
	Backoff time.Duration `yaml:"backoff"`
}

// Policy 转换为 capability.Policy，最多重试一次
func (a AdapterConfig) Policy() capability.Policy {
	return capability.Policy{Timeout: a.Timeout, Backoff: a.Backoff, Retries: 1}
}

// AdaptersConfig 各能力的调用参数
type AdaptersConfig struct {
	Sentiment     AdapterConfig `yaml:"sentiment"`
	Entities      AdapterConfig `yaml:"entities"`
	MarketContext AdapterConfig `yaml:"market_context"`
	Generation    AdapterConfig `yaml:"generation"`
	Document      AdapterConfig `yaml:"document"`
	Embedding     AdapterConfig `yaml:"embedding"`
}

// AnalysisConfig 结果引用规则
type AnalysisConfig struct {
	// MaxCitedFacts 生成模型未声明引用时最多引用多少条，0 表示不限
	MaxCitedFacts int `yaml:"max_cited_facts"`
	// CiteReferencedOnly 生成模型未声明引用时，只引用推荐文本中出现过的标的
	CiteReferencedOnly bool `yaml:"cite_referenced_only"`
}

// LogConfig 日志相关配置
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// ConcurrencyConfig LLM 限流配置
type ConcurrencyConfig struct {
	QPS int `yaml:"qps"`
	RPM int `yaml:"rpm"`
}

// LoadConfig 从指定路径加载配置，文件不存在时只使用默认值和环境变量
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.ApplyEnv()
	cfg.ApplyDefaults()
	return cfg, nil
}

// ApplyEnv 环境变量覆盖密钥类配置
func (c *Config) ApplyEnv() {
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		c.LLM.Provider = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" && c.LLM.Provider == "claude" && c.LLM.APIKey == "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		if c.LLM.Provider == "gemini" && c.LLM.APIKey == "" {
			c.LLM.APIKey = v
		}
		if c.Embedding.APIKey == "" {
			c.Embedding.APIKey = v
		}
	}
	if v := os.Getenv("TAVILY_API_KEY"); v != "" {
		c.Search.Tavily.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" && c.Market.Proxy == "" {
		c.Market.Proxy = v
	}
}

// ApplyDefaults 填充默认值
func (c *Config) ApplyDefaults() {
	if c.LLM.Provider == "" {
		c.LLM.Provider = "openai"
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 2048
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "gemini"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-004"
	}
	if len(c.Market.Sources) == 0 {
		c.Market.Sources = []string{"yahoo"}
	}
	if c.Market.ExchangeSuffix == "" {
		c.Market.ExchangeSuffix = ".NS"
	}
	if c.Market.YahooRPS == 0 {
		c.Market.YahooRPS = 2
	}
	if c.Market.MaxInFlight <= 0 {
		c.Market.MaxInFlight = 4
	}
	if c.Market.CacheTTL == 0 {
		c.Market.CacheTTL = 5 * time.Minute
	}
	if c.Market.CacheCapacity == 0 {
		c.Market.CacheCapacity = 1024
	}

	defaultAdapter(&c.Adapters.Sentiment, 10*time.Second)
	defaultAdapter(&c.Adapters.Entities, 10*time.Second)
	defaultAdapter(&c.Adapters.MarketContext, 15*time.Second)
	defaultAdapter(&c.Adapters.Generation, 30*time.Second)
	defaultAdapter(&c.Adapters.Document, 20*time.Second)
	defaultAdapter(&c.Adapters.Embedding, 10*time.Second)

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Concurrency.RPM <= 0 {
		c.Concurrency.RPM = 60
	}
	if c.Concurrency.QPS <= 0 {
		c.Concurrency.QPS = 2
	}
}

func defaultAdapter(a *AdapterConfig, timeout time.Duration) {
	if a.Timeout <= 0 {
		a.Timeout = timeout
	}
	if a.Backoff <= 0 {
		a.Backoff = 500 * time.Millisecond
	}
}

// Validate 检查必填项
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "openai":
		if c.LLM.BaseURL == "" {
			return fmt.Errorf("llm.base_url is required for provider openai")
		}
	case "claude", "gemini":
	default:
		return fmt.Errorf("unknown llm.provider: %s", c.LLM.Provider)
	}
	if c.LLM.APIKey == "" {
		return fmt.Errorf("llm.api_key is required")
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("llm.model is required")
	}
	for _, s := range c.Market.Sources {
		switch strings.ToLower(s) {
		case "yahoo":
		case "news":
			if c.Search.Provider == "" && c.Search.Tavily.APIKey == "" {
				return fmt.Errorf("market source news requires search.provider")
			}
		default:
			return fmt.Errorf("unknown market source: %s", s)
		}
	}
	if c.Analysis.MaxCitedFacts < 0 {
		return fmt.Errorf("analysis.max_cited_facts cannot be negative")
	}
	return nil
}
