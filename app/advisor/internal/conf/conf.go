package conf

type Bootstrap struct {
	Server    *Server    `json:"server"`
	Data      *Data      `json:"data"`
	Auth      *Auth      `json:"auth"`
	Advisor   *Advisor   `json:"advisor"`
	Events    *Events    `json:"events"`
	Retention *Retention `json:"retention"`
}

type Auth struct {
	JwtKey string `json:"jwt_key"`
	// TokenTtl 令牌有效期，例如 24h
	TokenTtl string `json:"token_ttl"`
}

type Server struct {
	Http *HTTP `json:"http"`
}

type HTTP struct {
	Addr    string `json:"addr"`
	Timeout string `json:"timeout"`
}

type Data struct {
	Database *Database `json:"database"`
}

// Database Driver 取值 postgres / sqlite
type Database struct {
	Driver string `json:"driver"`
	Source string `json:"source"`
}

// Events 分析完成事件，Brokers 为空时不发布
type Events struct {
	Brokers []string `json:"brokers"`
	Topic   string   `json:"topic"`
}

// Retention 历史分析清理任务，Spec 为空时关闭
type Retention struct {
	Spec   string `json:"spec"`
	MaxAge string `json:"max_age"`
}

// Advisor 分析引擎配置，时长字段使用 time.ParseDuration 的格式
type Advisor struct {
	Llm         *LLM         `json:"llm"`
	Embedding   *Embedding   `json:"embedding"`
	Search      *Search      `json:"search"`
	Market      *Market      `json:"market"`
	Adapters    *Adapters    `json:"adapters"`
	Analysis    *Analysis    `json:"analysis"`
	Log         *Log         `json:"log"`
	Concurrency *Concurrency `json:"concurrency"`
}

type LLM struct {
	Provider    string  `json:"provider"`
	BaseUrl     string  `json:"base_url"`
	ApiKey      string  `json:"api_key"`
	Model       string  `json:"model"`
	MaxTokens   int32   `json:"max_tokens"`
	Temperature float32 `json:"temperature"`
}

type Embedding struct {
	Provider string `json:"provider"`
	ApiKey   string `json:"api_key"`
	Model    string `json:"model"`
}

type Search struct {
	Provider string   `json:"provider"`
	Tavily   *Tavily  `json:"tavily"`
	Searxng  *SearXNG `json:"searxng"`
}

type Tavily struct {
	ApiKey string `json:"api_key"`
}

type SearXNG struct {
	BaseUrl string `json:"base_url"`
	Timeout int32  `json:"timeout"`
}

type Market struct {
	Sources        []string          `json:"sources"`
	ExchangeSuffix string            `json:"exchange_suffix"`
	YahooBaseUrl   string            `json:"yahoo_base_url"`
	Proxy          string            `json:"proxy"`
	YahooRps       float64           `json:"yahoo_rps"`
	NewsMaxResults int32             `json:"news_max_results"`
	NewsDays       int32             `json:"news_days"`
	MaxInFlight    int32             `json:"max_in_flight"`
	CacheTtl       string            `json:"cache_ttl"`
	CacheCapacity  int32             `json:"cache_capacity"`
	Aliases        map[string]string `json:"aliases"`
}

type Adapter struct {
	Timeout string `json:"timeout"`
	Backoff string `json:"backoff"`
}

type Adapters struct {
	Sentiment     *Adapter `json:"sentiment"`
	Entities      *Adapter `json:"entities"`
	MarketContext *Adapter `json:"market_context"`
	Generation    *Adapter `json:"generation"`
	Document      *Adapter `json:"document"`
	Embedding     *Adapter `json:"embedding"`
}

type Analysis struct {
	MaxCitedFacts      int32 `json:"max_cited_facts"`
	CiteReferencedOnly bool  `json:"cite_referenced_only"`
}

type Log struct {
	Level string `json:"level"`
	File  string `json:"file"`
}

type Concurrency struct {
	Qps int32 `json:"qps"`
	Rpm int32 `json:"rpm"`
}
