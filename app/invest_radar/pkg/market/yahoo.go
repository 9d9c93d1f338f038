package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/capability"
	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/model"
)

const defaultYahooBaseURL = "https://query1.finance.yahoo.com"

// YahooSource 通过 Yahoo Finance chart 接口获取行情快照
type YahooSource struct {
	client  *http.Client
	baseURL string
	suffix  string
	limiter *rate.Limiter
}

// YahooOptions Yahoo 数据源参数
type YahooOptions struct {
	BaseURL string
	// Suffix 交易所后缀，NSE 为 .NS，BSE 为 .BO
	Suffix string
	Proxy  string
	// RPS 每秒请求数，<= 0 表示不限
	RPS float64
}

// NewYahooSource 创建 Yahoo 数据源
func NewYahooSource(opts YahooOptions) *YahooSource {
	transport := &http.Transport{}
	if opts.Proxy != "" {
		if u, err := url.Parse(opts.Proxy); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if opts.BaseURL == "" {
		opts.BaseURL = defaultYahooBaseURL
	}
	limit := rate.Inf
	if opts.RPS > 0 {
		limit = rate.Limit(opts.RPS)
	}
	return &YahooSource{
		client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		suffix:  opts.Suffix,
		limiter: rate.NewLimiter(limit, 1),
	}
}

var _ Source = (*YahooSource)(nil)

func (y *YahooSource) Name() string { return "yahoo" }

// yahooSymbol 指数代码（^ 开头）和已带后缀的代码不再追加交易所后缀
func (y *YahooSource) yahooSymbol(instrument string) string {
	if strings.HasPrefix(instrument, "^") || strings.Contains(instrument, ".") {
		return instrument
	}
	return instrument + y.suffix
}

// yahooChart chart 接口响应中用到的部分
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta yahooMeta `json:"meta"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type yahooMeta struct {
	Currency             string   `json:"currency"`
	Symbol               string   `json:"symbol"`
	RegularMarketPrice   *float64 `json:"regularMarketPrice"`
	ChartPreviousClose   *float64 `json:"chartPreviousClose"`
	PreviousClose        *float64 `json:"previousClose"`
	RegularMarketDayHigh *float64 `json:"regularMarketDayHigh"`
	RegularMarketDayLow  *float64 `json:"regularMarketDayLow"`
	FiftyTwoWeekHigh     *float64 `json:"fiftyTwoWeekHigh"`
	FiftyTwoWeekLow      *float64 `json:"fiftyTwoWeekLow"`
	RegularMarketTime    int64    `json:"regularMarketTime"`
}

// Lookup 标的不存在时返回 found=false
func (y *YahooSource) Lookup(ctx context.Context, instrument string) ([]model.MarketFact, bool, error) {
	if err := y.limiter.Wait(ctx); err != nil {
		return nil, false, err
	}

	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=5d", y.baseURL, url.PathEscape(y.yahooSymbol(instrument)))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := y.client.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, capability.FromStatus(resp.StatusCode,
			fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body)))
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, false, capability.Permanent(fmt.Errorf("yahoo decode: %w", err))
	}
	if chart.Chart.Error != nil {
		if strings.EqualFold(chart.Chart.Error.Code, "Not Found") {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || chart.Chart.Result[0].Meta.RegularMarketPrice == nil {
		return nil, false, nil
	}

	return metaFacts(instrument, chart.Chart.Result[0].Meta), true, nil
}

func metaFacts(instrument string, m yahooMeta) []model.MarketFact {
	asOf := time.Now().UTC()
	if m.RegularMarketTime > 0 {
		asOf = time.Unix(m.RegularMarketTime, 0).UTC()
	}
	var facts []model.MarketFact
	add := func(attr, value string) {
		facts = append(facts, model.MarketFact{
			Instrument: instrument,
			Attribute:  attr,
			Value:      value,
			AsOf:       asOf,
			Source:     "yahoo",
		})
	}
	addNum := func(attr string, v *float64) {
		if v != nil {
			add(attr, formatNum(*v))
		}
	}

	addNum("price", m.RegularMarketPrice)
	prev := m.PreviousClose
	if prev == nil {
		prev = m.ChartPreviousClose
	}
	addNum("previous_close", prev)
	if prev != nil && *prev != 0 {
		add("change_pct", formatNum((*m.RegularMarketPrice-*prev) / *prev * 100))
	}
	addNum("day_high", m.RegularMarketDayHigh)
	addNum("day_low", m.RegularMarketDayLow)
	addNum("fifty_two_week_high", m.FiftyTwoWeekHigh)
	addNum("fifty_two_week_low", m.FiftyTwoWeekLow)
	if m.Currency != "" {
		add("currency", m.Currency)
	}
	return facts
}

func formatNum(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
