package market

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/model"
	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/search"
)

// NewsSource 用新闻搜索补充标的近期的新闻标题
type NewsSource struct {
	searcher   search.Searcher
	maxResults int
	days       int
}

// NewNewsSource maxResults 默认 3 条，days 默认 7 天
func NewNewsSource(s search.Searcher, maxResults, days int) *NewsSource {
	if maxResults <= 0 {
		maxResults = 3
	}
	if days <= 0 {
		days = 7
	}
	return &NewsSource{searcher: s, maxResults: maxResults, days: days}
}

var _ Source = (*NewsSource)(nil)

func (n *NewsSource) Name() string { return "news" }

// Lookup 每条新闻产生 news_headline_N 和 news_url_N 两个字段
func (n *NewsSource) Lookup(ctx context.Context, instrument string) ([]model.MarketFact, bool, error) {
	resp, err := n.searcher.Search(ctx, &search.Request{
		Query:      fmt.Sprintf("%s share price news India", instrument),
		Topic:      "news",
		MaxResults: n.maxResults,
		Days:       n.days,
	})
	if err != nil {
		return nil, false, err
	}
	if resp == nil || len(resp.Results) == 0 {
		return nil, false, nil
	}

	now := time.Now().UTC()
	var facts []model.MarketFact
	for i, r := range resp.Results {
		if i >= n.maxResults {
			break
		}
		asOf := parsePublished(r.PublishedDate, now)
		idx := strconv.Itoa(i + 1)
		facts = append(facts,
			model.MarketFact{Instrument: instrument, Attribute: "news_headline_" + idx, Value: r.Title, AsOf: asOf, Source: n.searcher.Name()},
			model.MarketFact{Instrument: instrument, Attribute: "news_url_" + idx, Value: r.URL, AsOf: asOf, Source: n.searcher.Name()},
		)
	}
	return facts, true, nil
}

var publishedLayouts = []string{time.RFC3339, time.RFC1123, time.RFC1123Z, "2006-01-02T15:04:05", "2006-01-02"}

func parsePublished(s string, fallback time.Time) time.Time {
	for _, layout := range publishedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return fallback
}
