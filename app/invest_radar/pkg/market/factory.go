package market

import (
	"fmt"
	"strings"

	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/config"
	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/search/factory"
)

// NewResolverFromConfig 按 market.sources 的顺序组装数据源，每个数据源都带缓存
func NewResolverFromConfig(cfg *config.Config) (*Resolver, error) {
	mc := cfg.Market
	sources := make([]Source, 0, len(mc.Sources))
	for _, name := range mc.Sources {
		var src Source
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "yahoo":
			src = NewYahooSource(YahooOptions{
				BaseURL: mc.YahooBaseURL,
				Suffix:  mc.ExchangeSuffix,
				Proxy:   mc.Proxy,
				RPS:     mc.YahooRPS,
			})
		case "news":
			searcher, err := factory.NewSearcher(cfg.Search)
			if err != nil {
				return nil, fmt.Errorf("market source news: %w", err)
			}
			src = NewNewsSource(searcher, mc.NewsMaxResults, mc.NewsDays)
		default:
			return nil, fmt.Errorf("unknown market source: %s", name)
		}
		sources = append(sources, NewCachedSource(src, mc.CacheCapacity, mc.CacheTTL))
	}
	return NewResolver(sources, NewNormalizer(mc.Aliases), mc.MaxInFlight, cfg.Adapters.MarketContext.Policy()), nil
}
