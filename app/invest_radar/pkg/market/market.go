// Package market 把抽取出的实体解析成标的代码，并从行情数据源拉取相关的市场数据。
package market

import (
	"context"
	"strings"

	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/model"
)

// Source 行情数据读接口。found=false 表示该标的没有数据，不是错误。
type Source interface {
	Name() string
	Lookup(ctx context.Context, instrument string) (facts []model.MarketFact, found bool, err error)
}

// DefaultAliases 常见公司名到 NSE 代码的映射，配置中的 aliases 会覆盖这里
var DefaultAliases = map[string]string{
	"RELIANCE INDUSTRIES":       "RELIANCE",
	"TATA CONSULTANCY SERVICES": "TCS",
	"INFOSYS":                   "INFY",
	"HDFC BANK":                 "HDFCBANK",
	"ICICI BANK":                "ICICIBANK",
	"STATE BANK OF INDIA":       "SBIN",
	"BHARTI AIRTEL":             "BHARTIARTL",
	"HINDUSTAN UNILEVER":        "HINDUNILVR",
	"LARSEN & TOUBRO":           "LT",
	"TATA MOTORS":               "TATAMOTORS",
	"NIFTY":                     "^NSEI",
	"NIFTY 50":                  "^NSEI",
	"SENSEX":                    "^BSESN",
}

// Normalizer 统一标的代码格式
type Normalizer struct {
	aliases map[string]string
}

// NewNormalizer extra 中的别名优先于 DefaultAliases
func NewNormalizer(extra map[string]string) *Normalizer {
	aliases := make(map[string]string, len(DefaultAliases)+len(extra))
	for k, v := range DefaultAliases {
		aliases[k] = v
	}
	for k, v := range extra {
		aliases[collapse(strings.ToUpper(k))] = strings.ToUpper(strings.TrimSpace(v))
	}
	return &Normalizer{aliases: aliases}
}

var (
	exchangePrefixes = []string{"NSE:", "BSE:"}
	exchangeSuffixes = []string{".NS", ".BO"}
	companySuffixes  = []string{" LIMITED", " LTD.", " LTD"}
)

// Normalize 去掉交易所前后缀、公司后缀并解析别名，结果为空表示无法识别
func (n *Normalizer) Normalize(raw string) string {
	id := collapse(strings.ToUpper(raw))
	for _, p := range exchangePrefixes {
		id = strings.TrimPrefix(id, p)
	}
	for _, s := range exchangeSuffixes {
		id = strings.TrimSuffix(id, s)
	}
	for _, s := range companySuffixes {
		id = strings.TrimSuffix(id, s)
	}
	id = strings.TrimSpace(id)
	if alias, ok := n.aliases[id]; ok {
		return alias
	}
	return id
}

// Identifiers 过滤出金融类实体，归一化并按出现顺序去重
func (n *Normalizer) Identifiers(entities []model.Entity) []string {
	seen := make(map[string]struct{}, len(entities))
	var ids []string
	for _, e := range entities {
		if !IsFinancial(e.Category) {
			continue
		}
		id := n.Normalize(e.Text)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// IsFinancial 只有 ticker 和 organization 会去查行情
func IsFinancial(category string) bool {
	switch strings.ToLower(strings.TrimSpace(category)) {
	case model.CategoryTicker, model.CategoryOrganization:
		return true
	}
	return false
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
