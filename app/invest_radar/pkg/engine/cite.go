package engine

import (
	"strings"
	"unicode"

	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/generation"
	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/model"
)

// cite 选出结果中引用的市场数据，返回顺序与 facts 一致。
//
// 生成模型声明了 UsedFactIDs 时，只引用既被声明、其标的又出现在推荐文本中的数据；
// 两者没有交集时退回到文本提到的标的的数据。
// 未声明时引用全部数据，可按配置只保留文本提到的标的，并截断到 MaxCitedFacts 条。
func (e *Engine) cite(gen generation.Output, facts []model.MarketFact) []model.MarketFact {
	out := make([]model.MarketFact, 0, len(facts))

	if gen.UsedFactIDs != nil {
		used := make(map[string]struct{}, len(gen.UsedFactIDs))
		for _, id := range gen.UsedFactIDs {
			used[normalizeFactID(id)] = struct{}{}
		}
		mentioned := make([]model.MarketFact, 0, len(facts))
		for _, f := range facts {
			if !mentions(gen.Text, f.Instrument) {
				continue
			}
			mentioned = append(mentioned, f)
			if _, ok := used[f.ID()]; ok {
				out = append(out, f)
			}
		}
		if len(out) == 0 {
			return mentioned
		}
		return out
	}

	for _, f := range facts {
		if e.opts.CiteReferencedOnly && !mentions(gen.Text, f.Instrument) {
			continue
		}
		out = append(out, f)
	}
	if e.opts.MaxCitedFacts > 0 && len(out) > e.opts.MaxCitedFacts {
		out = out[:e.opts.MaxCitedFacts]
	}
	return out
}

// normalizeFactID 模型返回的 id 大小写不一，标的部分统一大写
func normalizeFactID(id string) string {
	id = strings.TrimSpace(id)
	inst, attr, ok := strings.Cut(id, ":")
	if !ok {
		return strings.ToUpper(id)
	}
	return model.FactKey{Instrument: strings.TrimSpace(inst), Attribute: strings.TrimSpace(attr)}.String()
}

// mentions 文本中是否以独立单词的形式出现了标的代码，忽略大小写
func mentions(text, instrument string) bool {
	inst := strings.ToUpper(strings.TrimPrefix(instrument, "^"))
	if inst == "" {
		return false
	}
	upper := strings.ToUpper(text)
	for from := 0; ; {
		i := strings.Index(upper[from:], inst)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(inst)
		if boundary(upper, start-1) && boundary(upper, end) {
			return true
		}
		from = start + 1
	}
}

func boundary(s string, i int) bool {
	if i < 0 || i >= len(s) {
		return true
	}
	r := rune(s[i])
	return !(unicode.IsLetter(r) || unicode.IsDigit(r))
}
