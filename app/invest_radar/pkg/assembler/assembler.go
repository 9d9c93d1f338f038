// Package assembler 把分析结果转换为对外的响应结构。纯转换，不做 I/O。
package assembler

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/model"
)

// ErrInvariant 内部状态不合法，属于程序错误而不是用户错误
var ErrInvariant = errors.New("analysis result invariant violated")

// Fact 对外的市场数据
type Fact struct {
	Instrument string `json:"instrument"`
	Attribute  string `json:"attribute"`
	Value      string `json:"value"`
	AsOf       string `json:"as_of"`
	Source     string `json:"source,omitempty"`
}

// Response 对外的分析结果
type Response struct {
	RunID          string   `json:"run_id,omitempty"`
	Recommendation string   `json:"recommendation"`
	Confidence     float64  `json:"confidence"`
	CitedFacts     []Fact   `json:"cited_facts"`
	Degraded       []string `json:"degraded"`
	CreatedAt      string   `json:"created_at,omitempty"`
}

var knownTasks = map[string]bool{
	model.TaskSentiment:     true,
	model.TaskEntities:      true,
	model.TaskMarketContext: true,
}

// Assemble 校验并转换结果，cited_facts 和 degraded 永远不为 null
func Assemble(r *model.AnalysisResult) (Response, error) {
	if err := check(r); err != nil {
		return Response{}, err
	}

	facts := make([]Fact, 0, len(r.CitedFacts))
	for _, f := range r.CitedFacts {
		facts = append(facts, Fact{
			Instrument: f.Instrument,
			Attribute:  f.Attribute,
			Value:      f.Value,
			AsOf:       f.AsOf.UTC().Format(time.RFC3339),
			Source:     f.Source,
		})
	}
	degraded := make([]string, len(r.Degraded))
	copy(degraded, r.Degraded)

	resp := Response{
		RunID:          r.RunID,
		Recommendation: r.Recommendation,
		Confidence:     r.Confidence,
		CitedFacts:     facts,
		Degraded:       degraded,
	}
	if !r.CreatedAt.IsZero() {
		resp.CreatedAt = r.CreatedAt.UTC().Format(time.RFC3339)
	}
	return resp, nil
}

func check(r *model.AnalysisResult) error {
	if r == nil {
		return fmt.Errorf("%w: nil result", ErrInvariant)
	}
	if strings.TrimSpace(r.Recommendation) == "" {
		return fmt.Errorf("%w: empty recommendation", ErrInvariant)
	}
	if math.IsNaN(r.Confidence) || r.Confidence < 0 || r.Confidence > 1 {
		return fmt.Errorf("%w: confidence %v out of [0,1]", ErrInvariant, r.Confidence)
	}
	seen := make(map[string]bool, len(r.Degraded))
	for _, d := range r.Degraded {
		if !knownTasks[d] {
			return fmt.Errorf("%w: unknown degraded flag %q", ErrInvariant, d)
		}
		if seen[d] {
			return fmt.Errorf("%w: duplicate degraded flag %q", ErrInvariant, d)
		}
		seen[d] = true
	}
	for _, f := range r.CitedFacts {
		if f.Instrument == "" || f.Attribute == "" {
			return fmt.Errorf("%w: cited fact without instrument or attribute", ErrInvariant)
		}
	}
	return nil
}
