package assembler

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/model"
)

func sample() *model.AnalysisResult {
	return &model.AnalysisResult{
		RunID:          "run-1",
		Recommendation: "Accumulate TCS.",
		Confidence:     0.6,
		CitedFacts: []model.MarketFact{{
			Instrument: "TCS", Attribute: "price", Value: "3500.00",
			AsOf: time.Date(2025, 1, 2, 10, 0, 0, 0, time.FixedZone("IST", 19800)), Source: "yahoo",
		}},
		CreatedAt: time.Date(2025, 1, 2, 5, 0, 0, 0, time.UTC),
	}
}

func TestAssembleShape(t *testing.T) {
	resp, err := Assemble(sample())
	require.NoError(t, err)

	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"run_id": "run-1",
		"recommendation": "Accumulate TCS.",
		"confidence": 0.6,
		"cited_facts": [{"instrument":"TCS","attribute":"price","value":"3500.00","as_of":"2025-01-02T04:30:00Z","source":"yahoo"}],
		"degraded": [],
		"created_at": "2025-01-02T05:00:00Z"
	}`, string(raw))
}

func TestAssembleEmptyCollectionsAreNotNull(t *testing.T) {
	r := sample()
	r.CitedFacts = nil
	r.Degraded = nil
	resp, err := Assemble(r)
	require.NoError(t, err)

	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"cited_facts":[]`)
	assert.Contains(t, string(raw), `"degraded":[]`)
}

func TestAssembleCopiesDegraded(t *testing.T) {
	r := sample()
	r.Degraded = []string{model.TaskSentiment}
	resp, err := Assemble(r)
	require.NoError(t, err)
	resp.Degraded[0] = "changed"
	assert.Equal(t, model.TaskSentiment, r.Degraded[0])
}

func TestAssembleInvariants(t *testing.T) {
	cases := map[string]func(r *model.AnalysisResult){
		"empty recommendation": func(r *model.AnalysisResult) { r.Recommendation = " " },
		"confidence above one": func(r *model.AnalysisResult) { r.Confidence = 1.01 },
		"negative confidence":  func(r *model.AnalysisResult) { r.Confidence = -0.1 },
		"nan confidence":       func(r *model.AnalysisResult) { r.Confidence = math.NaN() },
		"unknown flag":         func(r *model.AnalysisResult) { r.Degraded = []string{"weather"} },
		"duplicate flag":       func(r *model.AnalysisResult) { r.Degraded = []string{"sentiment", "sentiment"} },
		"anonymous fact":       func(r *model.AnalysisResult) { r.CitedFacts = []model.MarketFact{{Value: "1"}} },
	}
	for name, mutate := range cases {
		r := sample()
		mutate(r)
		_, err := Assemble(r)
		assert.ErrorIs(t, err, ErrInvariant, name)
	}

	_, err := Assemble(nil)
	assert.ErrorIs(t, err, ErrInvariant)
}
