package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/generation"
	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/model"
)

func ids(facts []model.MarketFact) []string {
	out := make([]string, 0, len(facts))
	for _, f := range facts {
		out = append(out, f.ID())
	}
	return out
}

func TestCiteReportedUsage(t *testing.T) {
	e := New(Deps{}, Options{MaxCitedFacts: 1})
	facts := scenarioFacts().Facts()

	// 声明过但文本没有提到的标的不引用
	got := e.cite(generation.Output{
		Text:        "Prefer a staggered entry.",
		UsedFactIDs: []string{"tcs:price", " TCS : change_pct ", "INFY:price"},
	}, facts)
	assert.Empty(t, ids(got))

	got = e.cite(generation.Output{
		Text:        "Prefer a staggered entry into RELIANCE.",
		UsedFactIDs: []string{"TCS:price"},
	}, facts)
	assert.Equal(t, []string{"RELIANCE:price"}, ids(got))

	// limit only applies when usage is not reported
	got = e.cite(generation.Output{
		Text:        "Add TCS on dips, RELIANCE later.",
		UsedFactIDs: []string{"tcs:price", " TCS : change_pct "},
	}, facts)
	assert.Equal(t, []string{"TCS:change_pct", "TCS:price"}, ids(got))

	got = e.cite(generation.Output{Text: "RELIANCE looks stretched.", UsedFactIDs: []string{}}, facts)
	assert.Equal(t, []string{"RELIANCE:price"}, ids(got))
}

func TestCiteUnreported(t *testing.T) {
	facts := scenarioFacts().Facts()

	got := New(Deps{}, Options{}).cite(generation.Output{Text: "Stay diversified."}, facts)
	assert.Len(t, got, 3)

	got = New(Deps{}, Options{CiteReferencedOnly: true}).cite(generation.Output{Text: "Add TCS on dips."}, facts)
	assert.Equal(t, []string{"TCS:change_pct", "TCS:price"}, ids(got))

	got = New(Deps{}, Options{MaxCitedFacts: 2}).cite(generation.Output{Text: "x"}, facts)
	assert.Equal(t, []string{"RELIANCE:price", "TCS:change_pct"}, ids(got))

	assert.NotNil(t, New(Deps{}, Options{}).cite(generation.Output{Text: "x"}, nil))
}

func TestMentions(t *testing.T) {
	assert.True(t, mentions("Buy TCS now", "TCS"))
	assert.True(t, mentions("buy tcs.", "TCS"))
	assert.False(t, mentions("TCSL is different", "TCS"))
	assert.False(t, mentions("", "TCS"))
	assert.True(t, mentions("Nifty via NSEI ETF", "^NSEI"))
	assert.True(t, mentions("INFY, then INFY again", "INFY"))
	assert.True(t, mentions("XTCS and TCS", "TCS"))
}
