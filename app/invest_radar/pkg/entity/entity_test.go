package entity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/capability"
	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/llm"
	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/model"
)

type fakeCompleter struct {
	reply string
	err   error
	calls int
	last  llm.Prompt
}

func (f *fakeCompleter) Complete(ctx context.Context, p llm.Prompt) (string, error) {
	f.calls++
	f.last = p
	return f.reply, f.err
}

func (f *fakeCompleter) Provider() string { return "fake" }

var fast = capability.Policy{Timeout: 50 * time.Millisecond, Backoff: time.Millisecond, Retries: 1}

func TestExtractKeepsOrderAndDuplicates(t *testing.T) {
	f := &fakeCompleter{reply: `{"entities":[
		{"text":"TCS","category":"Ticker","confidence":0.95},
		{"text":"  ","category":"ticker","confidence":0.9},
		{"text":"Infosys","category":"organization","confidence":1.4},
		{"text":"TCS","category":"ticker","confidence":-0.2}]}`}

	got, err := NewLLMExtractor(f, fast).Extract(context.Background(), "TCS vs Infosys, and TCS again")
	require.NoError(t, err)
	assert.Equal(t, []model.Entity{
		{Text: "TCS", Category: model.CategoryTicker, Confidence: 0.95},
		{Text: "Infosys", Category: model.CategoryOrganization, Confidence: 1},
		{Text: "TCS", Category: model.CategoryTicker, Confidence: 0},
	}, got)
	assert.Equal(t, "TCS vs Infosys, and TCS again", f.last.User)
}

func TestExtractEmptyList(t *testing.T) {
	f := &fakeCompleter{reply: `{"entities":[]}`}
	got, err := NewLLMExtractor(f, fast).Extract(context.Background(), "what is a mutual fund?")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestExtractRejectsEmptyText(t *testing.T) {
	f := &fakeCompleter{}
	_, err := NewLLMExtractor(f, fast).Extract(context.Background(), "")
	assert.Equal(t, capability.KindInvalidInput, capability.KindOf(err))
	assert.Zero(t, f.calls)
}

func TestExtractPermanentFailureNotRetried(t *testing.T) {
	f := &fakeCompleter{err: capability.Permanent(errors.New("401 unauthorized"))}
	_, err := NewLLMExtractor(f, fast).Extract(context.Background(), "HDFC Bank")

	var ce *capability.Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, Name, ce.Capability)
	assert.Equal(t, capability.KindPermanent, ce.Kind)
	assert.Equal(t, 1, f.calls)
}
