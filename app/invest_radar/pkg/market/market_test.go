package market

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/model"
)

func TestNormalize(t *testing.T) {
	n := NewNormalizer(map[string]string{"jio financial": "jiofin"})
	tests := []struct{ in, want string }{
		{in: "tcs", want: "TCS"},
		{in: " NSE:RELIANCE ", want: "RELIANCE"},
		{in: "INFY.NS", want: "INFY"},
		{in: "bse:sbin.bo", want: "SBIN"},
		{in: "Reliance  Industries Ltd", want: "RELIANCE"},
		{in: "Tata Consultancy Services Limited", want: "TCS"},
		{in: "Jio Financial", want: "JIOFIN"},
		{in: "Nifty 50", want: "^NSEI"},
		{in: "   ", want: ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, n.Normalize(tt.in), tt.in)
	}
}

func TestIdentifiers(t *testing.T) {
	n := NewNormalizer(nil)
	ids := n.Identifiers([]model.Entity{
		{Text: "RELIANCE", Category: model.CategoryTicker},
		{Text: "₹50,000", Category: model.CategoryMoney},
		{Text: "Reliance Industries", Category: "Organization"},
		{Text: "banking", Category: model.CategorySector},
		{Text: "TCS", Category: model.CategoryTicker},
	})
	assert.Equal(t, []string{"RELIANCE", "TCS"}, ids)
	assert.Empty(t, n.Identifiers(nil))
}
