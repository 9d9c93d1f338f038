package document

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/capability"
)

var fast = capability.Policy{Timeout: 2 * time.Second, Backoff: time.Millisecond, Retries: 1}

func samplePDF(t *testing.T, lines ...string) []byte {
	t.Helper()
	p := fpdf.New("P", "mm", "A4", "")
	p.SetTitle("Q3 Results", false)
	p.AddPage()
	p.SetFont("Helvetica", "", 12)
	for _, l := range lines {
		p.Cell(0, 10, l)
		p.Ln(10)
	}
	var buf bytes.Buffer
	require.NoError(t, p.Output(&buf))
	return buf.Bytes()
}

func TestExtractPDF(t *testing.T) {
	data := samplePDF(t, "Quarterly results", "Revenue grew 12 percent")
	out, err := NewLocalExtractor(fast).ExtractText(context.Background(), Document{Name: "q3.pdf", Data: data})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Pages)
	assert.Contains(t, out.Text, "Quarterly results")
	assert.Equal(t, TypePDF, out.Fields["content_type"])
}

func TestExtractHTML(t *testing.T) {
	html := `<html><head><title>Infosys Q3 update</title></head><body>
		<nav>Home | Markets</nav>
		<article><h1>Infosys Q3 update</h1>
		<p>Infosys reported a steady quarter with revenue growth across all major verticals and a raised full year guidance.</p>
		<p>The board also announced a special dividend and the company expects deal wins to remain strong through the next two quarters.</p>
		<p>Analysts said margins held up despite wage hikes and currency headwinds during the period under review.</p>
		</article></body></html>`
	out, err := NewLocalExtractor(fast).ExtractText(context.Background(), Document{
		Name: "note.html", ContentType: "text/html; charset=utf-8", Data: []byte(html),
	})
	require.NoError(t, err)
	assert.Contains(t, out.Text, "special dividend")
	assert.Equal(t, TypeHTML, out.Fields["content_type"])
}

func TestExtractPlainText(t *testing.T) {
	out, err := NewLocalExtractor(fast).ExtractText(context.Background(), Document{
		Name: "notes.txt", Data: []byte("  SIP of 10000 INR into NIFTYBEES  "),
	})
	require.NoError(t, err)
	assert.Equal(t, "SIP of 10000 INR into NIFTYBEES", out.Text)
	assert.Equal(t, TypeText, out.Fields["content_type"])
}

func TestExtractRejectsInput(t *testing.T) {
	e := NewLocalExtractor(fast)

	_, err := e.ExtractText(context.Background(), Document{Name: "empty.pdf"})
	assert.Equal(t, capability.KindInvalidInput, capability.KindOf(err))

	_, err = e.ExtractText(context.Background(), Document{Name: "a.zip", ContentType: "application/zip", Data: []byte("PK")})
	assert.Equal(t, capability.KindInvalidInput, capability.KindOf(err))

	_, err = e.ExtractText(context.Background(), Document{Name: "big.txt", Data: make([]byte, MaxSize+1)})
	assert.Equal(t, capability.KindInvalidInput, capability.KindOf(err))
}

func TestExtractCorruptPDFIsPermanent(t *testing.T) {
	_, err := NewLocalExtractor(fast).ExtractText(context.Background(), Document{
		Name: "broken.pdf", ContentType: TypePDF, Data: []byte("%PDF-1.4 not really"),
	})
	var ce *capability.Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, capability.KindPermanent, ce.Kind)
	assert.Equal(t, 1, ce.Attempts)
}

func TestExtractBlankTextIsPermanent(t *testing.T) {
	_, err := NewLocalExtractor(fast).ExtractText(context.Background(), Document{
		Name: "blank.txt", Data: []byte("   \n\t "),
	})
	assert.Equal(t, capability.KindPermanent, capability.KindOf(err))
}

func TestDetectType(t *testing.T) {
	tests := []struct {
		doc  Document
		want string
	}{
		{doc: Document{Name: "x.PDF"}, want: TypePDF},
		{doc: Document{Name: "x", Data: []byte("%PDF-1.7\n")}, want: TypePDF},
		{doc: Document{Name: "page.htm"}, want: TypeHTML},
		{doc: Document{ContentType: "application/json"}, want: TypeText},
		{doc: Document{Name: "blob", ContentType: "application/octet-stream", Data: []byte("hello")}, want: TypeText},
	}
	for _, tt := range tests {
		got, err := DetectType(tt.doc)
		require.NoError(t, err, tt.doc.Name)
		assert.Equal(t, tt.want, got, tt.doc.Name)
	}
}

func TestTruncateKeepsRunes(t *testing.T) {
	s := strings.Repeat("₹", maxTextLen)
	got := truncate(s)
	assert.LessOrEqual(t, len(got), maxTextLen)
	assert.True(t, strings.HasSuffix(got, "₹"))
}
