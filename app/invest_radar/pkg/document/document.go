// Package document 文档上传流程使用的文本抽取能力，不参与分析编排。
package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	nurl "net/url"
	"path/filepath"
	"strings"

	"github.com/go-shiori/go-readability"
	"github.com/ledongthuc/pdf"

	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/capability"
)

// Name 能力名称
const Name = "document"

const (
	// MaxSize 单个文档大小上限
	MaxSize = 20 << 20
	// maxTextLen 抽取文本截断长度
	maxTextLen = 50000
)

// 支持的内容类型
const (
	TypePDF  = "application/pdf"
	TypeHTML = "text/html"
	TypeText = "text/plain"
)

// Document 待抽取的文档
type Document struct {
	Name        string
	ContentType string
	Data        []byte
}

// Extracted 抽取结果
type Extracted struct {
	Text   string            `json:"text"`
	Fields map[string]string `json:"fields"`
	Pages  int               `json:"pages"`
}

// Extractor 文档抽取接口
type Extractor interface {
	ExtractText(ctx context.Context, doc Document) (Extracted, error)
}

// LocalExtractor 在进程内解析 PDF / HTML / 纯文本
type LocalExtractor struct {
	policy capability.Policy
}

// NewLocalExtractor 创建抽取器
func NewLocalExtractor(p capability.Policy) *LocalExtractor {
	return &LocalExtractor{policy: p}
}

var _ Extractor = (*LocalExtractor)(nil)

// ExtractText 抽取文档文本。解析是本地 CPU 操作，失败不会因重试而改变，
// 因此只有超时会被重试。
func (e *LocalExtractor) ExtractText(ctx context.Context, doc Document) (Extracted, error) {
	if len(doc.Data) == 0 {
		return Extracted{}, capability.Reject(Name, errors.New("document is empty"))
	}
	if len(doc.Data) > MaxSize {
		return Extracted{}, capability.Reject(Name, fmt.Errorf("document larger than %d bytes", MaxSize))
	}
	kind, err := DetectType(doc)
	if err != nil {
		return Extracted{}, capability.Reject(Name, err)
	}

	return capability.Invoke(ctx, Name, e.policy, func(ctx context.Context) (Extracted, error) {
		type result struct {
			out Extracted
			err error
		}
		done := make(chan result, 1)
		go func() {
			out, err := extract(kind, doc.Data)
			done <- result{out: out, err: err}
		}()
		select {
		case <-ctx.Done():
			return Extracted{}, ctx.Err()
		case r := <-done:
			return r.out, r.err
		}
	})
}

// DetectType 根据声明的类型、扩展名和内容嗅探确定文档类型
func DetectType(doc Document) (string, error) {
	ct := doc.ContentType
	if ct == "" || ct == "application/octet-stream" {
		if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(doc.Name))); byExt != "" {
			ct = byExt
		} else {
			ct = http.DetectContentType(doc.Data)
		}
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return "", fmt.Errorf("invalid content type %q: %w", ct, err)
	}
	switch {
	case mediaType == TypePDF:
		return TypePDF, nil
	case mediaType == TypeHTML, mediaType == "application/xhtml+xml":
		return TypeHTML, nil
	case strings.HasPrefix(mediaType, "text/"), mediaType == "application/json":
		return TypeText, nil
	default:
		return "", fmt.Errorf("unsupported content type %q", mediaType)
	}
}

func extract(kind string, data []byte) (Extracted, error) {
	var (
		out Extracted
		err error
	)
	switch kind {
	case TypePDF:
		out, err = extractPDF(data)
	case TypeHTML:
		out, err = extractHTML(data)
	default:
		out = Extracted{Text: string(data), Fields: map[string]string{}, Pages: 1}
	}
	if err != nil {
		return Extracted{}, capability.Permanent(err)
	}
	out.Text = truncate(strings.TrimSpace(out.Text))
	if out.Text == "" {
		// 扫描件之类没有文本层的文档
		return Extracted{}, capability.Permanent(errors.New("no extractable text"))
	}
	out.Fields["content_type"] = kind
	return out, nil
}

func extractPDF(data []byte) (out Extracted, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = Extracted{}
			err = fmt.Errorf("panic during PDF extraction: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Extracted{}, fmt.Errorf("failed to open PDF: %w", err)
	}

	var sb strings.Builder
	totalPages := r.NumPage()
	for i := 1; i <= totalPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, pageErr := page.GetPlainText(nil)
		if pageErr != nil {
			continue
		}
		sb.WriteString(pageText)
		sb.WriteString("\n")
		if sb.Len() > maxTextLen {
			break
		}
	}

	fields := map[string]string{}
	info := r.Trailer().Key("Info")
	for _, key := range []string{"Title", "Author", "Subject"} {
		if v := info.Key(key).Text(); v != "" {
			fields[strings.ToLower(key)] = v
		}
	}
	return Extracted{Text: sb.String(), Fields: fields, Pages: totalPages}, nil
}

func extractHTML(data []byte) (Extracted, error) {
	// 上传的文档没有来源地址，相对链接按占位地址解析
	base := &nurl.URL{Scheme: "https", Host: "document.local", Path: "/"}
	article, err := readability.FromReader(bytes.NewReader(data), base)
	if err != nil {
		return Extracted{}, fmt.Errorf("readability: %w", err)
	}
	fields := map[string]string{}
	if article.Title != "" {
		fields["title"] = article.Title
	}
	if article.Byline != "" {
		fields["byline"] = article.Byline
	}
	if article.SiteName != "" {
		fields["site_name"] = article.SiteName
	}
	if article.Excerpt != "" {
		fields["excerpt"] = article.Excerpt
	}
	return Extracted{Text: article.TextContent, Fields: fields, Pages: 1}, nil
}

func truncate(s string) string {
	if len(s) <= maxTextLen {
		return s
	}
	// 不截断半个 UTF-8 字符
	cut := maxTextLen
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }
