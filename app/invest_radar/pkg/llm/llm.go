// Package llm 屏蔽不同大模型提供方的差异，向上只暴露一次 system+user 的补全调用。
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/time/rate"

	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/capability"
)

// Prompt 单轮提示词
type Prompt struct {
	System string
	User   string
}

// Completer 定义通用的补全接口
type Completer interface {
	Complete(ctx context.Context, p Prompt) (string, error)
	Provider() string
}

// Limited 给 Completer 套上进程级限流
type Limited struct {
	next    Completer
	limiter *rate.Limiter
}

// NewLimited rpm/qps 与 concurrency 配置一致
func NewLimited(next Completer, rpm, qps int) *Limited {
	limit := rate.Limit(float64(rpm) / 60.0)
	if rpm <= 0 {
		limit = rate.Inf
	}
	if qps <= 0 {
		qps = 1
	}
	return &Limited{next: next, limiter: rate.NewLimiter(limit, qps)}
}

func (l *Limited) Complete(ctx context.Context, p Prompt) (string, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		// Wait 在 ctx 截止时间不够时会直接失败，视作临时故障
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", capability.Transient(fmt.Errorf("rate limiter: %w", err))
	}
	return l.next.Complete(ctx, p)
}

func (l *Limited) Provider() string { return l.next.Provider() }

// CleanJSON 去掉模型输出中常见的 markdown 代码块包裹
func CleanJSON(content string) string {
	clean := strings.TrimSpace(content)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	clean = strings.TrimSpace(clean)
	// 有的模型会在 JSON 前后加解释文字
	if start := strings.IndexAny(clean, "{["); start > 0 {
		clean = clean[start:]
	}
	if end := strings.LastIndexAny(clean, "}]"); end >= 0 && end < len(clean)-1 {
		clean = clean[:end+1]
	}
	return clean
}

// DecodeJSON 解析模型返回的 JSON，失败属于永久错误（重试同一提示词通常无济于事）
func DecodeJSON(content string, v any) error {
	if err := json.Unmarshal([]byte(CleanJSON(content)), v); err != nil {
		return capability.Permanent(fmt.Errorf("json unmarshal: %w", err))
	}
	return nil
}
