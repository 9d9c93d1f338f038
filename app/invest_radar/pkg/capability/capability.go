// Package capability 定义所有外部 AI 能力适配器共用的调用约定：
// 输入校验、超时、单次重试以及带类型的失败结果。
package capability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/logger"
)

// Kind 失败类型
type Kind int

const (
	KindInvalidInput Kind = iota + 1
	KindTimeout
	KindTransient
	KindPermanent
	KindCanceled
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "InvalidInput"
	case KindTimeout:
		return "Timeout"
	case KindTransient:
		return "TransientFailure"
	case KindPermanent:
		return "PermanentFailure"
	case KindCanceled:
		return "Canceled"
	default:
		return "Unknown"
	}
}

// Retryable 只有超时和临时故障会被重试
func (k Kind) Retryable() bool {
	return k == KindTimeout || k == KindTransient
}

// Error 适配器边界上唯一允许出现的错误类型
type Error struct {
	Capability string
	Kind       Kind
	Attempts   int
	Err        error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Capability, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Capability, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// InvalidInput 构造输入校验失败
func InvalidInput(err error) error { return &Error{Kind: KindInvalidInput, Err: err} }

// Transient 构造可重试的临时故障
func Transient(err error) error { return &Error{Kind: KindTransient, Err: err} }

// Permanent 构造不可重试的永久故障
func Permanent(err error) error { return &Error{Kind: KindPermanent, Err: err} }

// Reject 适配器在发起调用前发现输入不合法
func Reject(name string, err error) error {
	return &Error{Capability: name, Kind: KindInvalidInput, Err: err}
}

// KindOf 返回错误的失败类型，非 *Error 时按 Classify 归类
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return Classify(err)
}

// Classify 对未打标的错误归类
func Classify(err error) Kind {
	if err == nil {
		return 0
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	if errors.Is(err, context.Canceled) {
		return KindCanceled
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return KindTimeout
		}
		return KindTransient
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return KindTransient
	}
	// 带状态码的 SDK 错误已在适配器里用 FromStatus 打标，这里只认状态短语
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"too many requests", "service unavailable", "bad gateway", "gateway timeout", "connection reset", "connection refused", "resource_exhausted"} {
		if strings.Contains(msg, s) {
			return KindTransient
		}
	}
	return KindPermanent
}

// FromStatus 根据 HTTP 状态码给错误打标
func FromStatus(status int, err error) error {
	switch {
	case status == http.StatusRequestTimeout, status == http.StatusTooManyRequests, status >= 500:
		return Transient(err)
	default:
		return Permanent(err)
	}
}

// Policy 单个能力的超时与重试参数
type Policy struct {
	Timeout time.Duration
	Backoff time.Duration
	// Retries 额外重试次数，按约定最多一次
	Retries int
}

// DefaultPolicy 默认参数
func DefaultPolicy() Policy {
	return Policy{Timeout: 10 * time.Second, Backoff: 500 * time.Millisecond, Retries: 1}
}

func (p Policy) normalized() Policy {
	d := DefaultPolicy()
	if p.Timeout <= 0 {
		p.Timeout = d.Timeout
	}
	if p.Backoff < 0 {
		p.Backoff = 0
	}
	if p.Retries < 0 {
		p.Retries = 0
	}
	if p.Retries > 1 {
		p.Retries = 1
	}
	return p
}

// Invoke 在超时内调用 fn，超时或临时故障时固定退避后重试一次。
// 返回的错误总是 *Error。
func Invoke[T any](ctx context.Context, name string, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	p = p.normalized()
	var zero T
	var lastErr error
	var kind Kind
	attempts := 0

	for attempt := 0; attempt <= p.Retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, &Error{Capability: name, Kind: KindCanceled, Attempts: attempt, Err: err}
		}

		attempts++
		out, err := call(ctx, p.Timeout, fn)
		if err == nil {
			return out, nil
		}
		lastErr = err
		kind = Classify(err)
		if ctx.Err() != nil {
			// the caller gave up, not the capability
			return zero, &Error{Capability: name, Kind: KindCanceled, Attempts: attempt + 1, Err: ctx.Err()}
		}
		if !kind.Retryable() || attempt == p.Retries {
			break
		}

		logger.Log.Warnf("能力 [%s] 第 %d 次调用失败 (%s)，%v 后重试: %v", name, attempt+1, kind, p.Backoff, err)
		select {
		case <-ctx.Done():
			return zero, &Error{Capability: name, Kind: KindCanceled, Attempts: attempt + 1, Err: ctx.Err()}
		case <-time.After(p.Backoff):
		}
	}

	return zero, &Error{Capability: name, Kind: kind, Attempts: attempts, Err: unwrapKind(lastErr)}
}

func call[T any](ctx context.Context, timeout time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	out, err := fn(callCtx)
	if err != nil && callCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
		return out, &Error{Kind: KindTimeout, Err: fmt.Errorf("timed out after %v: %w", timeout, err)}
	}
	return out, err
}

// unwrapKind 去掉内部打标用的 *Error 外壳，避免重复嵌套
func unwrapKind(err error) error {
	var ce *Error
	if errors.As(err, &ce) && ce.Capability == "" && ce.Err != nil {
		return ce.Err
	}
	return err
}
