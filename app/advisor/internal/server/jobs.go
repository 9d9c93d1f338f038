package server

import (
	"context"
	"fmt"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport"
	"github.com/robfig/cron/v3"

	"github.com/iWorld-y/invest_radar/app/advisor/internal/conf"
)

const defaultMaxAge = 90 * 24 * time.Hour

// Purger 删除过期的分析记录
type Purger interface {
	Purge(ctx context.Context, maxAge time.Duration) (int64, error)
}

// RetentionJob 定时清理历史分析，作为 kratos 的一个 Server 随应用启停
type RetentionJob struct {
	cron   *cron.Cron
	purger Purger
	maxAge time.Duration
	log    *log.Helper
}

var _ transport.Server = (*RetentionJob)(nil)

// NewRetentionJob Spec 为空时返回一个不注册任何任务的 job
func NewRetentionJob(c *conf.Retention, purger Purger, logger log.Logger) (*RetentionJob, error) {
	j := &RetentionJob{
		cron:   cron.New(),
		purger: purger,
		maxAge: defaultMaxAge,
		log:    log.NewHelper(logger),
	}
	if c == nil || c.Spec == "" {
		j.log.Info("retention job disabled")
		return j, nil
	}
	if c.MaxAge != "" {
		d, err := time.ParseDuration(c.MaxAge)
		if err != nil {
			return nil, fmt.Errorf("retention.max_age: %w", err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("retention.max_age must be positive")
		}
		j.maxAge = d
	}
	if _, err := j.cron.AddFunc(c.Spec, j.run); err != nil {
		return nil, fmt.Errorf("register retention job: %w", err)
	}
	j.log.Infof("retention job scheduled: %q, max age %v", c.Spec, j.maxAge)
	return j, nil
}

func (j *RetentionJob) run() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if _, err := j.purger.Purge(ctx, j.maxAge); err != nil {
		j.log.Errorf("retention job failed: %v", err)
	}
}

// Start 启动调度器后立即返回
func (j *RetentionJob) Start(context.Context) error {
	j.cron.Start()
	return nil
}

// Stop 等待正在执行的任务结束
func (j *RetentionJob) Stop(ctx context.Context) error {
	select {
	case <-j.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
