package server

import (
	"context"
	"testing"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/invest_radar/app/advisor/internal/conf"
)

type countingPurger struct {
	calls  int
	maxAge time.Duration
}

func (p *countingPurger) Purge(ctx context.Context, maxAge time.Duration) (int64, error) {
	p.calls++
	p.maxAge = maxAge
	return 0, nil
}

func TestRetentionJobDisabled(t *testing.T) {
	j, err := NewRetentionJob(&conf.Retention{}, &countingPurger{}, log.DefaultLogger)
	require.NoError(t, err)
	assert.Empty(t, j.cron.Entries())
	require.NoError(t, j.Start(context.Background()))
	require.NoError(t, j.Stop(context.Background()))
}

func TestRetentionJobScheduled(t *testing.T) {
	p := &countingPurger{}
	j, err := NewRetentionJob(&conf.Retention{Spec: "@daily", MaxAge: "720h"}, p, log.DefaultLogger)
	require.NoError(t, err)
	assert.Len(t, j.cron.Entries(), 1)

	j.run()
	assert.Equal(t, 1, p.calls)
	assert.Equal(t, 720*time.Hour, p.maxAge)
}

func TestRetentionJobInvalidConfig(t *testing.T) {
	_, err := NewRetentionJob(&conf.Retention{Spec: "not a spec"}, &countingPurger{}, log.DefaultLogger)
	assert.Error(t, err)

	_, err = NewRetentionJob(&conf.Retention{Spec: "@daily", MaxAge: "soon"}, &countingPurger{}, log.DefaultLogger)
	assert.Error(t, err)
}
