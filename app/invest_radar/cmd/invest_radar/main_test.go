package main

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/engine"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "invalid query", err: fmt.Errorf("%w: empty text", engine.ErrInvalidQuery), want: 2},
		{name: "generation unavailable", err: fmt.Errorf("%w: %w", engine.ErrGenerationUnavailable, errors.New("503")), want: 3},
		{name: "canceled", err: context.Canceled, want: 130},
		{name: "deadline", err: fmt.Errorf("run: %w", context.DeadlineExceeded), want: 130},
		{name: "other", err: errors.New("boom"), want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}
