package market

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/capability"
	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/logger"
	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/model"
)

// Name 能力名称
const Name = "market_context"

// Resolver 行情上下文解析器。sem 在所有请求间共享，限制对外部数据源的并发。
type Resolver struct {
	sources    []Source
	normalizer *Normalizer
	sem        *semaphore.Weighted
	policy     capability.Policy
}

// NewResolver maxInFlight <= 0 时取 4
func NewResolver(sources []Source, normalizer *Normalizer, maxInFlight int, p capability.Policy) *Resolver {
	if maxInFlight <= 0 {
		maxInFlight = 4
	}
	if normalizer == nil {
		normalizer = NewNormalizer(nil)
	}
	return &Resolver{
		sources:    sources,
		normalizer: normalizer,
		sem:        semaphore.NewWeighted(int64(maxInFlight)),
		policy:     p,
	}
}

type lookupResult struct {
	facts    []model.MarketFact
	attempts int
	failures int
	firstErr error
}

// Resolve 查询实体对应的市场数据。
// 没有可查的标的时返回空集合；只有超时或全部查询都失败时才返回错误。
func (r *Resolver) Resolve(ctx context.Context, entities []model.Entity) (*model.FactSet, error) {
	ids := r.normalizer.Identifiers(entities)
	if len(ids) == 0 || len(r.sources) == 0 {
		return model.NewFactSet(), nil
	}

	return capability.Invoke(ctx, Name, r.policy, func(ctx context.Context) (*model.FactSet, error) {
		return r.resolve(ctx, ids)
	})
}

func (r *Resolver) resolve(ctx context.Context, ids []string) (*model.FactSet, error) {
	results := make([]lookupResult, len(ids))

	var g errgroup.Group
	for i, id := range ids {
		g.Go(func() error {
			if err := r.sem.Acquire(ctx, 1); err != nil {
				return err
			}
			defer r.sem.Release(1)
			results[i] = r.lookup(ctx, id)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 按 ids 和 sources 的固定顺序合并，后写覆盖先写
	set := model.NewFactSet()
	var attempts, failures int
	var errs []error
	for _, res := range results {
		for _, f := range res.facts {
			set.Put(f)
		}
		attempts += res.attempts
		failures += res.failures
		if res.firstErr != nil {
			errs = append(errs, res.firstErr)
		}
	}
	if attempts > 0 && failures == attempts {
		return nil, capability.Transient(fmt.Errorf("all %d market lookups failed: %w", attempts, errors.Join(errs...)))
	}
	return set, nil
}

func (r *Resolver) lookup(ctx context.Context, id string) lookupResult {
	var res lookupResult
	for _, src := range r.sources {
		if ctx.Err() != nil {
			break
		}
		res.attempts++
		facts, found, err := src.Lookup(ctx, id)
		if err != nil {
			res.failures++
			if res.firstErr == nil {
				res.firstErr = fmt.Errorf("%s/%s: %w", src.Name(), id, err)
			}
			logger.Log.Warnf("行情查询失败 [%s] %s: %v", src.Name(), id, err)
			continue
		}
		if !found {
			logger.Log.Debugf("行情数据缺失 [%s] %s", src.Name(), id)
			continue
		}
		res.facts = append(res.facts, facts...)
	}
	return res
}

// Sources 已配置的数据源名称
func (r *Resolver) Sources() []string {
	names := make([]string, 0, len(r.sources))
	for _, s := range r.sources {
		names = append(names, s.Name())
	}
	return names
}
