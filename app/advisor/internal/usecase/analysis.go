package usecase

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/invest_radar/app/advisor/internal/domain"
	"github.com/iWorld-y/invest_radar/app/advisor/internal/repo"
	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/assembler"
	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/engine"
	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/model"
)

// Analyzer 执行一次分析，由 engine.Engine 实现
type Analyzer interface {
	Run(ctx context.Context, q model.Query) (*model.AnalysisResult, error)
}

// AnalysisPublisher 发布分析完成事件
type AnalysisPublisher interface {
	PublishAnalysis(ctx context.Context, a *domain.Analysis) error
}

var _ Analyzer = (*engine.Engine)(nil)

// AnalysisUseCase 分析业务逻辑
type AnalysisUseCase struct {
	analyzer  Analyzer
	users     repo.UserRepo
	repo      repo.AnalysisRepo
	publisher AnalysisPublisher
	log       *log.Helper
	now       func() time.Time
}

// NewAnalysisUseCase 创建分析业务逻辑实例
func NewAnalysisUseCase(analyzer Analyzer, users repo.UserRepo, repo repo.AnalysisRepo, publisher AnalysisPublisher, logger log.Logger) *AnalysisUseCase {
	return &AnalysisUseCase{
		analyzer:  analyzer,
		users:     users,
		repo:      repo,
		publisher: publisher,
		log:       log.NewHelper(logger),
		now:       time.Now,
	}
}

// Analyze 为用户执行一次分析并保存。profile 为 nil 时使用用户保存的画像。
func (uc *AnalysisUseCase) Analyze(ctx context.Context, username, text string, profile *model.UserProfile) (*domain.Analysis, error) {
	u, err := uc.users.GetUserByUsername(ctx, username)
	if err != nil {
		if stderrors.Is(err, repo.ErrNotFound) {
			return nil, errors.Unauthorized("AUTH_FAILED", "user no longer exists")
		}
		return nil, errors.InternalServer("INTERNAL", err.Error())
	}
	if profile == nil {
		profile = u.Profile
	}
	if profile == nil {
		return nil, errors.BadRequest("INVALID_INPUT", "profile is required: pass one or save it via /v1/profile")
	}

	q := model.Query{Text: strings.TrimSpace(text), Profile: *profile}
	result, err := uc.analyzer.Run(ctx, q)
	if err != nil {
		return nil, analyzeError(err)
	}
	resp, err := assembler.Assemble(result)
	if err != nil {
		uc.log.WithContext(ctx).Errorf("assemble run %s: %v", result.RunID, err)
		return nil, errors.InternalServer("INTERNAL", "analysis result is inconsistent")
	}

	a := &domain.Analysis{
		UserID:    u.ID,
		Query:     q.Text,
		Profile:   q.Profile,
		Result:    resp,
		CreatedAt: result.CreatedAt,
	}
	if err := uc.repo.SaveAnalysis(ctx, a); err != nil {
		return nil, errors.InternalServer("INTERNAL", err.Error())
	}

	// 事件发布失败不影响请求结果
	if err := uc.publisher.PublishAnalysis(ctx, a); err != nil {
		uc.log.WithContext(ctx).Warnf("publish analysis %d: %v", a.ID, err)
	}
	return a, nil
}

func analyzeError(err error) error {
	switch {
	case stderrors.Is(err, engine.ErrInvalidQuery):
		return errors.BadRequest("INVALID_INPUT", err.Error())
	case stderrors.Is(err, engine.ErrGenerationUnavailable):
		return errors.ServiceUnavailable("GENERATION_UNAVAILABLE", err.Error())
	case stderrors.Is(err, context.Canceled):
		return errors.ClientClosed("CANCELED", "analysis canceled")
	case stderrors.Is(err, context.DeadlineExceeded):
		return errors.GatewayTimeout("TIMEOUT", "analysis timed out")
	default:
		return errors.InternalServer("INTERNAL", err.Error())
	}
}

// List 分页列出用户的历史分析
func (uc *AnalysisUseCase) List(ctx context.Context, username string, page, pageSize int) ([]*domain.AnalysisSummary, int, error) {
	u, err := uc.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, 0, errors.Unauthorized("AUTH_FAILED", "user no longer exists")
	}
	list, total, err := uc.repo.ListAnalyses(ctx, u.ID, page, pageSize)
	if err != nil {
		return nil, 0, errors.InternalServer("INTERNAL", err.Error())
	}
	return list, total, nil
}

// Get 获取用户的一条分析记录
func (uc *AnalysisUseCase) Get(ctx context.Context, username string, id int64) (*domain.Analysis, error) {
	u, err := uc.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, errors.Unauthorized("AUTH_FAILED", "user no longer exists")
	}
	a, err := uc.repo.GetAnalysis(ctx, id, u.ID)
	if err != nil {
		if stderrors.Is(err, repo.ErrNotFound) {
			return nil, errors.NotFound("NOT_FOUND", "analysis not found")
		}
		return nil, errors.InternalServer("INTERNAL", err.Error())
	}
	return a, nil
}

// Purge 删除早于 maxAge 的分析记录
func (uc *AnalysisUseCase) Purge(ctx context.Context, maxAge time.Duration) (int64, error) {
	n, err := uc.repo.DeleteAnalysesBefore(ctx, uc.now().Add(-maxAge))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		uc.log.WithContext(ctx).Infof("purged %d analyses older than %v", n, maxAge)
	}
	return n, nil
}
