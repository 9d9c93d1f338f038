package repo

import (
	"context"
	"errors"
	"time"

	"github.com/iWorld-y/invest_radar/app/advisor/internal/domain"
	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/model"
)

var (
	// ErrNotFound 记录不存在，或不属于当前用户
	ErrNotFound = errors.New("record not found")
	// ErrConflict 唯一约束冲突
	ErrConflict = errors.New("record already exists")
)

// UserRepo 用户仓库接口
type UserRepo interface {
	// CreateUser 创建用户，成功后回填 ID
	CreateUser(ctx context.Context, u *domain.User) error
	// GetUserByUsername 根据用户名获取用户
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	// UpdateUserProfile 更新投资画像
	UpdateUserProfile(ctx context.Context, id int64, profile model.UserProfile) error
}

// AnalysisRepo 分析记录仓库接口
type AnalysisRepo interface {
	// SaveAnalysis 保存分析记录，成功后回填 ID
	SaveAnalysis(ctx context.Context, a *domain.Analysis) error
	// ListAnalyses 按时间倒序分页获取某个用户的分析摘要
	ListAnalyses(ctx context.Context, userID int64, page, pageSize int) ([]*domain.AnalysisSummary, int, error)
	// GetAnalysis 获取某个用户的一条分析记录
	GetAnalysis(ctx context.Context, id, userID int64) (*domain.Analysis, error)
	// DeleteAnalysesBefore 删除早于 t 的分析记录，返回删除条数
	DeleteAnalysesBefore(ctx context.Context, t time.Time) (int64, error)
}

// DocumentRepo 文档仓库接口
type DocumentRepo interface {
	// SaveDocument 保存文档，成功后回填 ID
	SaveDocument(ctx context.Context, d *domain.Document) error
	// GetDocument 获取某个用户的一篇文档
	GetDocument(ctx context.Context, id, userID int64) (*domain.Document, error)
}
