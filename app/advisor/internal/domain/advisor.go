package domain

import (
	"time"

	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/assembler"
	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/model"
)

// User 用户
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	// Profile 保存的投资画像，未设置时为 nil
	Profile   *model.UserProfile
	CreatedAt time.Time
}

// Analysis 一次已完成的分析记录
type Analysis struct {
	ID        int64
	UserID    int64
	Query     string
	Profile   model.UserProfile
	Result    assembler.Response
	CreatedAt time.Time
}

// AnalysisSummary 历史列表中的一行
type AnalysisSummary struct {
	ID         int64
	Query      string
	Confidence float64
	Degraded   []string
	CreatedAt  time.Time
}

// Document 上传的文档及其抽取结果
type Document struct {
	ID          int64
	UserID      int64
	Name        string
	ContentType string
	Text        string
	Fields      map[string]string
	Pages       int
	// Embedding 未配置向量化或向量化失败时为空
	Embedding []float32
	CreatedAt time.Time
}
