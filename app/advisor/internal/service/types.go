package service

import (
	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/assembler"
	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/model"
)

type RegisterReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterReply struct {
	Username string `json:"username"`
}

type LoginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginReply struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

type GetProfileReq struct{}

type ProfileReply struct {
	Username string             `json:"username"`
	Profile  *model.UserProfile `json:"profile"`
}

type UpdateProfileReq struct {
	model.UserProfile
}

type AnalyzeReq struct {
	Query string `json:"query"`
	// Profile 为空时使用已保存的画像
	Profile *model.UserProfile `json:"profile,omitempty"`
}

type AnalysisReply struct {
	ID      int64             `json:"id"`
	Query   string            `json:"query"`
	Profile model.UserProfile `json:"profile"`
	assembler.Response
}

type ListAnalysesReq struct {
	Page     int32 `json:"page"`
	PageSize int32 `json:"page_size"`
}

type AnalysisSummary struct {
	ID         int64    `json:"id"`
	Query      string   `json:"query"`
	Confidence float64  `json:"confidence"`
	Degraded   []string `json:"degraded"`
	CreatedAt  string   `json:"created_at"`
}

type ListAnalysesReply struct {
	Analyses []*AnalysisSummary `json:"analyses"`
	Total    int32              `json:"total"`
}

type GetByIDReq struct {
	ID int64 `json:"id"`
}

type DocumentReply struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	ContentType string            `json:"content_type"`
	Pages       int               `json:"pages"`
	Fields      map[string]string `json:"fields"`
	Text        string            `json:"text"`
	// Dimensions 向量维度，未向量化时为 0
	Dimensions int    `json:"dimensions"`
	CreatedAt  string `json:"created_at"`
}
