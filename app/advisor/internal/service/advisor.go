package service

import (
	"context"
	"time"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/auth/jwt"
	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/iWorld-y/invest_radar/app/advisor/internal/domain"
	"github.com/iWorld-y/invest_radar/app/advisor/internal/usecase"
	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/document"
)

type AdvisorService struct {
	ucUser     *usecase.UserUseCase
	ucAnalysis *usecase.AnalysisUseCase
	ucDocument *usecase.DocumentUseCase
	log        *log.Helper
}

func NewAdvisorService(ucUser *usecase.UserUseCase, ucAnalysis *usecase.AnalysisUseCase, ucDocument *usecase.DocumentUseCase, logger log.Logger) *AdvisorService {
	return &AdvisorService{
		ucUser:     ucUser,
		ucAnalysis: ucAnalysis,
		ucDocument: ucDocument,
		log:        log.NewHelper(logger),
	}
}

// currentUser 从 JWT claims 中取出用户名
func currentUser(ctx context.Context) (string, error) {
	claims, ok := jwt.FromContext(ctx)
	if !ok {
		return "", errors.Unauthorized("AUTH_FAILED", "missing token")
	}
	mc, ok := claims.(jwtv5.MapClaims)
	if !ok {
		return "", errors.Unauthorized("AUTH_FAILED", "unexpected claims")
	}
	name, _ := mc["username"].(string)
	if name == "" {
		return "", errors.Unauthorized("AUTH_FAILED", "token has no username")
	}
	return name, nil
}

func (s *AdvisorService) Register(ctx context.Context, req *RegisterReq) (*RegisterReply, error) {
	if err := s.ucUser.Register(ctx, req.Username, req.Password); err != nil {
		return nil, err
	}
	return &RegisterReply{Username: req.Username}, nil
}

func (s *AdvisorService) Login(ctx context.Context, req *LoginReq) (*LoginReply, error) {
	token, err := s.ucUser.Login(ctx, req.Username, req.Password)
	if err != nil {
		return nil, err
	}
	return &LoginReply{Token: token, Username: req.Username}, nil
}

func (s *AdvisorService) GetProfile(ctx context.Context, _ *GetProfileReq) (*ProfileReply, error) {
	name, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	u, err := s.ucUser.GetProfile(ctx, name)
	if err != nil {
		return nil, err
	}
	return &ProfileReply{Username: u.Username, Profile: u.Profile}, nil
}

func (s *AdvisorService) UpdateProfile(ctx context.Context, req *UpdateProfileReq) (*ProfileReply, error) {
	name, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.ucUser.UpdateProfile(ctx, name, req.UserProfile); err != nil {
		return nil, err
	}
	p := req.UserProfile
	return &ProfileReply{Username: name, Profile: &p}, nil
}

func (s *AdvisorService) Analyze(ctx context.Context, req *AnalyzeReq) (*AnalysisReply, error) {
	name, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	a, err := s.ucAnalysis.Analyze(ctx, name, req.Query, req.Profile)
	if err != nil {
		return nil, err
	}
	return toAnalysisReply(a), nil
}

func (s *AdvisorService) ListAnalyses(ctx context.Context, req *ListAnalysesReq) (*ListAnalysesReply, error) {
	name, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	page := int(req.Page)
	if page < 1 {
		page = 1
	}
	pageSize := int(req.PageSize)
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	list, total, err := s.ucAnalysis.List(ctx, name, page, pageSize)
	if err != nil {
		return nil, err
	}
	out := make([]*AnalysisSummary, 0, len(list))
	for _, a := range list {
		degraded := a.Degraded
		if degraded == nil {
			degraded = []string{}
		}
		out = append(out, &AnalysisSummary{
			ID:         a.ID,
			Query:      a.Query,
			Confidence: a.Confidence,
			Degraded:   degraded,
			CreatedAt:  a.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return &ListAnalysesReply{Analyses: out, Total: int32(total)}, nil
}

func (s *AdvisorService) GetAnalysis(ctx context.Context, req *GetByIDReq) (*AnalysisReply, error) {
	name, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	a, err := s.ucAnalysis.Get(ctx, name, req.ID)
	if err != nil {
		return nil, err
	}
	return toAnalysisReply(a), nil
}

func (s *AdvisorService) UploadDocument(ctx context.Context, doc *document.Document) (*DocumentReply, error) {
	name, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	d, err := s.ucDocument.Upload(ctx, name, *doc)
	if err != nil {
		return nil, err
	}
	return toDocumentReply(d), nil
}

func (s *AdvisorService) GetDocument(ctx context.Context, req *GetByIDReq) (*DocumentReply, error) {
	name, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	d, err := s.ucDocument.Get(ctx, name, req.ID)
	if err != nil {
		return nil, err
	}
	return toDocumentReply(d), nil
}

func toAnalysisReply(a *domain.Analysis) *AnalysisReply {
	resp := a.Result
	if resp.CreatedAt == "" {
		resp.CreatedAt = a.CreatedAt.UTC().Format(time.RFC3339)
	}
	return &AnalysisReply{ID: a.ID, Query: a.Query, Profile: a.Profile, Response: resp}
}

func toDocumentReply(d *domain.Document) *DocumentReply {
	fields := d.Fields
	if fields == nil {
		fields = map[string]string{}
	}
	return &DocumentReply{
		ID:          d.ID,
		Name:        d.Name,
		ContentType: d.ContentType,
		Pages:       d.Pages,
		Fields:      fields,
		Text:        d.Text,
		Dimensions:  len(d.Embedding),
		CreatedAt:   d.CreatedAt.UTC().Format(time.RFC3339),
	}
}
