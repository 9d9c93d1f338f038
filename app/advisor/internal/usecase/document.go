package usecase

import (
	"context"
	stderrors "errors"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/invest_radar/app/advisor/internal/domain"
	"github.com/iWorld-y/invest_radar/app/advisor/internal/repo"
	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/capability"
	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/document"
	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/embedding"
)

// DocumentUseCase 文档上传业务逻辑
type DocumentUseCase struct {
	extractor document.Extractor
	// embedder 为 nil 时不做向量化
	embedder embedding.Embedder
	users    repo.UserRepo
	repo     repo.DocumentRepo
	log      *log.Helper
}

// NewDocumentUseCase 创建文档业务逻辑实例
func NewDocumentUseCase(extractor document.Extractor, embedder embedding.Embedder, users repo.UserRepo, repo repo.DocumentRepo, logger log.Logger) *DocumentUseCase {
	return &DocumentUseCase{
		extractor: extractor,
		embedder:  embedder,
		users:     users,
		repo:      repo,
		log:       log.NewHelper(logger),
	}
}

// Upload 抽取文档文本，可选向量化，然后保存
func (uc *DocumentUseCase) Upload(ctx context.Context, username string, doc document.Document) (*domain.Document, error) {
	u, err := uc.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, errors.Unauthorized("AUTH_FAILED", "user no longer exists")
	}

	out, err := uc.extractor.ExtractText(ctx, doc)
	if err != nil {
		return nil, extractError(err)
	}

	d := &domain.Document{
		UserID:      u.ID,
		Name:        doc.Name,
		ContentType: out.Fields["content_type"],
		Text:        out.Text,
		Fields:      out.Fields,
		Pages:       out.Pages,
	}
	if uc.embedder != nil {
		vec, err := uc.embedder.Embed(ctx, out.Text)
		if err != nil {
			uc.log.WithContext(ctx).Warnf("embed document %q: %v", doc.Name, err)
		} else {
			d.Embedding = vec
		}
	}

	if err := uc.repo.SaveDocument(ctx, d); err != nil {
		return nil, errors.InternalServer("INTERNAL", err.Error())
	}
	return d, nil
}

func extractError(err error) error {
	switch capability.KindOf(err) {
	case capability.KindInvalidInput:
		return errors.BadRequest("INVALID_INPUT", err.Error())
	case capability.KindPermanent:
		return errors.New(422, "UNPROCESSABLE_DOCUMENT", err.Error())
	case capability.KindCanceled:
		return errors.ClientClosed("CANCELED", "upload canceled")
	default:
		return errors.ServiceUnavailable("EXTRACTION_UNAVAILABLE", err.Error())
	}
}

// Get 获取用户的一篇文档
func (uc *DocumentUseCase) Get(ctx context.Context, username string, id int64) (*domain.Document, error) {
	u, err := uc.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, errors.Unauthorized("AUTH_FAILED", "user no longer exists")
	}
	d, err := uc.repo.GetDocument(ctx, id, u.ID)
	if err != nil {
		if stderrors.Is(err, repo.ErrNotFound) {
			return nil, errors.NotFound("NOT_FOUND", "document not found")
		}
		return nil, errors.InternalServer("INTERNAL", err.Error())
	}
	return d, nil
}
