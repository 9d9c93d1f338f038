package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/invest_radar/app/advisor/internal/domain"
	"github.com/iWorld-y/invest_radar/app/advisor/internal/repo"
)

type documentRepo struct {
	data *Data
	log  *log.Helper
}

// NewDocumentRepo 创建文档仓库
func NewDocumentRepo(data *Data, logger log.Logger) repo.DocumentRepo {
	return &documentRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

func (r *documentRepo) SaveDocument(ctx context.Context, d *domain.Document) error {
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	fields, err := json.Marshal(d.Fields)
	if err != nil {
		return err
	}
	var embedding sql.NullString
	if len(d.Embedding) > 0 {
		b, err := json.Marshal(d.Embedding)
		if err != nil {
			return err
		}
		embedding = sql.NullString{String: string(b), Valid: true}
	}

	return r.data.db.QueryRowContext(ctx,
		r.data.rebind(`INSERT INTO documents
			(user_id, name, content_type, text, fields, pages, embedding, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`),
		d.UserID, d.Name, d.ContentType, d.Text, string(fields), d.Pages, embedding, toMillis(d.CreatedAt),
	).Scan(&d.ID)
}

func (r *documentRepo) GetDocument(ctx context.Context, id, userID int64) (*domain.Document, error) {
	var (
		d         domain.Document
		fields    string
		embedding sql.NullString
		created   int64
	)
	err := r.data.db.QueryRowContext(ctx,
		r.data.rebind(`SELECT id, user_id, name, content_type, text, fields, pages, embedding, created_at
			FROM documents WHERE id = ? AND user_id = ?`),
		id, userID,
	).Scan(&d.ID, &d.UserID, &d.Name, &d.ContentType, &d.Text, &fields, &d.Pages, &embedding, &created)
	if err != nil {
		return nil, notFound(err)
	}

	if err := json.Unmarshal([]byte(fields), &d.Fields); err != nil {
		return nil, fmt.Errorf("document %d: decode fields: %w", d.ID, err)
	}
	if embedding.Valid {
		if err := json.Unmarshal([]byte(embedding.String), &d.Embedding); err != nil {
			return nil, fmt.Errorf("document %d: decode embedding: %w", d.ID, err)
		}
	}
	d.CreatedAt = fromMillis(created)
	return &d, nil
}
