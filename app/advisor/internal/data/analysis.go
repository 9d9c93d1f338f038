package data

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/invest_radar/app/advisor/internal/domain"
	"github.com/iWorld-y/invest_radar/app/advisor/internal/repo"
	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/assembler"
)

type analysisRepo struct {
	data *Data
	log  *log.Helper
}

// NewAnalysisRepo 创建分析记录仓库
func NewAnalysisRepo(data *Data, logger log.Logger) repo.AnalysisRepo {
	return &analysisRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

func (r *analysisRepo) SaveAnalysis(ctx context.Context, a *domain.Analysis) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	profile, err := json.Marshal(a.Profile)
	if err != nil {
		return err
	}
	facts, err := json.Marshal(a.Result.CitedFacts)
	if err != nil {
		return err
	}
	degraded, err := json.Marshal(a.Result.Degraded)
	if err != nil {
		return err
	}

	return r.data.db.QueryRowContext(ctx,
		r.data.rebind(`INSERT INTO analyses
			(user_id, run_id, query, profile, recommendation, confidence, cited_facts, degraded, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`),
		a.UserID, a.Result.RunID, a.Query, string(profile), a.Result.Recommendation,
		a.Result.Confidence, string(facts), string(degraded), toMillis(a.CreatedAt),
	).Scan(&a.ID)
}

func (r *analysisRepo) ListAnalyses(ctx context.Context, userID int64, page, pageSize int) ([]*domain.AnalysisSummary, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}

	var total int
	if err := r.data.db.QueryRowContext(ctx,
		r.data.rebind(`SELECT COUNT(*) FROM analyses WHERE user_id = ?`), userID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.data.db.QueryContext(ctx,
		r.data.rebind(`SELECT id, query, confidence, degraded, created_at FROM analyses
			WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`),
		userID, pageSize, (page-1)*pageSize,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	list := make([]*domain.AnalysisSummary, 0, pageSize)
	for rows.Next() {
		var (
			s        domain.AnalysisSummary
			degraded string
			created  int64
		)
		if err := rows.Scan(&s.ID, &s.Query, &s.Confidence, &degraded, &created); err != nil {
			return nil, 0, err
		}
		if err := json.Unmarshal([]byte(degraded), &s.Degraded); err != nil {
			return nil, 0, fmt.Errorf("analysis %d: decode degraded: %w", s.ID, err)
		}
		s.CreatedAt = fromMillis(created)
		list = append(list, &s)
	}
	return list, total, rows.Err()
}

func (r *analysisRepo) GetAnalysis(ctx context.Context, id, userID int64) (*domain.Analysis, error) {
	var (
		a                        domain.Analysis
		profile, facts, degraded string
		created                  int64
	)
	err := r.data.db.QueryRowContext(ctx,
		r.data.rebind(`SELECT id, user_id, run_id, query, profile, recommendation, confidence, cited_facts, degraded, created_at
			FROM analyses WHERE id = ? AND user_id = ?`),
		id, userID,
	).Scan(&a.ID, &a.UserID, &a.Result.RunID, &a.Query, &profile, &a.Result.Recommendation,
		&a.Result.Confidence, &facts, &degraded, &created)
	if err != nil {
		return nil, notFound(err)
	}

	if err := json.Unmarshal([]byte(profile), &a.Profile); err != nil {
		return nil, fmt.Errorf("analysis %d: decode profile: %w", a.ID, err)
	}
	a.Result.CitedFacts = []assembler.Fact{}
	if err := json.Unmarshal([]byte(facts), &a.Result.CitedFacts); err != nil {
		return nil, fmt.Errorf("analysis %d: decode cited facts: %w", a.ID, err)
	}
	a.Result.Degraded = []string{}
	if err := json.Unmarshal([]byte(degraded), &a.Result.Degraded); err != nil {
		return nil, fmt.Errorf("analysis %d: decode degraded: %w", a.ID, err)
	}
	a.CreatedAt = fromMillis(created)
	a.Result.CreatedAt = a.CreatedAt.Format(time.RFC3339)
	return &a, nil
}

func (r *analysisRepo) DeleteAnalysesBefore(ctx context.Context, t time.Time) (int64, error) {
	res, err := r.data.db.ExecContext(ctx, r.data.rebind(`DELETE FROM analyses WHERE created_at < ?`), toMillis(t))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
