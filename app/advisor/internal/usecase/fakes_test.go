package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iWorld-y/invest_radar/app/advisor/internal/domain"
	"github.com/iWorld-y/invest_radar/app/advisor/internal/repo"
	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/document"
	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/model"
)

// mockUserRepo 内存用户仓库
type mockUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
	next  int64
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: map[string]*domain.User{}}
}

func (m *mockUserRepo) CreateUser(ctx context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.Username]; ok {
		return repo.ErrConflict
	}
	m.next++
	u.ID = m.next
	cp := *u
	m.users[u.Username] = &cp
	return nil
}

func (m *mockUserRepo) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[username]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *mockUserRepo) UpdateUserProfile(ctx context.Context, id int64, profile model.UserProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			p := profile
			u.Profile = &p
			return nil
		}
	}
	return repo.ErrNotFound
}

// mockAnalysisRepo 内存分析仓库
type mockAnalysisRepo struct {
	items []*domain.Analysis
}

func (m *mockAnalysisRepo) SaveAnalysis(ctx context.Context, a *domain.Analysis) error {
	a.ID = int64(len(m.items) + 1)
	m.items = append(m.items, a)
	return nil
}

func (m *mockAnalysisRepo) ListAnalyses(ctx context.Context, userID int64, page, pageSize int) ([]*domain.AnalysisSummary, int, error) {
	var out []*domain.AnalysisSummary
	for _, a := range m.items {
		if a.UserID == userID {
			out = append(out, &domain.AnalysisSummary{ID: a.ID, Query: a.Query, CreatedAt: a.CreatedAt})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, len(out), nil
}

func (m *mockAnalysisRepo) GetAnalysis(ctx context.Context, id, userID int64) (*domain.Analysis, error) {
	for _, a := range m.items {
		if a.ID == id && a.UserID == userID {
			return a, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (m *mockAnalysisRepo) DeleteAnalysesBefore(ctx context.Context, t time.Time) (int64, error) {
	var kept []*domain.Analysis
	for _, a := range m.items {
		if !a.CreatedAt.Before(t) {
			kept = append(kept, a)
		}
	}
	n := int64(len(m.items) - len(kept))
	m.items = kept
	return n, nil
}

// mockDocumentRepo 内存文档仓库
type mockDocumentRepo struct {
	items []*domain.Document
}

func (m *mockDocumentRepo) SaveDocument(ctx context.Context, d *domain.Document) error {
	d.ID = int64(len(m.items) + 1)
	m.items = append(m.items, d)
	return nil
}

func (m *mockDocumentRepo) GetDocument(ctx context.Context, id, userID int64) (*domain.Document, error) {
	for _, d := range m.items {
		if d.ID == id && d.UserID == userID {
			return d, nil
		}
	}
	return nil, repo.ErrNotFound
}

// mockAnalyzer 返回固定结果
type mockAnalyzer struct {
	result *model.AnalysisResult
	err    error
	got    model.Query
}

func (m *mockAnalyzer) Run(ctx context.Context, q model.Query) (*model.AnalysisResult, error) {
	m.got = q
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

// mockPublisher 记录发布的事件
type mockPublisher struct {
	published []*domain.Analysis
	err       error
}

func (m *mockPublisher) PublishAnalysis(ctx context.Context, a *domain.Analysis) error {
	m.published = append(m.published, a)
	return m.err
}

type mockExtractor struct {
	out document.Extracted
	err error
}

func (m *mockExtractor) ExtractText(ctx context.Context, doc document.Document) (document.Extracted, error) {
	return m.out, m.err
}

type mockEmbedder struct {
	vec []float32
	err error
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return m.vec, m.err
}
