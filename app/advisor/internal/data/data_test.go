package data

import (
	"context"
	"testing"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/invest_radar/app/advisor/internal/conf"
	"github.com/iWorld-y/invest_radar/app/advisor/internal/domain"
	"github.com/iWorld-y/invest_radar/app/advisor/internal/repo"
	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/assembler"
	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/model"
)

func newTestData(t *testing.T) *Data {
	t.Helper()
	d, cleanup, err := NewData(&conf.Data{Database: &conf.Database{Driver: DriverSQLite, Source: ":memory:"}}, log.DefaultLogger)
	require.NoError(t, err)
	t.Cleanup(cleanup)
	return d
}

func TestRebind(t *testing.T) {
	pg := &Data{driver: DriverPostgres}
	assert.Equal(t, "SELECT a FROM t WHERE x = $1 AND y = $2", pg.rebind("SELECT a FROM t WHERE x = ? AND y = ?"))

	lite := &Data{driver: DriverSQLite}
	assert.Equal(t, "x = ?", lite.rebind("x = ?"))
}

func TestNewDataRejectsUnknownDriver(t *testing.T) {
	_, _, err := NewData(&conf.Data{Database: &conf.Database{Driver: "mysql"}}, log.DefaultLogger)
	assert.Error(t, err)
}

func TestUserRepo(t *testing.T) {
	d := newTestData(t)
	r := NewUserRepo(d, log.DefaultLogger)
	ctx := context.Background()

	u := &domain.User{Username: "alice", PasswordHash: "hash"}
	require.NoError(t, r.CreateUser(ctx, u))
	assert.NotZero(t, u.ID)

	err := r.CreateUser(ctx, &domain.User{Username: "alice", PasswordHash: "x"})
	assert.ErrorIs(t, err, repo.ErrConflict)

	got, err := r.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "hash", got.PasswordHash)
	assert.Nil(t, got.Profile)

	p := model.UserProfile{Age: 35, RiskTolerance: model.RiskModerate, InvestmentHorizon: model.HorizonLong}
	require.NoError(t, r.UpdateUserProfile(ctx, u.ID, p))
	got, err = r.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, got.Profile)
	assert.Equal(t, p, *got.Profile)

	assert.ErrorIs(t, r.UpdateUserProfile(ctx, 999, p), repo.ErrNotFound)

	_, err = r.GetUserByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestAnalysisRepo(t *testing.T) {
	d := newTestData(t)
	r := NewAnalysisRepo(d, log.DefaultLogger)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	for i, q := range []string{"first", "second", "third"} {
		a := &domain.Analysis{
			UserID:  1,
			Query:   q,
			Profile: model.UserProfile{Age: 35, RiskTolerance: model.RiskModerate, InvestmentHorizon: model.HorizonLong},
			Result: assembler.Response{
				RunID:          q,
				Recommendation: "rec " + q,
				Confidence:     0.5,
				CitedFacts:     []assembler.Fact{{Instrument: "TCS", Attribute: "price", Value: "1", AsOf: "2026-03-01T09:00:00Z"}},
				Degraded:       []string{"sentiment"},
			},
			CreatedAt: base.Add(time.Duration(i) * 24 * time.Hour),
		}
		require.NoError(t, r.SaveAnalysis(ctx, a))
	}
	require.NoError(t, r.SaveAnalysis(ctx, &domain.Analysis{
		UserID: 2, Query: "other", Result: assembler.Response{Recommendation: "x", CitedFacts: []assembler.Fact{}, Degraded: []string{}},
	}))

	list, total, err := r.ListAnalyses(ctx, 1, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, list, 2)
	assert.Equal(t, "third", list[0].Query)
	assert.Equal(t, []string{"sentiment"}, list[0].Degraded)

	list, _, err = r.ListAnalyses(ctx, 1, 2, 2)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "first", list[0].Query)

	a, err := r.GetAnalysis(ctx, list[0].ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "rec first", a.Result.Recommendation)
	assert.Equal(t, model.RiskModerate, a.Profile.RiskTolerance)
	require.Len(t, a.Result.CitedFacts, 1)
	assert.Equal(t, "TCS", a.Result.CitedFacts[0].Instrument)
	assert.Equal(t, base, a.CreatedAt)
	assert.Equal(t, "2026-03-01T09:00:00Z", a.Result.CreatedAt)

	_, err = r.GetAnalysis(ctx, list[0].ID, 2)
	assert.ErrorIs(t, err, repo.ErrNotFound)

	n, err := r.DeleteAnalysesBefore(ctx, base.Add(36*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	_, total, err = r.ListAnalyses(ctx, 1, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestDocumentRepo(t *testing.T) {
	d := newTestData(t)
	r := NewDocumentRepo(d, log.DefaultLogger)
	ctx := context.Background()

	doc := &domain.Document{
		UserID:      1,
		Name:        "fy25.pdf",
		ContentType: "application/pdf",
		Text:        "annual report",
		Fields:      map[string]string{"title": "FY25"},
		Pages:       2,
		Embedding:   []float32{0.25, -0.5},
	}
	require.NoError(t, r.SaveDocument(ctx, doc))

	got, err := r.GetDocument(ctx, doc.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "annual report", got.Text)
	assert.Equal(t, "FY25", got.Fields["title"])
	assert.Equal(t, []float32{0.25, -0.5}, got.Embedding)

	plain := &domain.Document{UserID: 1, Name: "a.txt", ContentType: "text/plain", Text: "x", Fields: map[string]string{}}
	require.NoError(t, r.SaveDocument(ctx, plain))
	got, err = r.GetDocument(ctx, plain.ID, 1)
	require.NoError(t, err)
	assert.Nil(t, got.Embedding)

	_, err = r.GetDocument(ctx, doc.ID, 7)
	assert.ErrorIs(t, err, repo.ErrNotFound)
}
