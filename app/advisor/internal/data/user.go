package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/invest_radar/app/advisor/internal/domain"
	"github.com/iWorld-y/invest_radar/app/advisor/internal/repo"
	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/model"
)

type userRepo struct {
	data *Data
	log  *log.Helper
}

// NewUserRepo 创建用户仓库
func NewUserRepo(data *Data, logger log.Logger) repo.UserRepo {
	return &userRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

func (r *userRepo) CreateUser(ctx context.Context, u *domain.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	profile, err := encodeProfile(u.Profile)
	if err != nil {
		return err
	}
	err = r.data.db.QueryRowContext(ctx,
		r.data.rebind(`INSERT INTO users (username, password_hash, profile, created_at) VALUES (?, ?, ?, ?) RETURNING id`),
		u.Username, u.PasswordHash, profile, toMillis(u.CreatedAt),
	).Scan(&u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return repo.ErrConflict
		}
		return err
	}
	return nil
}

func (r *userRepo) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	var (
		u       domain.User
		profile sql.NullString
		created int64
	)
	err := r.data.db.QueryRowContext(ctx,
		r.data.rebind(`SELECT id, username, password_hash, profile, created_at FROM users WHERE username = ?`),
		username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &profile, &created)
	if err != nil {
		return nil, notFound(err)
	}
	if profile.Valid && profile.String != "" {
		var p model.UserProfile
		if err := json.Unmarshal([]byte(profile.String), &p); err != nil {
			r.log.WithContext(ctx).Warnf("user %d has a broken profile: %v", u.ID, err)
		} else {
			u.Profile = &p
		}
	}
	u.CreatedAt = fromMillis(created)
	return &u, nil
}

func (r *userRepo) UpdateUserProfile(ctx context.Context, id int64, profile model.UserProfile) error {
	b, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	res, err := r.data.db.ExecContext(ctx, r.data.rebind(`UPDATE users SET profile = ? WHERE id = ?`), string(b), id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func encodeProfile(p *model.UserProfile) (sql.NullString, error) {
	if p == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}
