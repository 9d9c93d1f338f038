package usecase

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/iWorld-y/invest_radar/app/advisor/internal/conf"
	"github.com/iWorld-y/invest_radar/app/advisor/internal/domain"
	"github.com/iWorld-y/invest_radar/app/advisor/internal/repo"
	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/model"
)

const (
	minPasswordLen  = 6
	defaultTokenTTL = 24 * time.Hour
)

// UserUseCase 用户业务逻辑
type UserUseCase struct {
	repo     repo.UserRepo
	log      *log.Helper
	jwtKey   string
	tokenTTL time.Duration
	now      func() time.Time
}

// NewUserUseCase 创建用户业务逻辑实例
func NewUserUseCase(repo repo.UserRepo, auth *conf.Auth, logger log.Logger) *UserUseCase {
	uc := &UserUseCase{
		repo:     repo,
		log:      log.NewHelper(logger),
		jwtKey:   JWTKey(auth),
		tokenTTL: defaultTokenTTL,
		now:      time.Now,
	}
	if auth != nil && auth.TokenTtl != "" {
		if d, err := time.ParseDuration(auth.TokenTtl); err == nil && d > 0 {
			uc.tokenTTL = d
		}
	}
	return uc
}

// JWTKey 返回签名密钥，未配置时使用默认值
func JWTKey(auth *conf.Auth) string {
	if auth != nil && auth.JwtKey != "" {
		return auth.JwtKey
	}
	return "default-secret"
}

// Register 用户注册
func (uc *UserUseCase) Register(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return errors.BadRequest("INVALID_INPUT", "username is required")
	}
	if len(password) < minPasswordLen {
		return errors.BadRequest("INVALID_INPUT", "password must be at least 6 characters")
	}

	// 使用 bcrypt 对密码进行哈希处理
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.InternalServer("INTERNAL", err.Error())
	}
	u := &domain.User{
		Username:     username,
		PasswordHash: string(hashedPassword),
	}
	if err := uc.repo.CreateUser(ctx, u); err != nil {
		if stderrors.Is(err, repo.ErrConflict) {
			return errors.Conflict("USER_EXISTS", "username already taken")
		}
		return errors.InternalServer("INTERNAL", err.Error())
	}
	uc.log.WithContext(ctx).Infof("user registered: %s", username)
	return nil
}

// Login 用户登录，返回 HS256 签名的 JWT
func (uc *UserUseCase) Login(ctx context.Context, username, password string) (string, error) {
	u, err := uc.repo.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if stderrors.Is(err, repo.ErrNotFound) {
			return "", errors.Unauthorized("AUTH_FAILED", "invalid username or password")
		}
		return "", errors.InternalServer("INTERNAL", err.Error())
	}
	// 验证密码哈希
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", errors.Unauthorized("AUTH_FAILED", "invalid username or password")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": u.Username,
		"exp":      uc.now().Add(uc.tokenTTL).Unix(),
	})
	return token.SignedString([]byte(uc.jwtKey))
}

// GetProfile 获取用户信息
func (uc *UserUseCase) GetProfile(ctx context.Context, username string) (*domain.User, error) {
	return uc.user(ctx, username)
}

// UpdateProfile 校验并保存投资画像
func (uc *UserUseCase) UpdateProfile(ctx context.Context, username string, profile model.UserProfile) error {
	if err := model.Validate(profile); err != nil {
		return errors.BadRequest("INVALID_INPUT", err.Error())
	}
	u, err := uc.user(ctx, username)
	if err != nil {
		return err
	}
	if err := uc.repo.UpdateUserProfile(ctx, u.ID, profile); err != nil {
		return errors.InternalServer("INTERNAL", err.Error())
	}
	return nil
}

func (uc *UserUseCase) user(ctx context.Context, username string) (*domain.User, error) {
	u, err := uc.repo.GetUserByUsername(ctx, username)
	if err != nil {
		if stderrors.Is(err, repo.ErrNotFound) {
			return nil, errors.Unauthorized("AUTH_FAILED", "user no longer exists")
		}
		return nil, errors.InternalServer("INTERNAL", err.Error())
	}
	return u, nil
}
