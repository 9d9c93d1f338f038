package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/invest_radar/app/advisor/internal/conf"
	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/model"
)

func TestUserUseCase_RegisterAndLogin(t *testing.T) {
	uc := NewUserUseCase(newMockUserRepo(), &conf.Auth{JwtKey: "k", TokenTtl: "1h"}, log.DefaultLogger)
	ctx := context.Background()

	require.NoError(t, uc.Register(ctx, " alice ", "secret1"))

	token, err := uc.Login(ctx, "alice", "secret1")
	require.NoError(t, err)

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) { return []byte("k"), nil })
	require.NoError(t, err)
	assert.Equal(t, "alice", claims["username"])
	exp, err := claims.GetExpirationTime()
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp.Time, time.Minute)
}

func TestUserUseCase_RegisterErrors(t *testing.T) {
	uc := NewUserUseCase(newMockUserRepo(), nil, log.DefaultLogger)
	ctx := context.Background()

	err := uc.Register(ctx, "", "secret1")
	assert.Equal(t, int32(400), errors.FromError(err).Code)

	err = uc.Register(ctx, "bob", "123")
	assert.Equal(t, int32(400), errors.FromError(err).Code)

	require.NoError(t, uc.Register(ctx, "bob", "secret1"))
	err = uc.Register(ctx, "bob", "secret2")
	assert.Equal(t, "USER_EXISTS", errors.FromError(err).Reason)
}

func TestUserUseCase_LoginFailures(t *testing.T) {
	uc := NewUserUseCase(newMockUserRepo(), nil, log.DefaultLogger)
	ctx := context.Background()
	require.NoError(t, uc.Register(ctx, "carol", "secret1"))

	_, err := uc.Login(ctx, "carol", "wrong-pass")
	assert.True(t, errors.IsUnauthorized(err))

	_, err = uc.Login(ctx, "nobody", "secret1")
	assert.True(t, errors.IsUnauthorized(err))
}

func TestUserUseCase_UpdateProfile(t *testing.T) {
	uc := NewUserUseCase(newMockUserRepo(), nil, log.DefaultLogger)
	ctx := context.Background()
	require.NoError(t, uc.Register(ctx, "dave", "secret1"))

	err := uc.UpdateProfile(ctx, "dave", model.UserProfile{Age: 0, RiskTolerance: "moderate", InvestmentHorizon: "long"})
	assert.Equal(t, "INVALID_INPUT", errors.FromError(err).Reason)

	p := model.UserProfile{Age: 35, RiskTolerance: model.RiskModerate, InvestmentHorizon: model.HorizonLong}
	require.NoError(t, uc.UpdateProfile(ctx, "dave", p))

	u, err := uc.GetProfile(ctx, "dave")
	require.NoError(t, err)
	require.NotNil(t, u.Profile)
	assert.Equal(t, p, *u.Profile)
}

func TestJWTKeyDefault(t *testing.T) {
	assert.Equal(t, "default-secret", JWTKey(nil))
	assert.Equal(t, "x", JWTKey(&conf.Auth{JwtKey: "x"}))
}
