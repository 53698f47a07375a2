package services

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/greenlight-backend/internal/domain/user"
	"github.com/yungbote/greenlight-backend/internal/pkg/ctxutil"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret, sub string, exp time.Time) string {
	t.Helper()
	claims := &IdentityClaims{
		Email: "lee@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	claims.UserMetadata.FullName = "Lee Minji"
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestVerifyToken(t *testing.T) {
	e := newEnv(t)
	svc := NewAuthService(newTestLogger(t), AuthConfig{JWTSecret: testSecret}, e.profile)
	sub := uuid.New()

	claims, id, err := svc.VerifyToken(signToken(t, testSecret, sub.String(), time.Now().Add(time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, sub, id)
	assert.Equal(t, "Lee Minji", claims.DisplayName())

	cases := map[string]string{
		"expired":      signToken(t, testSecret, sub.String(), time.Now().Add(-time.Hour)),
		"wrong secret": signToken(t, "other", sub.String(), time.Now().Add(time.Hour)),
		"bad subject":  signToken(t, testSecret, "not-a-uuid", time.Now().Add(time.Hour)),
		"garbage":      "abc.def.ghi",
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := svc.VerifyToken(tok)
			assert.Error(t, err)
		})
	}
}

func TestVerifyToken_RequiresSecret(t *testing.T) {
	e := newEnv(t)
	svc := NewAuthService(newTestLogger(t), AuthConfig{}, e.profile)
	_, _, err := svc.VerifyToken(signToken(t, testSecret, uuid.NewString(), time.Now().Add(time.Hour)))
	assert.Error(t, err)
}

func TestSetContextFromToken_CreatesPendingProfile(t *testing.T) {
	e := newEnv(t)
	svc := NewAuthService(newTestLogger(t), AuthConfig{JWTSecret: testSecret}, e.profile)
	sub := uuid.New()
	tok := signToken(t, testSecret, sub.String(), time.Now().Add(time.Hour))

	ctx, err := svc.SetContextFromToken(context.Background(), tok)
	require.NoError(t, err)
	rd := ctxutil.GetRequestData(ctx)
	require.NotNil(t, rd)
	assert.Equal(t, sub, rd.UserID)
	assert.Equal(t, string(user.RolePending), rd.Role)
	assert.Equal(t, "Lee Minji", rd.Name)

	// A second sign-in reuses the profile.
	_, err = svc.SetContextFromToken(context.Background(), tok)
	require.NoError(t, err)
	p, err := e.profiles.GetByID(dbcOf(context.Background()), sub)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, user.RolePending, p.Role)
}
