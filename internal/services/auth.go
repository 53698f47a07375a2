package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yungbote/greenlight-backend/internal/pkg/ctxutil"
	"github.com/yungbote/greenlight-backend/internal/pkg/logger"
)

type AuthConfig struct {
	JWTSecret string
	Issuer    string
	Audience  string
	Leeway    time.Duration
}

// IdentityClaims is the access token minted by the hosted identity provider.
type IdentityClaims struct {
	Email        string `json:"email"`
	UserMetadata struct {
		FullName string `json:"full_name"`
		Name     string `json:"name"`
	} `json:"user_metadata"`
	jwt.RegisteredClaims
}

// DisplayName prefers full_name, then name; the profile layer falls back to
// the email local part.
func (c *IdentityClaims) DisplayName() string {
	if n := strings.TrimSpace(c.UserMetadata.FullName); n != "" {
		return n
	}
	return strings.TrimSpace(c.UserMetadata.Name)
}

type AuthService interface {
	VerifyToken(tokenString string) (*IdentityClaims, uuid.UUID, error)
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
}

type authService struct {
	log      *logger.Logger
	cfg      AuthConfig
	profiles ProfileService
}

func NewAuthService(log *logger.Logger, cfg AuthConfig, profiles ProfileService) AuthService {
	return &authService{
		log:      log.With("service", "AuthService"),
		cfg:      cfg,
		profiles: profiles,
	}
}

func (as *authService) VerifyToken(tokenString string) (*IdentityClaims, uuid.UUID, error) {
	if strings.TrimSpace(as.cfg.JWTSecret) == "" {
		return nil, uuid.Nil, fmt.Errorf("auth secret not configured")
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(as.cfg.Leeway),
	}
	if iss := strings.TrimSpace(as.cfg.Issuer); iss != "" {
		opts = append(opts, jwt.WithIssuer(iss))
	}
	if aud := strings.TrimSpace(as.cfg.Audience); aud != "" {
		opts = append(opts, jwt.WithAudience(aud))
	}
	claims := &IdentityClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(as.cfg.JWTSecret), nil
	}, opts...)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("invalid token: %w", err)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("invalid token subject: %w", err)
	}
	return claims, userID, nil
}

// SetContextFromToken verifies the token, makes sure a profile exists for its
// subject and attaches the caller to ctx.
func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	claims, userID, err := as.VerifyToken(tokenString)
	if err != nil {
		return ctx, err
	}
	p, err := as.profiles.EnsureProfile(ctx, userID, claims.Email, claims.DisplayName())
	if err != nil {
		as.log.Error("ensure profile failed", "user_id", userID, "error", err)
		return ctx, fmt.Errorf("load profile: %w", err)
	}
	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{
		UserID: p.ID,
		Email:  p.Email,
		Name:   p.Name,
		Role:   string(p.Role),
	}), nil
}
