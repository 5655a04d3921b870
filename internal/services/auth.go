package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/adopaw/adopaw-backend/internal/domain/profile"
	"github.com/adopaw/adopaw-backend/internal/pkg/apierr"
	"github.com/adopaw/adopaw-backend/internal/pkg/ctxutil"
	"github.com/adopaw/adopaw-backend/internal/pkg/logger"
	"github.com/adopaw/adopaw-backend/internal/repos"
)

type AuthService interface {
	// SetContextFromToken verifies the bearer token and attaches the resolved
	// identity to the context. An empty token returns the context unchanged.
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
}

type authClaims struct {
	jwt.RegisteredClaims
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata"`
}

type authService struct {
	log         *logger.Logger
	profileRepo repos.ProfileRepo
	jwtSecret   []byte
	autoCreate  bool
}

func NewAuthService(log *logger.Logger, profileRepo repos.ProfileRepo, jwtSecret string, autoCreate bool) AuthService {
	return &authService{
		log:         log.With("service", "AuthService"),
		profileRepo: profileRepo,
		jwtSecret:   []byte(jwtSecret),
		autoCreate:  autoCreate,
	}
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return ctx, nil
	}

	claims := &authClaims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return as.jwtSecret, nil
	})
	if err != nil {
		return ctx, apierr.Unauthorized(fmt.Errorf("parse token: %w", err))
	}
	if !parsed.Valid {
		return ctx, apierr.Unauthorized(fmt.Errorf("invalid token"))
	}

	supaID := strings.TrimSpace(claims.Subject)
	email := strings.ToLower(strings.TrimSpace(claims.Email))
	if email == "" {
		if v, ok := claims.UserMetadata["email"].(string); ok {
			email = strings.ToLower(strings.TrimSpace(v))
		}
	}
	if supaID == "" && email == "" {
		return ctx, apierr.Unauthorized(fmt.Errorf("token carries no subject or email"))
	}

	p, err := as.resolveProfile(ctx, supaID, email, claims)
	if err != nil {
		return ctx, err
	}

	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{
		UserID: p.ID,
		SupaID: p.SupaID,
		Email:  p.Email,
	}), nil
}

func (as *authService) resolveProfile(ctx context.Context, supaID, email string, claims *authClaims) (*profile.Profile, error) {
	if supaID != "" {
		p, err := as.profileRepo.GetBySupaID(ctx, nil, supaID)
		if err != nil {
			return nil, apierr.Store(fmt.Errorf("load profile by subject: %w", err))
		}
		if p != nil {
			return p, nil
		}
	}
	if email != "" {
		p, err := as.profileRepo.GetByEmail(ctx, nil, email)
		if err != nil {
			return nil, apierr.Store(fmt.Errorf("load profile by email: %w", err))
		}
		if p != nil {
			return p, nil
		}
	}

	if !as.autoCreate {
		return nil, apierr.Unauthorized(fmt.Errorf("no profile for authenticated identity"))
	}

	name := ""
	if v, ok := claims.UserMetadata["name"].(string); ok {
		name = strings.TrimSpace(v)
	}
	if name == "" && email != "" {
		name = strings.SplitN(email, "@", 2)[0]
	}
	p := &profile.Profile{SupaID: supaID, Email: email, Name: name}
	if err := as.profileRepo.Create(ctx, nil, p); err != nil {
		// A concurrent first request may have created it already.
		if existing, lookupErr := as.profileRepo.GetBySupaID(ctx, nil, supaID); lookupErr == nil && existing != nil {
			return existing, nil
		}
		return nil, apierr.Store(fmt.Errorf("auto-create profile: %w", err))
	}
	as.log.Info("auto-created profile", "supaID", supaID, "email", email)
	return p, nil
}
