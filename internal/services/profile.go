package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"gorm.io/gorm"

	"github.com/adopaw/adopaw-backend/internal/domain/profile"
	"github.com/adopaw/adopaw-backend/internal/pkg/apierr"
	"github.com/adopaw/adopaw-backend/internal/pkg/logger"
	"github.com/adopaw/adopaw-backend/internal/repos"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type ProfileService interface {
	Create(ctx context.Context, p *profile.Profile) (*profile.Profile, error)
	GetBySupaID(ctx context.Context, supaID string) (*profile.Profile, error)
	// Update applies the fields map, ignoring attempts to change supaId or
	// email.
	Update(ctx context.Context, supaID string, fields map[string]any) (*profile.Profile, error)
	Delete(ctx context.Context, supaID string) error
}

type profileService struct {
	db       *gorm.DB
	log      *logger.Logger
	profiles repos.ProfileRepo
}

func NewProfileService(db *gorm.DB, log *logger.Logger, profiles repos.ProfileRepo) ProfileService {
	return &profileService{
		db:       db,
		log:      log.With("service", "ProfileService"),
		profiles: profiles,
	}
}

func (ps *profileService) Create(ctx context.Context, p *profile.Profile) (*profile.Profile, error) {
	p.SupaID = strings.TrimSpace(p.SupaID)
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))

	if p.SupaID == "" || p.Email == "" {
		return nil, apierr.BadRequest("missing_fields", fmt.Errorf("supaId and email are required"))
	}
	if !emailPattern.MatchString(p.Email) {
		return nil, apierr.BadRequest("invalid_email", fmt.Errorf("invalid email format"))
	}

	existing, err := ps.profiles.GetBySupaID(ctx, nil, p.SupaID)
	if err != nil {
		return nil, apierr.Store(fmt.Errorf("check existing profile: %w", err))
	}
	if existing != nil {
		return nil, apierr.Conflict(fmt.Errorf("profile already exists for supaId %s", p.SupaID))
	}

	if err := ps.profiles.Create(ctx, nil, p); err != nil {
		return nil, apierr.Store(fmt.Errorf("create profile: %w", err))
	}
	return p, nil
}

func (ps *profileService) GetBySupaID(ctx context.Context, supaID string) (*profile.Profile, error) {
	p, err := ps.profiles.GetBySupaID(ctx, nil, supaID)
	if err != nil {
		return nil, apierr.Store(fmt.Errorf("load profile: %w", err))
	}
	if p == nil {
		return nil, apierr.NotFound(fmt.Errorf("no profile for supaId %s", supaID))
	}
	return p, nil
}

func (ps *profileService) Update(ctx context.Context, supaID string, fields map[string]any) (*profile.Profile, error) {
	p, err := ps.profiles.UpdateBySupaID(ctx, nil, supaID, fields)
	if err != nil {
		return nil, apierr.Store(fmt.Errorf("update profile: %w", err))
	}
	if p == nil {
		return nil, apierr.NotFound(fmt.Errorf("no profile for supaId %s", supaID))
	}
	return p, nil
}

func (ps *profileService) Delete(ctx context.Context, supaID string) error {
	deleted, err := ps.profiles.DeleteBySupaID(ctx, nil, supaID)
	if err != nil {
		return apierr.Store(fmt.Errorf("delete profile: %w", err))
	}
	if !deleted {
		return apierr.NotFound(fmt.Errorf("no profile for supaId %s", supaID))
	}
	return nil
}
