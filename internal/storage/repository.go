package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when an application does not exist.
	ErrNotFound = errors.New("application not found")
	// ErrDisabled is returned by the disabled repository.
	ErrDisabled = errors.New("storage is disabled")
)

const DefaultListLimit = 20

type Repository interface {
	SaveApplication(ctx context.Context, app *Application) error
	SaveMatches(ctx context.Context, applicationID uint, matches []Match) error
	ListRecentApplications(ctx context.Context, limit int) ([]Application, error)
	ListMatches(ctx context.Context, applicationID uint) ([]Match, error)
	MatchedFoundationIDs(ctx context.Context, email string) ([]string, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) SaveApplication(ctx context.Context, app *Application) error {
	if err := r.db.WithContext(ctx).Create(app).Error; err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	return nil
}

func (r *repository) SaveMatches(ctx context.Context, applicationID uint, matches []Match) error {
	if len(matches) == 0 {
		return nil
	}

	for i := range matches {
		matches[i].ApplicationID = applicationID
	}

	if err := r.db.WithContext(ctx).Create(&matches).Error; err != nil {
		return fmt.Errorf("failed to create matches: %w", err)
	}
	return nil
}

func (r *repository) ListRecentApplications(ctx context.Context, limit int) ([]Application, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	var apps []Application
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&apps).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}

	return apps, nil
}

func (r *repository) ListMatches(ctx context.Context, applicationID uint) ([]Match, error) {
	db := r.db.WithContext(ctx)

	var app Application
	if err := db.First(&app, applicationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrNotFound, applicationID)
		}
		return nil, fmt.Errorf("failed to find application: %w", err)
	}

	var matches []Match
	err := db.
		Where("application_id = ?", applicationID).
		Order("score DESC").
		Order("id ASC").
		Find(&matches).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}

	return matches, nil
}

func (r *repository) MatchedFoundationIDs(ctx context.Context, email string) ([]string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return []string{}, nil
	}

	var ids []string
	err := r.db.WithContext(ctx).
		Model(&Match{}).
		Joins("JOIN applications ON applications.id = matches.application_id").
		Where("LOWER(applications.email) = ?", email).
		Distinct().
		Pluck("matches.foundation_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list matched foundations: %w", err)
	}

	sort.Strings(ids)
	return ids, nil
}

type disabled struct{}

// Disabled is used when no database is configured. Saves are no-ops and
// reads fail with ErrDisabled.
var Disabled Repository = disabled{}

func (disabled) SaveApplication(context.Context, *Application) error { return nil }

func (disabled) SaveMatches(context.Context, uint, []Match) error { return nil }

func (disabled) ListRecentApplications(context.Context, int) ([]Application, error) {
	return nil, ErrDisabled
}

func (disabled) ListMatches(context.Context, uint) ([]Match, error) {
	return nil, ErrDisabled
}

func (disabled) MatchedFoundationIDs(context.Context, string) ([]string, error) {
	return []string{}, nil
}
