package company

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/company"
)

// SettingsService manages the company layer of attendance settings.
type SettingsService struct {
	defaults     company.Settings
	companyRepo  company.CompanyRepository
	settingsRepo company.SettingsRepository
}

func NewSettingsService(defaults company.Settings, companyRepo company.CompanyRepository, settingsRepo company.SettingsRepository) *SettingsService {
	return &SettingsService{
		defaults:     defaults,
		companyRepo:  companyRepo,
		settingsRepo: settingsRepo,
	}
}

// GetAttendanceSettings returns the stored overrides (nil when none) and the
// company-level settings they resolve to.
func (s *SettingsService) GetAttendanceSettings(ctx context.Context, companyID string) (*company.Overrides, company.Settings, error) {
	if _, err := s.companyRepo.GetByID(ctx, companyID); err != nil {
		return nil, company.Settings{}, err
	}

	overrides, err := s.settingsRepo.GetOverrides(ctx, companyID)
	if err != nil {
		return nil, company.Settings{}, fmt.Errorf("failed to get company attendance settings: %w", err)
	}
	return overrides, company.Resolve(s.defaults, overrides), nil
}

// UpdateAttendanceSettings replaces the company overrides. The merged result
// must validate before anything is stored.
func (s *SettingsService) UpdateAttendanceSettings(ctx context.Context, companyID string, overrides company.Overrides) (company.Settings, error) {
	if _, err := s.companyRepo.GetByID(ctx, companyID); err != nil {
		return company.Settings{}, err
	}

	resolved := company.Resolve(s.defaults, &overrides)
	if err := resolved.Validate(); err != nil {
		return company.Settings{}, errors.Join(company.ErrInvalidSettings, err)
	}

	if err := s.settingsRepo.UpsertOverrides(ctx, companyID, overrides); err != nil {
		return company.Settings{}, fmt.Errorf("failed to save company attendance settings: %w", err)
	}

	slog.Info("company attendance settings updated", "company_id", companyID, "timezone", resolved.Timezone)
	return resolved, nil
}
