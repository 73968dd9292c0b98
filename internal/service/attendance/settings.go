package attendance

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/company"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/employee"
)

// SettingsResolver produces the effective settings for one employee:
// global defaults, then company overrides, then the employee's own overrides.
type SettingsResolver struct {
	defaults     company.Settings
	settingsRepo company.SettingsRepository
}

func NewSettingsResolver(defaults company.Settings, settingsRepo company.SettingsRepository) *SettingsResolver {
	return &SettingsResolver{defaults: defaults, settingsRepo: settingsRepo}
}

func (r *SettingsResolver) Defaults() company.Settings {
	return company.Resolve(r.defaults)
}

// CompanyOverrides returns the company layer, nil when the company has none.
func (r *SettingsResolver) CompanyOverrides(ctx context.Context, companyID string) (*company.Overrides, error) {
	overrides, err := r.settingsRepo.GetOverrides(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get company attendance settings: %w", err)
	}
	return overrides, nil
}

// Merge resolves an employee's settings against an already loaded company layer.
func (r *SettingsResolver) Merge(companyOverrides *company.Overrides, emp employee.Employee) company.Settings {
	return company.Resolve(r.defaults, companyOverrides, emp.AttendanceOverrides)
}

func (r *SettingsResolver) ForEmployee(ctx context.Context, emp employee.Employee) (company.Settings, error) {
	overrides, err := r.CompanyOverrides(ctx, emp.CompanyID)
	if err != nil {
		return company.Settings{}, err
	}
	return r.Merge(overrides, emp), nil
}
