package company

import "context"

type CompanyRepository interface {
	GetByID(ctx context.Context, id string) (Company, error)
	// ListActiveIDs returns every company that has at least one active employee.
	ListActiveIDs(ctx context.Context) ([]string, error)
}

// SettingsRepository stores the company layer of attendance settings.
type SettingsRepository interface {
	// GetOverrides returns nil, nil when the company has no overrides.
	GetOverrides(ctx context.Context, companyID string) (*Overrides, error)
	UpsertOverrides(ctx context.Context, companyID string, overrides Overrides) error
}
