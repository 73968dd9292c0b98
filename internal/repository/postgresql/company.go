package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/company"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
)

type companyRepositoryImpl struct {
	db *database.DB
}

func NewCompanyRepository(db *database.DB) company.CompanyRepository {
	return &companyRepositoryImpl{db: db}
}

// GetByID implements company.CompanyRepository.
func (c *companyRepositoryImpl) GetByID(ctx context.Context, id string) (company.Company, error) {
	q := GetQuerier(ctx, c.db)

	query := `SELECT id, name, username, is_active, created_at, updated_at FROM companies WHERE id = $1`

	var comp company.Company
	err := q.QueryRow(ctx, query, id).Scan(
		&comp.ID, &comp.Name, &comp.Username, &comp.IsActive, &comp.CreatedAt, &comp.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return company.Company{}, company.ErrCompanyNotFound
		}
		return company.Company{}, fmt.Errorf("failed to get company with id %s: %w", id, err)
	}
	return comp, nil
}

// ListActiveIDs implements company.CompanyRepository.
func (c *companyRepositoryImpl) ListActiveIDs(ctx context.Context) ([]string, error) {
	q := GetQuerier(ctx, c.db)

	query := `
		SELECT DISTINCT e.company_id
		FROM employees e
		JOIN companies c ON c.id = e.company_id
		WHERE e.employment_status = 'active' AND e.deleted_at IS NULL AND c.is_active
		ORDER BY e.company_id
	`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get companies: %w", err)
	}
	defer rows.Close()

	var companyIDs []string
	for rows.Next() {
		var companyID string
		if err := rows.Scan(&companyID); err != nil {
			return nil, fmt.Errorf("failed to scan company id: %w", err)
		}
		companyIDs = append(companyIDs, companyID)
	}
	return companyIDs, rows.Err()
}

type companySettingsRepository struct {
	db *database.DB
}

func NewCompanySettingsRepository(db *database.DB) company.SettingsRepository {
	return &companySettingsRepository{db: db}
}

// GetOverrides implements company.SettingsRepository.
func (c *companySettingsRepository) GetOverrides(ctx context.Context, companyID string) (*company.Overrides, error) {
	q := GetQuerier(ctx, c.db)

	var raw []byte
	err := q.QueryRow(ctx, `SELECT overrides FROM company_attendance_settings WHERE company_id = $1`, companyID).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get company attendance settings: %w", err)
	}

	var overrides company.Overrides
	if err := json.Unmarshal(raw, &overrides); err != nil {
		return nil, fmt.Errorf("failed to unmarshal company attendance settings: %w", err)
	}
	return &overrides, nil
}

// UpsertOverrides implements company.SettingsRepository.
func (c *companySettingsRepository) UpsertOverrides(ctx context.Context, companyID string, overrides company.Overrides) error {
	q := GetQuerier(ctx, c.db)

	raw, err := json.Marshal(overrides)
	if err != nil {
		return fmt.Errorf("failed to marshal company attendance settings: %w", err)
	}

	query := `
		INSERT INTO company_attendance_settings (company_id, overrides, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (company_id)
		DO UPDATE SET overrides = EXCLUDED.overrides, updated_at = NOW()
	`
	if _, err := q.Exec(ctx, query, companyID, raw); err != nil {
		return fmt.Errorf("failed to upsert company attendance settings: %w", err)
	}
	return nil
}
