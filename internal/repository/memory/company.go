package memory

import (
	"context"
	"sync"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/company"
)

// CompanyRepository serves companies and their attendance overrides.
// Active companies are derived from the employee store.
type CompanyRepository struct {
	mu        sync.RWMutex
	companies map[string]company.Company
	overrides map[string]company.Overrides
	employees *EmployeeRepository
}

func NewCompanyRepository(employees *EmployeeRepository) *CompanyRepository {
	return &CompanyRepository{
		companies: make(map[string]company.Company),
		overrides: make(map[string]company.Overrides),
		employees: employees,
	}
}

func (r *CompanyRepository) Put(c company.Company) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.companies[c.ID] = c
}

func (r *CompanyRepository) GetByID(ctx context.Context, id string) (company.Company, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.companies[id]
	if !ok {
		return company.Company{}, company.ErrCompanyNotFound
	}
	return c, nil
}

func (r *CompanyRepository) ListActiveIDs(ctx context.Context) ([]string, error) {
	ids := r.employees.CompanyIDs()

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := ids[:0]
	for _, id := range ids {
		if c, ok := r.companies[id]; ok && !c.IsActive {
			continue
		}
		out = append(out, id)
	}
	return out, nil
}

func (r *CompanyRepository) GetOverrides(ctx context.Context, companyID string) (*company.Overrides, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.overrides[companyID]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (r *CompanyRepository) UpsertOverrides(ctx context.Context, companyID string, overrides company.Overrides) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overrides[companyID] = overrides
	return nil
}
