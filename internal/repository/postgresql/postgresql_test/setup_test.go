package postgresql_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-attendance-go/internal/repository/postgresql"
)

// openTestDB connects to TEST_DATABASE_URL, applies the schema and empties
// every table. Tests are skipped when the variable is unset.
func openTestDB(t *testing.T) *database.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.NewPostgreSQLDB(ctx, dsn, database.PoolConfig{MaxConns: 4, MinConns: 1})
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, postgresql.Migrate(ctx, db))
	require.NoError(t, postgresql.Migrate(ctx, db), "migrate must be repeatable")

	_, err = db.Exec(ctx, `TRUNCATE TABLE
		notifications, notification_preferences, activity_logs, overtime_requests,
		attendances, leave_requests, holidays, geofence_locations, employees,
		company_attendance_settings, companies CASCADE`)
	require.NoError(t, err)

	return db
}

type seeded struct {
	CompanyID  string
	EmployeeID string
	UserID     string
}

func seedEmployee(t *testing.T, db *database.DB) seeded {
	t.Helper()
	ctx := context.Background()

	s := seeded{
		CompanyID:  uuid.NewString(),
		EmployeeID: uuid.NewString(),
		UserID:     uuid.NewString(),
	}

	_, err := db.Exec(ctx,
		`INSERT INTO companies (id, name, username) VALUES ($1, $2, $3)`,
		s.CompanyID, "PT Maju Jaya", "maju-"+s.CompanyID[:8])
	require.NoError(t, err)

	_, err = db.Exec(ctx,
		`INSERT INTO employees (id, user_id, company_id, department_id, full_name, email)
		 VALUES ($1, $2, $3, 'dept-eng', 'Rina Wijaya', 'rina@example.com')`,
		s.EmployeeID, s.UserID, s.CompanyID)
	require.NoError(t, err)

	return s
}
