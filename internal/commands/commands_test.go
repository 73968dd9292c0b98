package commands

import (
	"bytes"
	"context"
	"os"
	"testing"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/company"
	"github.com/cmlabs-hris/hris-attendance-go/internal/fixtures"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/jwt"
)

func setMemoryEnv(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("JWT_SECRET_KEY", "test-secret")
	t.Setenv("NOTIFICATION_FLUSH_INTERVAL", "10ms")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestTickCmd_At(t *testing.T) {
	setMemoryEnv(t)

	out, err := execute(t, "tick", "--at", "2024-06-03T10:00:00+07:00")
	require.NoError(t, err)
	assert.Contains(t, out, "tick at 2024-06-03T10:00:00+07:00")
	assert.Contains(t, out, "companies:        1")
	assert.Contains(t, out, "marked absent:    1")
}

func TestTickCmd_InvalidAt(t *testing.T) {
	setMemoryEnv(t)

	_, err := execute(t, "tick", "--at", "tomorrow")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RFC3339")
}

func TestResolveSettingsCmd(t *testing.T) {
	setMemoryEnv(t)
	budi := fixtures.Demo().Employees[1]

	out, err := execute(t, "resolve-settings", "--employee", budi.ID)
	require.NoError(t, err)

	var doc struct {
		Attendance struct {
			CheckInTime          string `yaml:"check_in_time"`
			CheckOutTime         string `yaml:"check_out_time"`
			LateThresholdMinutes int    `yaml:"late_threshold_minutes"`
			Timezone             string `yaml:"timezone"`
		} `yaml:"attendance"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "07:00", doc.Attendance.CheckInTime)
	assert.Equal(t, "16:00", doc.Attendance.CheckOutTime)
	assert.Equal(t, 10, doc.Attendance.LateThresholdMinutes)
	assert.Equal(t, "Asia/Jakarta", doc.Attendance.Timezone)
}

func TestResolveSettingsCmd_UnknownEmployee(t *testing.T) {
	setMemoryEnv(t)

	_, err := execute(t, "resolve-settings", "--employee", "nobody")
	assert.Error(t, err)
}

type companySettingsDoc struct {
	Overrides struct {
		CheckInTime          string   `yaml:"check_in_time"`
		LateThresholdMinutes int      `yaml:"late_threshold_minutes"`
		WorkingDays          []string `yaml:"working_days"`
	} `yaml:"overrides"`
	Effective struct {
		CheckInTime          string `yaml:"check_in_time"`
		LateThresholdMinutes int    `yaml:"late_threshold_minutes"`
	} `yaml:"effective"`
}

func TestCompanySettingsCmd_Show(t *testing.T) {
	setMemoryEnv(t)

	out, err := execute(t, "company-settings", "show", "--company", fixtures.DemoCompanyID)
	require.NoError(t, err)

	var doc companySettingsDoc
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	assert.Equal(t, 10, doc.Overrides.LateThresholdMinutes)
	assert.Equal(t, 10, doc.Effective.LateThresholdMinutes)
	assert.Equal(t, "09:00", doc.Effective.CheckInTime)
}

func TestCompanySettingsCmd_Set(t *testing.T) {
	setMemoryEnv(t)
	require.NoError(t, os.WriteFile("overrides.yaml", []byte("check_in_time: \"08:30\"\nworking_days: [mon, tue, wed]\n"), 0o600))

	out, err := execute(t, "company-settings", "set", "--company", fixtures.DemoCompanyID, "-f", "overrides.yaml")
	require.NoError(t, err)

	var doc companySettingsDoc
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "08:30", doc.Overrides.CheckInTime)
	assert.Equal(t, []string{"monday", "tuesday", "wednesday"}, doc.Overrides.WorkingDays)
	assert.Equal(t, "08:30", doc.Effective.CheckInTime)
	assert.Equal(t, 15, doc.Effective.LateThresholdMinutes)
}

func TestCompanySettingsCmd_SetInvalid(t *testing.T) {
	setMemoryEnv(t)
	require.NoError(t, os.WriteFile("overrides.yaml", []byte("half_day_hours: 20\n"), 0o600))

	_, err := execute(t, "company-settings", "set", "--company", fixtures.DemoCompanyID, "-f", "overrides.yaml")
	assert.ErrorIs(t, err, company.ErrInvalidSettings)
}

func TestTokenCmd(t *testing.T) {
	setMemoryEnv(t)
	rina := fixtures.Demo().Employees[0]

	out, err := execute(t, "token", "--employee", rina.ID)
	require.NoError(t, err)

	svc, err := jwt.NewJWTService("test-secret", "1h")
	require.NoError(t, err)
	token, err := svc.JWTAuth().Decode(string(bytes.TrimSpace([]byte(out))))
	require.NoError(t, err)

	employeeID, _ := token.Get("employee_id")
	assert.Equal(t, rina.ID, employeeID)
}

func TestMigrateCmd_RequiresPostgres(t *testing.T) {
	setMemoryEnv(t)

	_, err := execute(t, "migrate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORAGE_DRIVER")
}

func TestVersionCmd(t *testing.T) {
	SetVersion("1.2.3", "abc123", "2024-06-03")
	t.Cleanup(func() { SetVersion("dev", "none", "unknown") })

	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "attendancectl 1.2.3 (commit abc123, built 2024-06-03)\n", out)
}
