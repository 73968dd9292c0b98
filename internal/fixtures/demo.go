package fixtures

import (
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/company"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/geofence"
)

// ==========================================
// DEMO DATA (memory storage driver)
// ==========================================

func strPtr(s string) *string { return &s }

const (
	DemoCompanyID    = "0192f5a0-0000-7000-8000-000000000001"
	DemoDepartmentID = "0192f5a0-0000-7000-8000-0000000000d1"
)

// DemoData is a small tenant used to exercise the service without a database.
type DemoData struct {
	Company   company.Company
	Overrides company.Overrides
	Employees []employee.Employee
	Locations []geofence.Location
}

func Demo() DemoData {
	now := time.Now().UTC()
	lateThreshold := 10

	return DemoData{
		Company: company.Company{
			ID:        DemoCompanyID,
			Name:      "CMLabs Demo",
			Username:  "cmlabs-demo",
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		},
		Overrides: company.Overrides{
			LateThresholdMinutes: &lateThreshold,
		},
		Employees: []employee.Employee{
			{
				ID:               "0192f5a0-0000-7000-8000-0000000000e1",
				UserID:           strPtr("0192f5a0-0000-7000-8000-0000000000a1"),
				CompanyID:        DemoCompanyID,
				DepartmentID:     DemoDepartmentID,
				EmployeeCode:     "2024-0001",
				FullName:         "Rina Wijaya",
				Email:            "rina@example.com",
				EmploymentStatus: employee.EmploymentStatusActive,
				CreatedAt:        now,
				UpdatedAt:        now,
			},
			{
				ID:               "0192f5a0-0000-7000-8000-0000000000e2",
				UserID:           strPtr("0192f5a0-0000-7000-8000-0000000000a2"),
				CompanyID:        DemoCompanyID,
				DepartmentID:     DemoDepartmentID,
				EmployeeCode:     "2024-0002",
				FullName:         "Budi Santoso",
				Email:            "budi@example.com",
				EmploymentStatus: employee.EmploymentStatusActive,
				AttendanceOverrides: &company.Overrides{
					CheckInTime:  timePtr("07:00"),
					CheckOutTime: timePtr("16:00"),
				},
				CreatedAt: now,
				UpdatedAt: now,
			},
		},
		Locations: []geofence.Location{
			{
				ID:           "0192f5a0-0000-7000-8000-0000000000f1",
				CompanyID:    DemoCompanyID,
				Name:         "Head Office",
				Latitude:     -6.1754,
				Longitude:    106.8272,
				RadiusMeters: 200,
				IsActive:     true,
				CreatedAt:    now,
				UpdatedAt:    now,
			},
		},
	}
}

func timePtr(s string) *company.TimeOfDay {
	t := company.MustTimeOfDay(s)
	return &t
}
