// Package app wires repositories, services and jobs from config. Both the
// API server and attendancectl build on it.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/hris-attendance-go/internal/config"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/activity"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/company"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/geofence"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/holiday"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/notification"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/overtime"
	"github.com/cmlabs-hris/hris-attendance-go/internal/fixtures"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/clock"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/cron"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/email"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/sse"
	"github.com/cmlabs-hris/hris-attendance-go/internal/repository/memory"
	"github.com/cmlabs-hris/hris-attendance-go/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/hris-attendance-go/internal/service/attendance"
	companyService "github.com/cmlabs-hris/hris-attendance-go/internal/service/company"
	effectService "github.com/cmlabs-hris/hris-attendance-go/internal/service/effect"
	notificationService "github.com/cmlabs-hris/hris-attendance-go/internal/service/notification"
)

// Repositories is the storage layer selected by STORAGE_DRIVER.
type Repositories struct {
	Transactor       database.Transactor
	Company          company.CompanyRepository
	CompanySettings  company.SettingsRepository
	Employee         employee.EmployeeRepository
	Attendance       attendance.AttendanceRepository
	Overtime         overtime.Repository
	LeaveRequest     leave.LeaveRequestRepository
	Holiday          holiday.HolidayRepository
	GeofenceLocation geofence.LocationRepository
	Activity         activity.Repository
	Notification     notification.Repository
}

// App holds the wired services. Close releases the notification workers and
// the database pool.
type App struct {
	Config       *config.Config
	DB           *database.DB
	Repos        Repositories
	Settings     *attendanceService.SettingsResolver
	Company      *companyService.SettingsService
	Attendance   *attendanceService.AttendanceServiceImpl
	Notification notification.Service
	Hub          *sse.Hub[notification.StreamEvent]
	Jobs         *cron.AttendanceJobs
	Clock        clock.Clock
}

// Options overrides parts of the wiring.
type Options struct {
	// Clock defaults to the system clock.
	Clock clock.Clock
}

func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	defaults, err := config.LoadAttendanceDefaults(cfg.Attendance.DefaultsFile)
	if err != nil {
		return nil, err
	}

	clk := opts.Clock
	if clk == nil {
		clk = clock.Real()
	}

	a := &App{Config: cfg, Clock: clk}

	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		a.Repos = newMemoryRepositories()
		slog.Warn("Using in-memory storage; data is lost on exit", "company_id", fixtures.DemoCompanyID)
	default:
		db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolConfig{
			MaxConns: cfg.Database.MaxConns,
			MinConns: cfg.Database.MinConns,
		})
		if err != nil {
			return nil, fmt.Errorf("error connecting to database: %w", err)
		}
		if err := postgresql.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		a.DB = db
		a.Repos = newPostgresRepositories(db)
	}

	emailService, err := email.NewEmailService(cfg.SMTP)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Hub = sse.NewHub[notification.StreamEvent]()
	a.Notification = notificationService.NewNotificationService(a.Repos.Notification, a.Hub, notificationService.Config{
		BatchSize:     cfg.Notification.BatchSize,
		FlushInterval: cfg.Notification.FlushInterval,
		WorkerCount:   cfg.Notification.WorkerCount,
		QueueSize:     cfg.Notification.QueueSize,
	})

	dispatcher := effectService.NewDispatcher(a.Repos.Activity, emailService, a.Notification)
	a.Settings = attendanceService.NewSettingsResolver(defaults, a.Repos.CompanySettings)
	a.Company = companyService.NewSettingsService(defaults, a.Repos.Company, a.Repos.CompanySettings)

	a.Attendance = attendanceService.NewAttendanceService(attendanceService.Deps{
		Transactor:     a.Repos.Transactor,
		AttendanceRepo: a.Repos.Attendance,
		OvertimeRepo:   a.Repos.Overtime,
		EmployeeRepo:   a.Repos.Employee,
		LeaveRepo:      a.Repos.LeaveRequest,
		HolidayRepo:    a.Repos.Holiday,
		LocationRepo:   a.Repos.GeofenceLocation,
		Settings:       a.Settings,
		Dispatcher:     dispatcher,
		Clock:          clk,
	})

	a.Jobs = cron.NewAttendanceJobs(cron.AttendanceJobsDeps{
		Transactor:     a.Repos.Transactor,
		CompanyRepo:    a.Repos.Company,
		EmployeeRepo:   a.Repos.Employee,
		AttendanceRepo: a.Repos.Attendance,
		OvertimeRepo:   a.Repos.Overtime,
		LeaveRepo:      a.Repos.LeaveRequest,
		HolidayRepo:    a.Repos.Holiday,
		Settings:       a.Settings,
		Dispatcher:     dispatcher,
		Clock:          clk,
	})

	return a, nil
}

// Close waits for in-flight attendance side effects, stops the notification
// workers, flushing queued notifications, then closes the pool.
func (a *App) Close() {
	if a.Attendance != nil {
		a.Attendance.Wait()
	}
	if a.Notification != nil {
		a.Notification.Stop()
	}
	if a.DB != nil {
		a.DB.Close()
	}
}

func newPostgresRepositories(db *database.DB) Repositories {
	return Repositories{
		Transactor:       postgresql.NewTransactor(db),
		Company:          postgresql.NewCompanyRepository(db),
		CompanySettings:  postgresql.NewCompanySettingsRepository(db),
		Employee:         postgresql.NewEmployeeRepository(db),
		Attendance:       postgresql.NewAttendanceRepository(db),
		Overtime:         postgresql.NewOvertimeRepository(db),
		LeaveRequest:     postgresql.NewLeaveRequestRepository(db),
		Holiday:          postgresql.NewHolidayRepository(db),
		GeofenceLocation: postgresql.NewLocationRepository(db),
		Activity:         postgresql.NewActivityRepository(db),
		Notification:     postgresql.NewNotificationRepository(db),
	}
}

// newMemoryRepositories seeds the demo tenant from fixtures.Demo.
func newMemoryRepositories() Repositories {
	demo := fixtures.Demo()

	employees := memory.NewEmployeeRepository(demo.Employees...)
	companies := memory.NewCompanyRepository(employees)
	companies.Put(demo.Company)
	// the memory store never fails
	_ = companies.UpsertOverrides(context.Background(), demo.Company.ID, demo.Overrides)

	return Repositories{
		Transactor:       database.NoopTransactor{},
		Company:          companies,
		CompanySettings:  companies,
		Employee:         employees,
		Attendance:       memory.NewAttendanceRepository(),
		Overtime:         memory.NewOvertimeRepository(),
		LeaveRequest:     memory.NewLeaveRequestRepository(),
		Holiday:          memory.NewHolidayRepository(),
		GeofenceLocation: memory.NewLocationRepository(demo.Locations...),
		Activity:         memory.NewActivityRepository(),
		Notification:     memory.NewNotificationRepository(),
	}
}
