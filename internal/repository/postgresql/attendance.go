package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
)

type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}

const attendanceColumns = `
	a.id, a.employee_id, a.company_id, a.date,
	a.check_in, a.check_out, a.check_in_status, a.check_out_status,
	a.work_hours, a.total_logged_hours, a.break_minutes, a.shrinkage_percentage, a.overtime,
	a.status, a.status_reason, a.work_from_home, a.geofence_validated,
	a.check_in_location, a.check_out_location, a.remarks,
	a.created_at, a.updated_at`

func scanAttendance(row pgx.Row) (attendance.Attendance, error) {
	var (
		att                               attendance.Attendance
		checkInStatus, checkOutStatus     *string
		status                            string
		checkInLocation, checkOutLocation []byte
	)

	err := row.Scan(
		&att.ID, &att.EmployeeID, &att.CompanyID, &att.Date,
		&att.CheckIn, &att.CheckOut, &checkInStatus, &checkOutStatus,
		&att.WorkHours, &att.TotalLoggedHours, &att.BreakMinutes, &att.ShrinkagePercentage, &att.Overtime,
		&status, &att.StatusReason, &att.WorkFromHome, &att.GeofenceValidated,
		&checkInLocation, &checkOutLocation, &att.Remarks,
		&att.CreatedAt, &att.UpdatedAt,
	)
	if err != nil {
		return attendance.Attendance{}, err
	}

	att.Status = attendance.Status(status)
	if checkInStatus != nil {
		s := attendance.CheckInStatus(*checkInStatus)
		att.CheckInStatus = &s
	}
	if checkOutStatus != nil {
		s := attendance.CheckOutStatus(*checkOutStatus)
		att.CheckOutStatus = &s
	}
	if att.CheckInLocation, err = decodeLocation(checkInLocation); err != nil {
		return attendance.Attendance{}, err
	}
	if att.CheckOutLocation, err = decodeLocation(checkOutLocation); err != nil {
		return attendance.Attendance{}, err
	}
	return att, nil
}

func decodeLocation(raw []byte) (*attendance.Location, error) {
	if raw == nil {
		return nil, nil
	}
	var loc attendance.Location
	if err := json.Unmarshal(raw, &loc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal location: %w", err)
	}
	return &loc, nil
}

func encodeLocation(loc *attendance.Location) ([]byte, error) {
	if loc == nil {
		return nil, nil
	}
	return json.Marshal(loc)
}

func checkInStatusArg(s *attendance.CheckInStatus) *string {
	if s == nil {
		return nil
	}
	v := string(*s)
	return &v
}

func checkOutStatusArg(s *attendance.CheckOutStatus) *string {
	if s == nil {
		return nil
	}
	v := string(*s)
	return &v
}

// Create implements attendance.AttendanceRepository.
func (a *attendanceRepository) Create(ctx context.Context, newAttendance attendance.Attendance) (attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	checkInLocation, err := encodeLocation(newAttendance.CheckInLocation)
	if err != nil {
		return attendance.Attendance{}, err
	}

	query := `
		INSERT INTO attendances (
			id, employee_id, company_id, date,
			check_in, check_in_status, status, status_reason,
			work_from_home, geofence_validated, check_in_location, remarks
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		) RETURNING created_at, updated_at
	`

	err = q.QueryRow(ctx, query,
		newAttendance.ID,
		newAttendance.EmployeeID,
		newAttendance.CompanyID,
		newAttendance.Date,
		newAttendance.CheckIn,
		checkInStatusArg(newAttendance.CheckInStatus),
		string(newAttendance.Status),
		newAttendance.StatusReason,
		newAttendance.WorkFromHome,
		newAttendance.GeofenceValidated,
		checkInLocation,
		newAttendance.Remarks,
	).Scan(&newAttendance.CreatedAt, &newAttendance.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "attendances_employee_date_key") {
			return attendance.Attendance{}, attendance.ErrDuplicateRecord
		}
		return attendance.Attendance{}, fmt.Errorf("failed to create attendance: %w", err)
	}

	newAttendance.EmployeeName = nil
	return newAttendance, nil
}

// GetByID implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByID(ctx context.Context, id string) (attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + attendanceColumns + ` FROM attendances a WHERE a.id = $1`

	att, err := scanAttendance(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Attendance{}, attendance.ErrAttendanceNotFound
		}
		return attendance.Attendance{}, fmt.Errorf("failed to get attendance by id: %w", err)
	}
	return att, nil
}

// GetByEmployeeAndDate implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + attendanceColumns + ` FROM attendances a WHERE a.employee_id = $1 AND a.date = $2`

	att, err := scanAttendance(q.QueryRow(ctx, query, employeeID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // No existing attendance found
		}
		return nil, fmt.Errorf("failed to get attendance by employee and date: %w", err)
	}
	return &att, nil
}

// StartIfNotCheckedIn implements attendance.AttendanceRepository.
func (a *attendanceRepository) StartIfNotCheckedIn(ctx context.Context, att attendance.Attendance) (bool, error) {
	q := GetQuerier(ctx, a.db)

	checkInLocation, err := encodeLocation(att.CheckInLocation)
	if err != nil {
		return false, err
	}

	query := `
		UPDATE attendances
		SET check_in = $2, check_in_status = $3, status = $4, status_reason = $5,
			work_from_home = $6, geofence_validated = $7, check_in_location = $8,
			remarks = $9, updated_at = NOW()
		WHERE id = $1 AND check_in IS NULL
	`

	tag, err := q.Exec(ctx, query,
		att.ID,
		att.CheckIn,
		checkInStatusArg(att.CheckInStatus),
		string(att.Status),
		att.StatusReason,
		att.WorkFromHome,
		att.GeofenceValidated,
		checkInLocation,
		att.Remarks,
	)
	if err != nil {
		return false, fmt.Errorf("failed to start attendance: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// CloseIfOpen implements attendance.AttendanceRepository.
func (a *attendanceRepository) CloseIfOpen(ctx context.Context, att attendance.Attendance) (bool, error) {
	q := GetQuerier(ctx, a.db)

	checkOutLocation, err := encodeLocation(att.CheckOutLocation)
	if err != nil {
		return false, err
	}

	query := `
		UPDATE attendances
		SET check_out = $2, check_out_status = $3,
			work_hours = $4, total_logged_hours = $5, break_minutes = $6,
			shrinkage_percentage = $7, overtime = $8,
			status = $9, status_reason = $10, check_out_location = $11,
			remarks = $12, updated_at = NOW()
		WHERE id = $1 AND status = 'in-progress' AND check_out IS NULL
	`

	tag, err := q.Exec(ctx, query,
		att.ID,
		att.CheckOut,
		checkOutStatusArg(att.CheckOutStatus),
		att.WorkHours,
		att.TotalLoggedHours,
		att.BreakMinutes,
		att.ShrinkagePercentage,
		att.Overtime,
		string(att.Status),
		att.StatusReason,
		checkOutLocation,
		att.Remarks,
	)
	if err != nil {
		return false, fmt.Errorf("failed to close attendance: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListOpen implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListOpen(ctx context.Context, companyID string, date time.Time) ([]attendance.Attendance, error) {
	return a.list(ctx, `
		WHERE a.company_id = $1 AND a.date = $2
		  AND a.status = 'in-progress' AND a.check_in IS NOT NULL AND a.check_out IS NULL
		ORDER BY a.check_in`, companyID, date)
}

// ListStaleOpen implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListStaleOpen(ctx context.Context, companyID string, before time.Time) ([]attendance.Attendance, error) {
	return a.list(ctx, `
		WHERE a.company_id = $1 AND a.date < $2
		  AND a.status = 'in-progress' AND a.check_in IS NOT NULL AND a.check_out IS NULL
		ORDER BY a.date, a.check_in`, companyID, before)
}

// ListByCompanyAndDate implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListByCompanyAndDate(ctx context.Context, companyID string, date time.Time) ([]attendance.Attendance, error) {
	return a.list(ctx, `WHERE a.company_id = $1 AND a.date = $2`, companyID, date)
}

func (a *attendanceRepository) list(ctx context.Context, where string, args ...interface{}) ([]attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	rows, err := q.Query(ctx, `SELECT `+attendanceColumns+` FROM attendances a `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendances: %w", err)
	}
	defer rows.Close()

	var attendances []attendance.Attendance
	for rows.Next() {
		att, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		attendances = append(attendances, att)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendances: %w", err)
	}
	return attendances, nil
}

var attendanceSortColumns = map[string]string{
	"date":      "a.date",
	"check_in":  "a.check_in",
	"check_out": "a.check_out",
	"status":    "a.status",
}

// GetMyAttendance implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetMyAttendance(ctx context.Context, employeeID string, filter attendance.MyAttendanceFilter) ([]attendance.Attendance, int64, error) {
	q := GetQuerier(ctx, a.db)

	whereClauses := []string{"a.employee_id = $1"}
	args := []interface{}{employeeID}
	argIndex := 2

	if filter.Date != nil && *filter.Date != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("a.date = $%d", argIndex))
		args = append(args, *filter.Date)
		argIndex++
	}
	if filter.StartDate != nil && *filter.StartDate != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("a.date >= $%d", argIndex))
		args = append(args, *filter.StartDate)
		argIndex++
	}
	if filter.EndDate != nil && *filter.EndDate != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("a.date <= $%d", argIndex))
		args = append(args, *filter.EndDate)
		argIndex++
	}
	if filter.Status != nil && *filter.Status != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("a.status = $%d", argIndex))
		args = append(args, *filter.Status)
		argIndex++
	}

	whereSQL := "WHERE " + strings.Join(whereClauses, " AND ")

	var total int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*) FROM attendances a "+whereSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count attendances: %w", err)
	}

	sortColumn, ok := attendanceSortColumns[filter.SortBy]
	if !ok {
		sortColumn = "a.date"
	}
	sortOrder := "DESC"
	if strings.EqualFold(filter.SortOrder, "asc") {
		sortOrder = "ASC"
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := (max(filter.Page, 1) - 1) * limit

	query := fmt.Sprintf(`
		SELECT %s, e.full_name
		FROM attendances a
		JOIN employees e ON e.id = a.employee_id
		%s
		ORDER BY %s %s NULLS LAST, a.id
		LIMIT $%d OFFSET $%d
	`, attendanceColumns, whereSQL, sortColumn, sortOrder, argIndex, argIndex+1)
	args = append(args, limit, offset)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query my attendance: %w", err)
	}
	defer rows.Close()

	var attendances []attendance.Attendance
	for rows.Next() {
		var name string
		att, err := scanAttendance(namedRow{rows: rows, name: &name})
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan attendance: %w", err)
		}
		att.EmployeeName = &name
		attendances = append(attendances, att)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate attendances: %w", err)
	}

	return attendances, total, nil
}

// namedRow appends the joined employee name to an attendance scan.
type namedRow struct {
	rows pgx.Rows
	name *string
}

func (r namedRow) Scan(dest ...any) error {
	return r.rows.Scan(append(dest, r.name)...)
}
