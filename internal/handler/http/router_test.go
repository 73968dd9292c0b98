package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/effect"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/notification"
	"github.com/cmlabs-hris/hris-attendance-go/internal/fixtures"
	"github.com/cmlabs-hris/hris-attendance-go/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/clock"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/sse"
	"github.com/cmlabs-hris/hris-attendance-go/internal/repository/memory"
	attendanceService "github.com/cmlabs-hris/hris-attendance-go/internal/service/attendance"
	notificationService "github.com/cmlabs-hris/hris-attendance-go/internal/service/notification"
)

const handlerTestSecret = "test-secret-key-for-jwt"

type discardDispatcher struct{}

func (discardDispatcher) Dispatch(ctx context.Context, effects []effect.Effect) {}

type testServer struct {
	handler  http.Handler
	clock    *clock.Fixed
	jwt      jwt.Service
	notifSvc notification.Service
	demo     fixtures.DemoData
}

func newTestServer(t *testing.T, now time.Time) *testServer {
	t.Helper()

	demo := fixtures.Demo()
	employees := memory.NewEmployeeRepository(demo.Employees...)
	companies := memory.NewCompanyRepository(employees)
	companies.Put(demo.Company)
	require.NoError(t, companies.UpsertOverrides(context.Background(), demo.Company.ID, demo.Overrides))

	clk := clock.NewFixed(now)
	svc := attendanceService.NewAttendanceService(attendanceService.Deps{
		AttendanceRepo: memory.NewAttendanceRepository(),
		OvertimeRepo:   memory.NewOvertimeRepository(),
		EmployeeRepo:   employees,
		LeaveRepo:      memory.NewLeaveRequestRepository(),
		HolidayRepo:    memory.NewHolidayRepository(),
		LocationRepo:   memory.NewLocationRepository(demo.Locations...),
		Settings:       attendanceService.NewSettingsResolver(fixtures.DefaultAttendanceSettings(), companies),
		Dispatcher:     discardDispatcher{},
		Clock:          clk,
	})

	jwtSvc, err := jwt.NewJWTService(handlerTestSecret, "1h")
	require.NoError(t, err)

	notifSvc := notificationService.NewNotificationService(memory.NewNotificationRepository(), sse.NewHub[notification.StreamEvent](), notificationService.Config{
		FlushInterval: 10 * time.Millisecond,
		WorkerCount:   1,
	})
	t.Cleanup(notifSvc.Stop)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := NewRouter(logger, RouterOptions{}, jwtSvc,
		NewAttendanceHandler(svc),
		NewNotificationHandler(notifSvc, jwtSvc),
	)

	return &testServer{handler: router, clock: clk, jwt: jwtSvc, notifSvc: notifSvc, demo: demo}
}

func (s *testServer) tokenFor(t *testing.T, employeeIndex int) string {
	t.Helper()
	emp := s.demo.Employees[employeeIndex]
	token, _, err := s.jwt.GenerateAccessToken(jwt.Claims{
		UserID:     *emp.UserID,
		EmployeeID: emp.ID,
		CompanyID:  emp.CompanyID,
	})
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, response.Response) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var resp response.Response
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	}
	return rec, resp
}

func jakartaTime(t *testing.T, hour, minute int) time.Time {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)
	return time.Date(2024, time.June, 3, hour, minute, 0, 0, loc)
}

func dataMap(t *testing.T, resp response.Response) map[string]interface{} {
	t.Helper()
	m, ok := resp.Data.(map[string]interface{})
	require.True(t, ok, "data is %T", resp.Data)
	return m
}

var atHeadOffice = map[string]float64{"latitude": -6.1755, "longitude": 106.8273}

func TestAttendanceHandler_ClockInOutFlow(t *testing.T) {
	s := newTestServer(t, jakartaTime(t, 9, 5))
	token := s.tokenFor(t, 0)

	rec, resp := s.do(t, http.MethodPost, "/api/v1/attendance/clock-in", token, atHeadOffice)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	in := dataMap(t, resp)
	assert.Equal(t, "in-progress", in["status"])
	assert.Equal(t, "on-time", in["check_in_status"])
	assert.Equal(t, true, in["geofence_validated"])

	rec, _ = s.do(t, http.MethodPost, "/api/v1/attendance/clock-in", token, atHeadOffice)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, resp = s.do(t, http.MethodGet, "/api/v1/attendance/today", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "in-progress", dataMap(t, resp)["status"])

	s.clock.Set(jakartaTime(t, 18, 5))
	rec, resp = s.do(t, http.MethodPost, "/api/v1/attendance/clock-out", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := dataMap(t, resp)
	assert.Equal(t, "present", out["status"])
	assert.Equal(t, "on-time", out["check_out_status"])
	assert.InDelta(t, 8.0, out["work_hours"], 0.001)

	rec, resp = s.do(t, http.MethodGet, "/api/v1/attendance/my?limit=10", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	items, ok := resp.Data.([]interface{})
	require.True(t, ok)
	assert.Len(t, items, 1)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(1), resp.Meta.TotalItems)
}

func TestAttendanceHandler_ClockInWithoutBody(t *testing.T) {
	s := newTestServer(t, jakartaTime(t, 8, 50))

	// geofence is enabled but not strict, so a missing location is accepted
	rec, resp := s.do(t, http.MethodPost, "/api/v1/attendance/clock-in", s.tokenFor(t, 0), nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, false, dataMap(t, resp)["geofence_validated"])
}

func TestAttendanceHandler_TodayWithoutRecord(t *testing.T) {
	s := newTestServer(t, jakartaTime(t, 8, 0))

	rec, resp := s.do(t, http.MethodGet, "/api/v1/attendance/today", s.tokenFor(t, 0), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
	assert.Nil(t, resp.Data)
}

func TestAttendanceHandler_Validation(t *testing.T) {
	s := newTestServer(t, jakartaTime(t, 9, 0))

	rec, resp := s.do(t, http.MethodPost, "/api/v1/attendance/clock-in", s.tokenFor(t, 0),
		map[string]float64{"latitude": 91})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.NotNil(t, resp.Error)
	assert.Contains(t, resp.Error.Details, "latitude")
	assert.Contains(t, resp.Error.Details, "location")

	rec, _ = s.do(t, http.MethodGet, "/api/v1/attendance/my?status=sleeping", s.tokenFor(t, 0), nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestAttendanceHandler_MalformedBody(t *testing.T) {
	s := newTestServer(t, jakartaTime(t, 9, 0))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/attendance/clock-in", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.tokenFor(t, 0))
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAttendanceHandler_ClockOutBeforeClockIn(t *testing.T) {
	s := newTestServer(t, jakartaTime(t, 17, 0))

	rec, resp := s.do(t, http.MethodPost, "/api/v1/attendance/clock-out", s.tokenFor(t, 0), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NOT_CLOCKED_IN", resp.Error.Code)
}

func TestAttendanceHandler_Weekend(t *testing.T) {
	s := newTestServer(t, jakartaTime(t, 9, 0).AddDate(0, 0, 5))

	rec, resp := s.do(t, http.MethodPost, "/api/v1/attendance/clock-in", s.tokenFor(t, 0), atHeadOffice)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NOT_A_WORKING_DAY", resp.Error.Code)
}

func TestAttendanceHandler_ConfirmOvertimeWithoutPrompt(t *testing.T) {
	s := newTestServer(t, jakartaTime(t, 18, 40))

	rec, _ := s.do(t, http.MethodPost, "/api/v1/attendance/overtime/confirm", s.tokenFor(t, 0), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAttendanceHandler_EmployeeSettings(t *testing.T) {
	s := newTestServer(t, jakartaTime(t, 9, 0))

	rec, resp := s.do(t, http.MethodGet, "/api/v1/attendance/settings", s.tokenFor(t, 1), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	settings := dataMap(t, resp)
	assert.Equal(t, "07:00", settings["check_in_time"])
	assert.Equal(t, "16:00", settings["check_out_time"])
	assert.EqualValues(t, 10, settings["late_threshold_minutes"])
}

func TestRouter_RequiresAuthentication(t *testing.T) {
	s := newTestServer(t, jakartaTime(t, 9, 0))

	rec, _ := s.do(t, http.MethodPost, "/api/v1/attendance/clock-in", "", atHeadOffice)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	adminToken, _, err := s.jwt.GenerateAccessToken(jwt.Claims{UserID: "admin"})
	require.NoError(t, err)
	rec, _ = s.do(t, http.MethodGet, "/api/v1/attendance/today", adminToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestNotificationHandler_ListAndRead(t *testing.T) {
	s := newTestServer(t, jakartaTime(t, 9, 0))
	userID := *s.demo.Employees[0].UserID

	require.NoError(t, s.notifSvc.Enqueue(context.Background(), notification.Request{
		CompanyID:   s.demo.Company.ID,
		RecipientID: userID,
		Type:        notification.TypeShiftReminder,
		Title:       "Shift starts soon",
		Message:     "Your shift starts at 09:00.",
	}))

	token := s.tokenFor(t, 0)
	var ids []string
	require.Eventually(t, func() bool {
		_, resp := s.do(t, http.MethodGet, "/api/v1/notifications", token, nil)
		list := dataMap(t, resp)
		items, _ := list["notifications"].([]interface{})
		ids = ids[:0]
		for _, item := range items {
			ids = append(ids, item.(map[string]interface{})["id"].(string))
		}
		return len(ids) == 1
	}, time.Second, 10*time.Millisecond)

	rec, _ := s.do(t, http.MethodPost, "/api/v1/notifications/read", token, map[string][]string{"notification_ids": ids})
	require.Equal(t, http.StatusOK, rec.Code)

	_, resp := s.do(t, http.MethodGet, "/api/v1/notifications?unread_only=true", token, nil)
	assert.EqualValues(t, 0, dataMap(t, resp)["unread_count"])

	rec, _ = s.do(t, http.MethodPost, "/api/v1/notifications/read", token, map[string][]string{"notification_ids": {}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestNotificationHandler_StreamRejectsBadToken(t *testing.T) {
	s := newTestServer(t, jakartaTime(t, 9, 0))

	rec, _ := s.do(t, http.MethodGet, "/api/v1/notifications/stream", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/notifications/stream?token="+s.tokenFor(t, 0), "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestNotificationHandler_SSEToken(t *testing.T) {
	s := newTestServer(t, jakartaTime(t, 9, 0))

	rec, resp := s.do(t, http.MethodGet, "/api/v1/notifications/sse-token", s.tokenFor(t, 0), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	token, _ := dataMap(t, resp)["token"].(string)

	userID, err := s.jwt.ValidateSSEToken(token)
	require.NoError(t, err)
	assert.Equal(t, *s.demo.Employees[0].UserID, userID)
}

func TestNotificationHandler_StreamDeliversNotifications(t *testing.T) {
	s := newTestServer(t, jakartaTime(t, 9, 0))
	server := httptest.NewServer(s.handler)
	defer server.Close()
	userID := *s.demo.Employees[0].UserID

	sseToken, _, err := s.jwt.GenerateSSEToken(userID)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/api/v1/notifications/stream?token="+sseToken, nil)
	require.NoError(t, err)
	resp, err := server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewReader(resp.Body)
	readEvent := func() (string, string) {
		var name, data string
		for {
			line, err := lines.ReadString('\n')
			require.NoError(t, err)
			line = strings.TrimRight(line, "\n")
			switch {
			case strings.HasPrefix(line, "event: "):
				name = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				data = strings.TrimPrefix(line, "data: ")
			case line == "" && name != "":
				return name, data
			}
		}
	}

	name, _ := readEvent()
	require.Equal(t, "connected", name)

	require.NoError(t, s.notifSvc.Enqueue(ctx, notification.Request{
		CompanyID:   s.demo.Company.ID,
		RecipientID: userID,
		Type:        notification.TypeOvertimePrompt,
		Priority:    notification.PriorityHigh,
		Title:       "Still working?",
	}))

	name, data := readEvent()
	assert.Equal(t, "notification", name)
	var view notification.View
	require.NoError(t, json.Unmarshal([]byte(data), &view))
	assert.Equal(t, "Still working?", view.Title)
	assert.Equal(t, notification.TypeOvertimePrompt, view.Type)
}
