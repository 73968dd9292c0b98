package http

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"

	"github.com/cmlabs-hris/hris-attendance-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/jwt"
)

// RouterOptions carries the settings the router needs from config.
type RouterOptions struct {
	AllowedOrigins []string
	// AccessLogLevel is the level httplog writes request lines at.
	AccessLogLevel slog.Level
}

func NewRouter(logger *slog.Logger, opts RouterOptions, JWTService jwt.Service, attendanceHandler AttendanceHandler, notificationHandler NotificationHandler) *chi.Mux {
	r := chi.NewRouter()

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  opts.AccessLogLevel,
		Schema: httplog.SchemaECS,
		// long-lived SSE connections are not access-logged
		Skip: func(req *http.Request, respStatus int) bool {
			return req.URL.Path == "/api/v1/notifications/stream"
		},
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {
		// SSE authenticates with a short-lived query token
		r.Get("/notifications/stream", notificationHandler.Stream)

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService.JWTAuth()))

			r.Route("/attendance", func(r chi.Router) {
				r.Use(middleware.RequireEmployee)
				r.Post("/clock-in", attendanceHandler.ClockIn)
				r.Post("/clock-out", attendanceHandler.ClockOut)
				r.Get("/today", attendanceHandler.Today)
				r.Get("/my", attendanceHandler.GetMyAttendance)
				r.Get("/settings", attendanceHandler.Settings)
				r.Post("/overtime/confirm", attendanceHandler.ConfirmOvertime)
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", notificationHandler.List)
				r.Post("/read", notificationHandler.MarkRead)
				r.Get("/sse-token", notificationHandler.SSEToken)
			})
		})
	})
	return r
}

// NewLogger builds the JSON logger used for access logs, with ECS field names.
func NewLogger(handlerOpts *slog.HandlerOptions, w io.Writer, app, version, env string) *slog.Logger {
	logFormat := httplog.SchemaECS.Concise(false)
	opts := &slog.HandlerOptions{ReplaceAttr: logFormat.ReplaceAttr}
	if handlerOpts != nil {
		opts.Level = handlerOpts.Level
		opts.AddSource = handlerOpts.AddSource
	}
	return slog.New(slog.NewJSONHandler(w, opts)).With(
		slog.String("app", app),
		slog.String("version", version),
		slog.String("env", env),
	)
}
