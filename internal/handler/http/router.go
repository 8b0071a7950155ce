package http

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/buildcrew/workforce-backend/internal/config"
	"github.com/buildcrew/workforce-backend/internal/handler/http/middleware"
	"github.com/buildcrew/workforce-backend/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

func NewRouter(cfg *config.Config, JWTService jwt.Service, attendanceHandler AttendanceHandler, payrollHandler PayrollHandler) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(cfg.App.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "workforce-backend"),
		slog.String("version", "v1.0.0"),
		slog.String("env", cfg.App.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.App.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {
		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService.JWTAuth()))

			r.Route("/attendance", func(r chi.Router) {
				r.With(chiMiddleware.AllowContentType("application/json")).Post("/clock-in", attendanceHandler.ClockIn)
				r.Post("/lunch-start", attendanceHandler.StartLunch)
				r.Post("/lunch-end", attendanceHandler.EndLunch)
				r.With(chiMiddleware.AllowContentType("application/json")).Post("/clock-out", attendanceHandler.ClockOut)
				r.Get("/me", attendanceHandler.GetMyAttendance)
			})

			r.Route("/payroll", func(r chi.Router) {
				r.Use(middleware.RequireManager)

				r.Get("/automation", payrollHandler.GetAutomation)
				r.With(middleware.RequireAdmin).Put("/automation", payrollHandler.SetAutomation)

				r.Post("/recalculate", payrollHandler.RecalculateAll)
				r.Post("/recalculate/{employeeID}", payrollHandler.RecalculateEmployee)

				r.Get("/summary", payrollHandler.Summary)
				r.Get("/estimations", payrollHandler.Estimations)
				r.Get("/stream", payrollHandler.Stream)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "route not found", http.StatusNotFound)
	})

	return r
}
