package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/buildcrew/workforce-backend/internal/config"
	"github.com/buildcrew/workforce-backend/internal/domain/attendance"
	"github.com/buildcrew/workforce-backend/internal/domain/payroll"
	appHTTP "github.com/buildcrew/workforce-backend/internal/handler/http"
	"github.com/buildcrew/workforce-backend/internal/pkg/cron"
	"github.com/buildcrew/workforce-backend/internal/pkg/database"
	"github.com/buildcrew/workforce-backend/internal/pkg/jwt"
	"github.com/buildcrew/workforce-backend/internal/pkg/realtime"
	"github.com/buildcrew/workforce-backend/internal/pkg/sse"
	"github.com/buildcrew/workforce-backend/internal/repository/postgresql"
	activityService "github.com/buildcrew/workforce-backend/internal/service/activity"
	attendanceService "github.com/buildcrew/workforce-backend/internal/service/attendance"
	payrollService "github.com/buildcrew/workforce-backend/internal/service/payroll"
)

// changeBridge carries attendance changes from punches to the payroll scheduler.
type changeBridge interface {
	attendance.ChangePublisher
	attendance.ChangeSource
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.App.LogLevel),
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dsn := cfg.DatabaseURL()
	if cfg.App.RunMigrations {
		if err := database.RunMigrations(dsn); err != nil {
			slog.Error("Failed to run migrations", "error", err)
			os.Exit(1)
		}
	}

	db, err := database.NewPostgreSQLDB(dsn, database.PoolOptions{
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		slog.Error("Error connecting to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	employeeRepo := postgresql.NewEmployeeRepository(db)
	siteRepo := postgresql.NewSiteRepository(db)
	attendanceRepo := postgresql.NewAttendanceRepository(db)
	payrollRepo := postgresql.NewPayrollRepository(db)
	stateRepo := postgresql.NewAutomationStateRepository(db)
	activityRepo := postgresql.NewActivityRepository(db)

	var bridge changeBridge
	switch cfg.Realtime.Driver {
	case "redis":
		redisBridge, err := realtime.NewRedisBridge(realtime.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Channel:  cfg.Realtime.Channel,
		})
		if err != nil {
			slog.Error("Failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer redisBridge.Close()
		if err := redisBridge.Start(ctx); err != nil {
			slog.Error("Failed to subscribe to attendance changes", "error", err)
			os.Exit(1)
		}
		bridge = redisBridge
	default:
		bridge = realtime.NewMemoryBridge()
	}

	hub := sse.NewHub()
	activityLogger := activityService.NewActivityLogger(activityRepo, activityService.Config{})
	defer activityLogger.Stop()

	location := cfg.Payroll.Location()
	policy := payroll.Policy{
		DailyRegularHours:  cfg.Payroll.DailyRegularHours,
		OvertimeMultiplier: cfg.Payroll.OvertimeMultiplier,
		DeductionRate:      cfg.Payroll.DeductionRate,
	}

	calculator := payrollService.NewCalculator(employeeRepo, attendanceRepo, payrollRepo, payrollService.CalculatorConfig{
		Policy:             policy,
		PersistenceTimeout: cfg.Payroll.PersistenceTimeout,
	})
	summaryService := payrollService.NewSummaryService(employeeRepo, payrollRepo, cfg.Payroll.PersistenceTimeout)

	scheduler, err := payrollService.NewScheduler(
		calculator,
		employeeRepo,
		stateRepo,
		summaryService,
		bridge,
		activityLogger,
		hub,
		payrollService.AutomationConfig{
			Active:               cfg.Payroll.AutomationActive,
			CutoffSchedule:       cfg.Payroll.CutoffCron,
			Location:             location,
			WeekStart:            cfg.Payroll.WeekStart,
			Debounce:             cfg.Payroll.Debounce,
			ReactiveTarget:       payroll.ReactiveTarget(cfg.Payroll.ReactiveTarget),
			BulkWorkers:          cfg.Payroll.BulkWorkers,
			PersistenceTimeout:   cfg.Payroll.PersistenceTimeout,
			RetryAttempts:        cfg.Payroll.RetryAttempts,
			RetryInitialInterval: cfg.Payroll.RetryInitialInterval,
		},
	)
	if err != nil {
		slog.Error("Failed to create payroll scheduler", "error", err)
		os.Exit(1)
	}
	if err := scheduler.Start(ctx); err != nil {
		slog.Error("Failed to start payroll scheduler", "error", err)
		os.Exit(1)
	}
	defer scheduler.Stop()

	cronScheduler := cron.NewScheduler()
	cron.NewPayrollJobs(scheduler, cfg.Payroll.CutoffCheckInterval).RegisterJobs(cronScheduler)
	cronScheduler.Start(ctx)
	defer cronScheduler.Stop()

	attendanceSvc := attendanceService.NewAttendanceService(
		postgresql.NewTransactor(db),
		attendanceRepo,
		employeeRepo,
		siteRepo,
		bridge,
		activityLogger,
		attendanceService.Config{
			Location:          location,
			DailyRegularHours: cfg.Payroll.DailyRegularHours,
		},
	)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret)
	attendanceHandler := appHTTP.NewAttendanceHandler(attendanceSvc)
	payrollHandler := appHTTP.NewPayrollHandler(scheduler, summaryService, hub)

	router := appHTTP.NewRouter(cfg, JWTService, attendanceHandler, payrollHandler)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// Open event streams end when the process is signalled.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	go func() {
		slog.Info("Server running", "addr", server.Addr, "env", cfg.App.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
