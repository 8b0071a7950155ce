package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/buildcrew/workforce-backend/internal/domain/activity"
	"github.com/buildcrew/workforce-backend/internal/domain/attendance"
	"github.com/buildcrew/workforce-backend/internal/domain/employee"
	"github.com/buildcrew/workforce-backend/internal/domain/payroll"
	"github.com/buildcrew/workforce-backend/internal/pkg/sse"
	robfigcron "github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
)

// AutomationConfig holds the scheduler settings. Zero values fall back to defaults.
type AutomationConfig struct {
	Active               bool
	CutoffSchedule       string
	Location             *time.Location
	WeekStart            time.Weekday
	Debounce             time.Duration
	ReactiveTarget       payroll.ReactiveTarget
	BulkWorkers          int
	PersistenceTimeout   time.Duration
	RetryAttempts        int
	RetryInitialInterval time.Duration
	Clock                Clock
}

type debounceKey struct {
	employeeID string
	weekStart  time.Time
}

type pendingRun struct {
	timer Timer
	seq   uint64
}

// Scheduler decides when estimations are recomputed: at the weekly cutoff, after
// attendance changes settle, and on operator request.
type Scheduler struct {
	calculator   payroll.Calculator
	employeeRepo employee.EmployeeRepository
	stateRepo    payroll.AutomationStateRepository
	summary      payroll.SummaryService
	changes      attendance.ChangeSource
	activity     activity.Logger
	hub          *sse.Hub

	cfg      AutomationConfig
	schedule robfigcron.Schedule
	clock    Clock

	mu             sync.Mutex
	active         bool
	nextCutoff     time.Time
	lastProcessing *time.Time
	timers         map[debounceKey]pendingRun
	seq            uint64
	started        bool
	stopped        bool
	unsubscribe    func()
	runCtx         context.Context
	cancelRuns     context.CancelFunc
	inflight       sync.WaitGroup

	// cutoffMu serializes cutoff processing; persistMu orders state writes.
	cutoffMu  sync.Mutex
	persistMu sync.Mutex
}

var cronParser = robfigcron.NewParser(robfigcron.Minute | robfigcron.Hour | robfigcron.Dom | robfigcron.Month | robfigcron.Dow)

func NewScheduler(
	calculator payroll.Calculator,
	employeeRepo employee.EmployeeRepository,
	stateRepo payroll.AutomationStateRepository,
	summary payroll.SummaryService,
	changes attendance.ChangeSource,
	activityLogger activity.Logger,
	hub *sse.Hub,
	cfg AutomationConfig,
) (*Scheduler, error) {
	if cfg.CutoffSchedule == "" {
		cfg.CutoffSchedule = "59 23 * * 0"
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 2 * time.Second
	}
	if cfg.ReactiveTarget == "" {
		cfg.ReactiveTarget = payroll.ReactiveTargetRecordWeek
	}
	if cfg.BulkWorkers <= 0 {
		cfg.BulkWorkers = 8
	}
	if cfg.PersistenceTimeout <= 0 {
		cfg.PersistenceTimeout = defaultPersistenceTimeout
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 3
	}
	if cfg.RetryInitialInterval <= 0 {
		cfg.RetryInitialInterval = time.Second
	}
	if cfg.Clock == nil {
		cfg.Clock = systemClock{}
	}

	schedule, err := cronParser.Parse(cfg.CutoffSchedule)
	if err != nil {
		return nil, fmt.Errorf("invalid cutoff schedule %q: %w", cfg.CutoffSchedule, err)
	}

	runCtx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		calculator:   calculator,
		employeeRepo: employeeRepo,
		stateRepo:    stateRepo,
		summary:      summary,
		changes:      changes,
		activity:     activityLogger,
		hub:          hub,
		cfg:          cfg,
		schedule:     schedule,
		clock:        cfg.Clock,
		active:       cfg.Active,
		timers:       make(map[debounceKey]pendingRun),
		runCtx:       runCtx,
		cancelRuns:   cancel,
	}, nil
}

// Start restores the persisted state and subscribes to attendance changes.
// A persisted toggle overrides the configured initial flag.
func (s *Scheduler) Start(ctx context.Context) error {
	state, err := withTimeout(ctx, s.cfg.PersistenceTimeout, s.stateRepo.GetState)
	switch {
	case errors.Is(err, payroll.ErrAutomationStateNotFound):
		s.mu.Lock()
		s.nextCutoff = s.nextCutoffAfter(s.clock.Now())
		s.mu.Unlock()
		if err := s.persistState(ctx); err != nil {
			return err
		}
	case err != nil:
		return persistenceError("load automation state", err)
	default:
		s.mu.Lock()
		s.active = state.Active
		s.lastProcessing = state.LastProcessing
		if state.NextCutoff != nil {
			s.nextCutoff = *state.NextCutoff
		} else {
			s.nextCutoff = s.nextCutoffAfter(s.clock.Now())
		}
		s.mu.Unlock()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}
	s.started = true
	s.unsubscribe = s.changes.Subscribe(s.onChange)

	slog.Info("Payroll automation started",
		"active", s.active,
		"next_cutoff", s.nextCutoff,
		"reactive_target", s.cfg.ReactiveTarget,
		"debounce", s.cfg.Debounce,
	)
	return nil
}

// Stop drops pending debounced runs, cancels running ones and waits for them to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.cancelTimersLocked()
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	s.mu.Unlock()

	s.cancelRuns()
	s.inflight.Wait()
	slog.Info("Payroll automation stopped")
}

func (s *Scheduler) Status(ctx context.Context) (payroll.AutomationStatusResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp := payroll.AutomationStatusResponse{
		Active:      s.active,
		CurrentWeek: s.currentWeek().Start.Format(time.DateOnly),
		PendingRuns: len(s.timers),
	}
	if s.lastProcessing != nil {
		v := s.lastProcessing.In(s.cfg.Location).Format(time.RFC3339)
		resp.LastProcessing = &v
	}
	if !s.nextCutoff.IsZero() {
		v := s.nextCutoff.In(s.cfg.Location).Format(time.RFC3339)
		resp.NextCutoff = &v
	}
	return resp, nil
}

// SetActive persists the toggle. Pausing drops pending debounced runs.
func (s *Scheduler) SetActive(ctx context.Context, actor activity.Actor, active bool) (payroll.AutomationStatusResponse, error) {
	s.persistMu.Lock()
	s.mu.Lock()
	state := s.stateLocked()
	s.mu.Unlock()
	state.Active = active

	_, err := withTimeout(ctx, s.cfg.PersistenceTimeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.stateRepo.SaveState(ctx, state)
	})
	if err != nil {
		s.persistMu.Unlock()
		return payroll.AutomationStatusResponse{}, persistenceError("save automation state", err)
	}

	s.mu.Lock()
	s.active = active
	if !active {
		s.cancelTimersLocked()
	}
	s.mu.Unlock()
	s.persistMu.Unlock()

	action, verb := "payroll.automation.resume", "resumed"
	if !active {
		action, verb = "payroll.automation.pause", "paused"
	}
	s.logActivity(ctx, actor, action, fmt.Sprintf("%s %s payroll automation", actor.Label(), verb))
	slog.Info("Payroll automation toggled", "active", active, "actor", actor.ID)

	return s.Status(ctx)
}

// RecalculateAll recomputes the current week for every active employee regardless
// of the automation flag.
func (s *Scheduler) RecalculateAll(ctx context.Context, actor activity.Actor) (payroll.BatchResult, error) {
	s.mu.Lock()
	week := s.currentWeek()
	s.mu.Unlock()

	result, err := s.runBatch(ctx, week, payroll.TriggerManualBulk)
	if err != nil {
		return payroll.BatchResult{}, err
	}

	s.logActivity(ctx, actor, "payroll.recalculate_all", fmt.Sprintf(
		"%s recalculated payroll for week %s: %d of %d succeeded",
		actor.Label(), week, result.Succeeded, result.Attempted,
	))
	return result, nil
}

// RecalculateEmployee recomputes the current week for one employee regardless of
// the automation flag, retrying storage failures.
func (s *Scheduler) RecalculateEmployee(ctx context.Context, actor activity.Actor, employeeID string) (payroll.EstimationResponse, error) {
	s.mu.Lock()
	week := s.currentWeek()
	s.mu.Unlock()

	est, err := s.calculateWithRetry(ctx, employeeID, week)
	if err != nil {
		return payroll.EstimationResponse{}, err
	}
	s.completeRun(ctx, week)

	name := employeeID
	if est.EmployeeName != nil {
		name = *est.EmployeeName
	}
	s.logActivity(ctx, actor, "payroll.recalculate_employee", fmt.Sprintf(
		"%s recalculated payroll of %s for week %s", actor.Label(), name, week,
	))
	return payroll.ToEstimationResponse(est), nil
}

// RunDueCutoff processes every cutoff that has passed, oldest first. Cutoffs that
// pass while automation is paused are skipped, not deferred.
func (s *Scheduler) RunDueCutoff(ctx context.Context) error {
	s.cutoffMu.Lock()
	defer s.cutoffMu.Unlock()

	for {
		now := s.clock.Now()

		s.mu.Lock()
		due := s.nextCutoff
		active := s.active
		s.mu.Unlock()

		if due.IsZero() || now.Before(due) {
			return nil
		}

		// The cutoff closes the week holding the day before it.
		week := payroll.WeekOf(due.In(s.cfg.Location).AddDate(0, 0, -1), s.cfg.WeekStart)

		if active {
			result, err := s.runBatch(ctx, week, payroll.TriggerCutoff)
			if err != nil {
				return fmt.Errorf("cutoff %s: %w", due.Format(time.RFC3339), err)
			}
			s.logActivity(ctx, activity.SystemActor, "payroll.cutoff", fmt.Sprintf(
				"Weekly cutoff processed week %s: %d of %d succeeded",
				week, result.Succeeded, result.Attempted,
			))
		} else {
			slog.Info("Payroll cutoff skipped, automation paused", "week", week.String(), "cutoff", due)
		}

		s.mu.Lock()
		s.nextCutoff = s.nextCutoffAfter(due)
		s.mu.Unlock()
		if err := s.persistState(ctx); err != nil {
			return err
		}
	}
}

// runBatch recomputes week for all active employees. Individual failures are
// collected in the result and never abort the batch.
func (s *Scheduler) runBatch(ctx context.Context, week payroll.Week, trigger payroll.Trigger) (payroll.BatchResult, error) {
	employees, err := withTimeout(ctx, s.cfg.PersistenceTimeout, s.employeeRepo.ListActive)
	if err != nil {
		return payroll.BatchResult{}, persistenceError("list active employees", err)
	}

	var (
		mu        sync.Mutex
		succeeded int
		failed    = make([]string, 0)
	)

	g := new(errgroup.Group)
	g.SetLimit(s.cfg.BulkWorkers)
	for _, emp := range employees {
		g.Go(func() error {
			_, err := s.calculator.Calculate(ctx, emp.ID, week.Start)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed = append(failed, emp.ID)
				slog.Warn("Payroll recompute failed",
					"employee_id", emp.ID, "week", week.String(), "trigger", trigger, "error", err)
				return nil
			}
			succeeded++
			return nil
		})
	}
	_ = g.Wait()

	sort.Strings(failed)
	result := payroll.BatchResult{
		WeekStart: week.Start.Format(time.DateOnly),
		Trigger:   trigger,
		Attempted: len(employees),
		Succeeded: succeeded,
		Failed:    failed,
	}

	slog.Info("Payroll batch finished",
		"trigger", trigger, "week", week.String(),
		"attempted", result.Attempted, "succeeded", result.Succeeded, "failed", len(result.Failed))

	s.completeRun(ctx, week)
	return result, nil
}

func (s *Scheduler) calculateWithRetry(ctx context.Context, employeeID string, week payroll.Week) (payroll.Estimation, error) {
	interval := s.cfg.RetryInitialInterval

	var lastErr error
	for attempt := 1; attempt <= s.cfg.RetryAttempts; attempt++ {
		est, err := s.calculator.Calculate(ctx, employeeID, week.Start)
		if err == nil {
			return est, nil
		}
		if !payroll.IsRetryable(err) {
			return payroll.Estimation{}, err
		}
		lastErr = err

		slog.Warn("Payroll recompute attempt failed",
			"employee_id", employeeID, "week", week.String(), "attempt", attempt, "error", err)

		// Wait before retrying (exponential backoff)
		if attempt < s.cfg.RetryAttempts {
			if err := sleep(ctx, s.clock, interval); err != nil {
				return payroll.Estimation{}, persistenceError("retry interrupted", err)
			}
			interval *= 2
		}
	}

	return payroll.Estimation{}, fmt.Errorf("recompute after %d attempts: %w", s.cfg.RetryAttempts, lastErr)
}

func (s *Scheduler) onChange(change attendance.Change) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active || s.stopped || change.EmployeeID == "" {
		return
	}

	week := s.reactiveWeek(change)
	key := debounceKey{employeeID: change.EmployeeID, weekStart: week.Start}

	if pending, ok := s.timers[key]; ok {
		pending.timer.Stop()
	}

	s.seq++
	seq := s.seq
	s.timers[key] = pendingRun{
		seq:   seq,
		timer: s.clock.AfterFunc(s.cfg.Debounce, func() { s.fireReactive(key, seq) }),
	}
}

func (s *Scheduler) fireReactive(key debounceKey, seq uint64) {
	s.mu.Lock()
	pending, ok := s.timers[key]
	if !ok || pending.seq != seq {
		s.mu.Unlock()
		return
	}
	delete(s.timers, key)
	if !s.active || s.stopped {
		s.mu.Unlock()
		return
	}
	s.inflight.Add(1)
	ctx := s.runCtx
	s.mu.Unlock()
	defer s.inflight.Done()

	week := payroll.NewWeek(key.weekStart)
	if _, err := s.calculateWithRetry(ctx, key.employeeID, week); err != nil {
		slog.Error("Reactive payroll recompute dropped",
			"employee_id", key.employeeID, "week", week.String(), "error", err)
		return
	}
	s.completeRun(ctx, week)
}

// completeRun records the processing time and pushes a fresh summary of week to
// dashboard subscribers.
func (s *Scheduler) completeRun(ctx context.Context, week payroll.Week) {
	now := s.clock.Now()
	s.mu.Lock()
	s.lastProcessing = &now
	s.mu.Unlock()

	if err := s.persistState(ctx); err != nil {
		slog.Error("Failed to persist payroll automation state", "error", err)
	}

	if s.hub == nil || s.hub.SubscriberCount(sse.TopicPayrollSummary) == 0 {
		return
	}
	summary, err := s.summary.Summary(ctx, week)
	if err != nil {
		slog.Warn("Failed to refresh payroll summary", "week", week.String(), "error", err)
		return
	}
	s.hub.Publish(sse.TopicPayrollSummary, sse.Event{Event: "payroll.summary", Data: summary})
}

func (s *Scheduler) persistState(ctx context.Context) error {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	s.mu.Lock()
	state := s.stateLocked()
	s.mu.Unlock()

	_, err := withTimeout(ctx, s.cfg.PersistenceTimeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.stateRepo.SaveState(ctx, state)
	})
	if err != nil {
		return persistenceError("save automation state", err)
	}
	return nil
}

func (s *Scheduler) stateLocked() payroll.AutomationState {
	state := payroll.AutomationState{
		Active:         s.active,
		LastProcessing: s.lastProcessing,
	}
	if !s.nextCutoff.IsZero() {
		next := s.nextCutoff
		state.NextCutoff = &next
	}
	return state
}

func (s *Scheduler) cancelTimersLocked() {
	for key, pending := range s.timers {
		pending.timer.Stop()
		delete(s.timers, key)
	}
}

func (s *Scheduler) reactiveWeek(change attendance.Change) payroll.Week {
	if s.cfg.ReactiveTarget == payroll.ReactiveTargetCurrentWeek || change.Date.IsZero() {
		return s.currentWeek()
	}
	return payroll.WeekOf(change.Date, s.cfg.WeekStart)
}

// CurrentWeek is the week containing now in the payroll time zone.
func (s *Scheduler) CurrentWeek() payroll.Week {
	return s.currentWeek()
}

func (s *Scheduler) currentWeek() payroll.Week {
	return payroll.WeekOf(s.clock.Now().In(s.cfg.Location), s.cfg.WeekStart)
}

func (s *Scheduler) nextCutoffAfter(t time.Time) time.Time {
	return s.schedule.Next(t.In(s.cfg.Location))
}

func (s *Scheduler) logActivity(ctx context.Context, actor activity.Actor, action, description string) {
	if s.activity == nil {
		return
	}
	s.activity.Log(ctx, activity.Entry{
		Actor:       actor.Label(),
		Action:      action,
		Module:      activity.ModulePayroll,
		Description: description,
	})
}
