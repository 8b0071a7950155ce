package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/buildcrew/workforce-backend/internal/domain/payroll"
	"github.com/buildcrew/workforce-backend/internal/handler/http/middleware"
	"github.com/buildcrew/workforce-backend/internal/handler/http/response"
	"github.com/buildcrew/workforce-backend/internal/pkg/sse"
	"github.com/go-chi/chi/v5"
)

// PayrollHandler defines the payroll handler interface
type PayrollHandler interface {
	// Automation
	GetAutomation(w http.ResponseWriter, r *http.Request)
	SetAutomation(w http.ResponseWriter, r *http.Request)

	// Manual runs
	RecalculateAll(w http.ResponseWriter, r *http.Request)
	RecalculateEmployee(w http.ResponseWriter, r *http.Request)

	// Aggregation
	Summary(w http.ResponseWriter, r *http.Request)
	Estimations(w http.ResponseWriter, r *http.Request)

	// SSE
	Stream(w http.ResponseWriter, r *http.Request)
}

type payrollHandlerImpl struct {
	automation     payroll.AutomationService
	summaryService payroll.SummaryService
	hub            *sse.Hub
	keepalive      time.Duration
}

// NewPayrollHandler creates a new payroll handler
func NewPayrollHandler(automation payroll.AutomationService, summaryService payroll.SummaryService, hub *sse.Hub) PayrollHandler {
	return &payrollHandlerImpl{
		automation:     automation,
		summaryService: summaryService,
		hub:            hub,
		keepalive:      30 * time.Second,
	}
}

func (h *payrollHandlerImpl) GetAutomation(w http.ResponseWriter, r *http.Request) {
	result, err := h.automation.Status(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) SetAutomation(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.ActorFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req payroll.SetAutomationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.automation.SetActive(r.Context(), actor, *req.Active)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	message := "Payroll automation paused"
	if result.Active {
		message = "Payroll automation resumed"
	}
	response.SuccessWithMessage(w, message, result)
}

func (h *payrollHandlerImpl) RecalculateAll(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.ActorFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.automation.RecalculateAll(r.Context(), actor)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, fmt.Sprintf("Recalculated %d of %d employees", result.Succeeded, result.Attempted), result)
}

func (h *payrollHandlerImpl) RecalculateEmployee(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.ActorFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}
	req := payroll.RecalculateEmployeeRequest{EmployeeID: chi.URLParam(r, "employeeID")}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.automation.RecalculateEmployee(r.Context(), actor, req.EmployeeID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll recalculated", result)
}

func (h *payrollHandlerImpl) Summary(w http.ResponseWriter, r *http.Request) {
	week, err := h.weekFromQuery(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.summaryService.Summary(r.Context(), week)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) Estimations(w http.ResponseWriter, r *http.Request) {
	week, err := h.weekFromQuery(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.summaryService.ListEstimations(r.Context(), week)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Stream pushes a payroll summary every time a run completes.
func (h *payrollHandlerImpl) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	events, cleanup := h.hub.Subscribe(sse.TopicPayrollSummary)
	defer cleanup()

	fmt.Fprint(w, "event: connected\ndata: {\"status\":\"connected\"}\n\n")
	flusher.Flush()

	keepalive := time.NewTicker(h.keepalive)
	defer keepalive.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(event.Data)
			if err != nil {
				slog.Warn("failed to encode payroll event", "event", event.Event, "error", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Event, data)
			flusher.Flush()

		case <-keepalive.C:
			fmt.Fprintf(w, "event: ping\ndata: {\"timestamp\":%d}\n\n", time.Now().Unix())
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

// weekFromQuery reads ?week_start, defaulting to the week in progress.
func (h *payrollHandlerImpl) weekFromQuery(r *http.Request) (payroll.Week, error) {
	current := h.automation.CurrentWeek()
	raw := r.URL.Query().Get("week_start")
	if raw == "" {
		return current, nil
	}
	return payroll.ParseWeekStart(raw, current.Start.Weekday())
}
