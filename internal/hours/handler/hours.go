package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/medflow/hours-service/internal/hours/domain"
	"github.com/medflow/hours-service/internal/hours/service"
	"github.com/medflow/hours-service/pkg/errors"
	"github.com/medflow/hours-service/pkg/httputil"
	"github.com/medflow/hours-service/pkg/logger"
)

// TimesheetWriter creates and edits timesheet entries
type TimesheetWriter interface {
	CreateEntry(ctx context.Context, in service.TimesheetInput) (*domain.TimeEntry, error)
	UpdateEntry(ctx context.Context, id string, in service.TimesheetInput) (*domain.TimeEntry, error)
}

// Gate is the part of the notification gate exposed over HTTP
type Gate interface {
	RunWeekly(ctx context.Context) (*service.RunReport, error)
	RunWeeklyAt(ctx context.Context, ref time.Time) (*service.RunReport, error)
	CheckMidWeek(ctx context.Context, employeeIDs []string) (*service.RunReport, error)
	CurrentWeek(ctx context.Context, employeeID string) (*domain.WeekStatus, error)
	Summaries(ctx context.Context, employeeID string, limit int) ([]*domain.WeeklySummary, error)
	AnnotateSummary(ctx context.Context, summaryID, notes string) (*domain.WeeklySummary, error)
}

// JobRoles may trigger the weekly run and discrepancy checks by hand
var JobRoles = []string{"admin", "manager"}

// HoursHandler handles the hours endpoints
type HoursHandler struct {
	timesheets TimesheetWriter
	gate       Gate
	logger     *logger.Logger
}

// NewHoursHandler creates a new hours handler
func NewHoursHandler(timesheets TimesheetWriter, gate Gate, log *logger.Logger) *HoursHandler {
	return &HoursHandler{
		timesheets: timesheets,
		gate:       gate,
		logger:     log,
	}
}

// Routes returns the router mounted at /api/v1/hours
func (h *HoursHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/timesheets", func(r chi.Router) {
		r.Post("/", h.CreateTimesheet)
		r.Put("/{id}", h.UpdateTimesheet)
	})

	r.Route("/employees/{id}", func(r chi.Router) {
		r.Get("/current-week", h.CurrentWeek)
		r.Get("/summaries", h.ListSummaries)
	})

	r.With(httputil.RequireRole(JobRoles...)).Put("/summaries/{id}/notes", h.AnnotateSummary)

	r.Route("/jobs", func(r chi.Router) {
		r.Use(httputil.RequireRole(JobRoles...))
		r.Post("/weekly-summary", h.RunWeeklySummary)
		r.Post("/discrepancy-check", h.RunDiscrepancyCheck)
	})

	return r
}

// TimesheetRequest is the body of create and update
type TimesheetRequest struct {
	EmployeeID    string   `json:"employee_id" validate:"required,uuid"`
	EntryDate     string   `json:"entry_date" validate:"required,datetime=2006-01-02"`
	DurationHours *float64 `json:"duration_hours" validate:"required,gte=0,lte=24"`
	ProjectID     *string  `json:"project_id" validate:"omitempty,uuid"`
	Description   *string  `json:"description" validate:"omitempty,max=2000"`
}

func (req *TimesheetRequest) input() service.TimesheetInput {
	date, _ := time.Parse(time.DateOnly, req.EntryDate)
	return service.TimesheetInput{
		EmployeeID:    req.EmployeeID,
		EntryDate:     date,
		DurationHours: *req.DurationHours,
		ProjectID:     req.ProjectID,
		Description:   req.Description,
	}
}

// CreateTimesheet creates a timesheet entry
// POST /timesheets
func (h *HoursHandler) CreateTimesheet(w http.ResponseWriter, r *http.Request) {
	var req TimesheetRequest
	if err := httputil.DecodeJSONLocalized(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	entry, err := h.timesheets.CreateEntry(r.Context(), req.input())
	if err != nil {
		h.respondError(w, r, err, "failed to create timesheet entry")
		return
	}

	httputil.Created(w, entry)
}

// UpdateTimesheet replaces the fields of a timesheet entry
// PUT /timesheets/{id}
func (h *HoursHandler) UpdateTimesheet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "timesheet entry")
	if !ok {
		return
	}

	var req TimesheetRequest
	if err := httputil.DecodeJSONLocalized(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	entry, err := h.timesheets.UpdateEntry(r.Context(), id, req.input())
	if err != nil {
		h.respondError(w, r, err, "failed to update timesheet entry")
		return
	}

	httputil.JSON(w, http.StatusOK, entry)
}

// CurrentWeek returns the computed hours view of the running week
// GET /employees/{id}/current-week
func (h *HoursHandler) CurrentWeek(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "employee")
	if !ok {
		return
	}

	status, err := h.gate.CurrentWeek(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err, "failed to compute current week")
		return
	}

	httputil.JSON(w, http.StatusOK, status)
}

// ListSummaries returns stored summaries, newest week first
// GET /employees/{id}/summaries?limit=
func (h *HoursHandler) ListSummaries(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "employee")
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			httputil.ErrorLocalized(w, r, errors.Validation(map[string]string{"limit": "must be a positive integer"}))
			return
		}
		limit = n
	}

	summaries, err := h.gate.Summaries(r.Context(), id, limit)
	if err != nil {
		h.respondError(w, r, err, "failed to list summaries")
		return
	}
	httputil.JSON(w, http.StatusOK, summaries)
}

// SummaryNotesRequest carries the notes of a summary; blank clears them
type SummaryNotesRequest struct {
	Notes string `json:"notes" validate:"max=2000"`
}

// AnnotateSummary replaces the notes of a stored summary
// PUT /summaries/{id}/notes
func (h *HoursHandler) AnnotateSummary(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "weekly summary")
	if !ok {
		return
	}

	var req SummaryNotesRequest
	if err := httputil.DecodeJSONLocalized(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	summary, err := h.gate.AnnotateSummary(r.Context(), id, req.Notes)
	if err != nil {
		h.respondError(w, r, err, "failed to annotate summary")
		return
	}

	httputil.JSON(w, http.StatusOK, summary)
}

// WeeklyJobRequest optionally pins the reference date of a manual weekly run
type WeeklyJobRequest struct {
	Date string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

// RunWeeklySummary runs the weekly job now
// POST /jobs/weekly-summary
func (h *HoursHandler) RunWeeklySummary(w http.ResponseWriter, r *http.Request) {
	var req WeeklyJobRequest
	if r.ContentLength != 0 {
		if err := httputil.DecodeJSONLocalized(r, &req); err != nil {
			httputil.ErrorLocalized(w, r, err)
			return
		}
		if err := httputil.Validate(req); err != nil {
			httputil.ErrorLocalized(w, r, err)
			return
		}
	}

	var (
		report *service.RunReport
		err    error
	)
	if req.Date != "" {
		ref, _ := time.Parse(time.DateOnly, req.Date)
		report, err = h.gate.RunWeeklyAt(r.Context(), ref)
	} else {
		report, err = h.gate.RunWeekly(r.Context())
	}
	if err != nil {
		h.respondError(w, r, err, "weekly summary run failed")
		return
	}

	h.logger.Info().
		Str("user_id", httputil.GetUserID(r.Context())).
		Str("week_start", report.WeekStart).
		Msg("weekly summary run triggered manually")

	httputil.JSON(w, http.StatusOK, report)
}

// DiscrepancyCheckRequest lists the employees to check
type DiscrepancyCheckRequest struct {
	EmployeeIDs []string `json:"employee_ids" validate:"required,min=1,max=500,dive,uuid"`
}

// RunDiscrepancyCheck runs the mid-week check for the given employees
// POST /jobs/discrepancy-check
func (h *HoursHandler) RunDiscrepancyCheck(w http.ResponseWriter, r *http.Request) {
	var req DiscrepancyCheckRequest
	if err := httputil.DecodeJSONLocalized(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	report, err := h.gate.CheckMidWeek(r.Context(), req.EmployeeIDs)
	if err != nil {
		h.respondError(w, r, err, "discrepancy check failed")
		return
	}

	httputil.JSON(w, http.StatusOK, report)
}

// pathID reads the {id} URL parameter. Ids are UUIDs, so anything else
// cannot name an existing resource.
func pathID(w http.ResponseWriter, r *http.Request, resource string) (string, bool) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		httputil.ErrorLocalized(w, r, errors.NotFound(resource))
		return "", false
	}
	return id, true
}

func (h *HoursHandler) respondError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	var appErr *errors.AppError
	if !errors.As(err, &appErr) {
		h.logger.Error().Err(err).Str("request_id", httputil.GetRequestID(r.Context())).Msg(msg)
	}
	httputil.ErrorLocalized(w, r, err)
}
