package http

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/deskpulse/deskpulse/internal/domain"
	"github.com/deskpulse/deskpulse/internal/logger"
	"github.com/deskpulse/deskpulse/internal/usecase"
	apperror "github.com/deskpulse/deskpulse/pkg/error"
)

// ReportHandler handles the dashboard's JSON endpoints.
type ReportHandler struct {
	reportUseCase *usecase.ReportUseCase
	log           logger.Logger
}

// NewReportHandler creates a new report handler
func NewReportHandler(reportUseCase *usecase.ReportUseCase, log logger.Logger) *ReportHandler {
	return &ReportHandler{reportUseCase: reportUseCase, log: log}
}

// RegisterRoutes registers report routes
func (h *ReportHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/overview", h.Overview).Methods("GET")
	router.HandleFunc("/api/trends", h.Trends).Methods("GET")
	router.HandleFunc("/api/team_performance", h.TeamPerformance).Methods("GET")
	router.HandleFunc("/api/sla_breach", h.BreachSummary).Methods("GET")
	router.HandleFunc("/api/sla_breach_incidents", h.BreachIncidents).Methods("GET")
	router.HandleFunc("/api/incidents/{number}", h.IncidentDetails).Methods("GET")
	router.HandleFunc("/api/dimensions", h.Dimensions).Methods("GET")
	router.HandleFunc("/api/regions", h.Regions).Methods("GET")
	router.HandleFunc("/api/assignment_groups", h.AssignmentGroups).Methods("GET")
	router.HandleFunc("/api/technicians", h.Technicians).Methods("GET")
	router.HandleFunc("/api/locations", h.Locations).Methods("GET")
	router.HandleFunc("/api/thresholds", h.Thresholds).Methods("GET")
	router.HandleFunc("/api/reload", h.Reload).Methods("POST")
}

// filterFromQuery builds the drill-down filter from request parameters.
func filterFromQuery(r *http.Request) domain.ReportFilter {
	q := r.URL.Query()
	return domain.ReportFilter{
		Quarter:         q.Get("quarter"),
		Month:           q.Get("month"),
		Region:          q.Get("region"),
		Location:        q.Get("location"),
		AssignmentGroup: q.Get("assignment_group"),
		Technician:      q.Get("technician"),
	}
}

// Overview handles the headline KPI request.
func (h *ReportHandler) Overview(w http.ResponseWriter, r *http.Request) {
	resp, err := h.reportUseCase.Overview(r.Context(), filterFromQuery(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// Trends handles the per-month series request.
func (h *ReportHandler) Trends(w http.ResponseWriter, r *http.Request) {
	resp, err := h.reportUseCase.Trends(r.Context(), filterFromQuery(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// TeamPerformance handles the per-group metrics request.
func (h *ReportHandler) TeamPerformance(w http.ResponseWriter, r *http.Request) {
	resp, err := h.reportUseCase.TeamPerformance(r.Context(), filterFromQuery(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// BreachSummary handles the SLA-breach panel request.
func (h *ReportHandler) BreachSummary(w http.ResponseWriter, r *http.Request) {
	resp, err := h.reportUseCase.BreachSummary(r.Context(), filterFromQuery(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// BreachIncidents handles the worst-offenders listing request.
func (h *ReportHandler) BreachIncidents(w http.ResponseWriter, r *http.Request) {
	severity, err := domain.ParseBreachSeverity(r.URL.Query().Get("severity"))
	if err != nil {
		h.writeError(w, r, apperror.NewBadRequest(err.Error()))
		return
	}

	resp, err := h.reportUseCase.BreachIncidents(r.Context(), filterFromQuery(r), severity)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// IncidentDetails handles the single-incident triage request.
func (h *ReportHandler) IncidentDetails(w http.ResponseWriter, r *http.Request) {
	number := mux.Vars(r)["number"]
	if number == "" {
		h.writeError(w, r, apperror.NewBadRequest("incident number is required"))
		return
	}

	resp, err := h.reportUseCase.IncidentDetails(r.Context(), number)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// Dimensions handles the full filter-dropdown payload.
func (h *ReportHandler) Dimensions(w http.ResponseWriter, r *http.Request) {
	resp, err := h.reportUseCase.Dimensions(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// Regions handles the region list request.
func (h *ReportHandler) Regions(w http.ResponseWriter, r *http.Request) {
	h.writeDimension(w, r, "regions", func(d *usecase.DimensionsResponse) []string { return d.Regions })
}

// AssignmentGroups handles the assignment group list request.
func (h *ReportHandler) AssignmentGroups(w http.ResponseWriter, r *http.Request) {
	h.writeDimension(w, r, "assignment_groups", func(d *usecase.DimensionsResponse) []string { return d.AssignmentGroups })
}

// Technicians handles the technician list request.
func (h *ReportHandler) Technicians(w http.ResponseWriter, r *http.Request) {
	h.writeDimension(w, r, "technicians", func(d *usecase.DimensionsResponse) []string { return d.Technicians })
}

// Locations handles the location list request.
func (h *ReportHandler) Locations(w http.ResponseWriter, r *http.Request) {
	h.writeDimension(w, r, "locations", func(d *usecase.DimensionsResponse) []string { return d.Locations })
}

func (h *ReportHandler) writeDimension(w http.ResponseWriter, r *http.Request, name string, pick func(*usecase.DimensionsResponse) []string) {
	resp, err := h.reportUseCase.Dimensions(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string][]string{name: pick(resp)})
}

// Thresholds exposes the named SLA threshold configuration.
func (h *ReportHandler) Thresholds(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.reportUseCase.Thresholds())
}

// Reload handles a snapshot rebuild request.
func (h *ReportHandler) Reload(w http.ResponseWriter, r *http.Request) {
	resp, err := h.reportUseCase.Reload(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *ReportHandler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func (h *ReportHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperror.MapError(err)
	if appErr.Status >= http.StatusInternalServerError {
		h.log.Error(r.Context(), "Request failed", err, map[string]interface{}{"path": r.URL.Path})
	}
	h.writeJSON(w, appErr.Status, map[string]interface{}{"error": appErr})
}
