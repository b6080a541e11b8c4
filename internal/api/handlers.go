package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/beanflowai/Beanflow-Payroll-sub011/internal/calculation"
	"github.com/beanflowai/Beanflow-Payroll-sub011/internal/compare"
	"github.com/beanflowai/Beanflow-Payroll-sub011/internal/domain"
	"github.com/beanflowai/Beanflow-Payroll-sub011/internal/output"
	"github.com/beanflowai/Beanflow-Payroll-sub011/internal/rules"
)

// maxBodyBytes bounds request bodies
const maxBodyBytes = 8 << 20

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Engine *calculation.Engine
	Rules  *rules.Store

	// Workers is the default batch parallelism; a request may ask for fewer
	Workers      int
	MaxBatchSize int

	Logger *slog.Logger
}

// NewHandler creates a handler for engine, reading rule metadata from store
func NewHandler(engine *calculation.Engine, store *rules.Store) *Handler {
	return &Handler{
		Engine:       engine,
		Rules:        store,
		Workers:      4,
		MaxBatchSize: 1000,
		Logger:       slog.Default(),
	}
}

// Calculate handles POST /api/v1/calculate
func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	var req domain.CalculationRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body", err)
		return
	}

	result, err := h.Engine.Calculate(req)
	if err != nil {
		h.Logger.Debug("calculation rejected", "employee_id", req.EmployeeID, "error", err)
		writeEngineError(w, err)
		return
	}

	if format := r.URL.Query().Get("format"); format != "" {
		h.writeReport(w, format, output.NewResultReport(result))
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Batch handles POST /api/v1/batch. Per-employee failures are reported in
// the items; only a malformed body or an oversized batch fails the call.
func (h *Handler) Batch(w http.ResponseWriter, r *http.Request) {
	var body BatchRequest
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body", err)
		return
	}
	if len(body.Requests) == 0 {
		writeError(w, http.StatusBadRequest, "requests is empty", nil)
		return
	}
	if h.MaxBatchSize > 0 && len(body.Requests) > h.MaxBatchSize {
		writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("batch of %d exceeds the limit of %d", len(body.Requests), h.MaxBatchSize), nil)
		return
	}

	workers := h.Workers
	if body.Workers > 0 && body.Workers < workers {
		workers = body.Workers
	}

	batch, err := h.Engine.RunBatch(r.Context(), body.Requests, workers)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "batch interrupted", err)
		return
	}
	h.Logger.Info("batch complete", "run_id", batch.RunID, "succeeded", batch.Succeeded, "failed", batch.Failed)

	if format := r.URL.Query().Get("format"); format != "" {
		h.writeReport(w, format, output.NewBatchReport(batch))
		return
	}
	writeJSON(w, http.StatusOK, batch)
}

// Compare handles POST /api/v1/compare. The base request must calculate;
// variants that cannot be calculated are reported in the comparison.
func (h *Handler) Compare(w http.ResponseWriter, r *http.Request) {
	var body CompareRequest
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body", err)
		return
	}
	variants, err := compare.ParseVariants(body.Variants)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid variant", err)
		return
	}

	set, err := compare.NewCompareEngine(h.Engine, h.Rules).Compare(r.Context(), body.Request, variants)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, set)
}

// Project handles POST /api/v1/project, running the request through the rest
// of its calendar year. The format query parameter works as for calculate.
func (h *Handler) Project(w http.ResponseWriter, r *http.Request) {
	var req domain.CalculationRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body", err)
		return
	}

	proj, err := h.Engine.ProjectYear(req)
	if err != nil {
		h.Logger.Debug("projection rejected", "employee_id", req.EmployeeID, "error", err)
		writeEngineError(w, err)
		return
	}

	if format := r.URL.Query().Get("format"); format != "" {
		h.writeReport(w, format, output.NewProjectionReport(proj))
		return
	}
	writeJSON(w, http.StatusOK, proj)
}

// ListRules handles GET /api/v1/rules, optionally filtered by jurisdiction and family
func (h *Handler) ListRules(w http.ResponseWriter, r *http.Request) {
	snapshot := h.Rules.Snapshot()

	var jurisdiction domain.Jurisdiction
	if v := r.URL.Query().Get("jurisdiction"); v != "" {
		j, err := domain.ParseJurisdiction(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid jurisdiction", err)
			return
		}
		jurisdiction = j
	}
	family := domain.Family(r.URL.Query().Get("family"))
	if family != "" && !family.IsValid() {
		writeError(w, http.StatusBadRequest, "invalid family", fmt.Errorf("unknown family %q", family))
		return
	}

	editions := []EditionDTO{}
	for _, e := range snapshot.Editions() {
		if jurisdiction != "" && e.Jurisdiction != jurisdiction {
			continue
		}
		if family != "" && e.Family != family {
			continue
		}
		editions = append(editions, toEditionDTO(e, false))
	}

	writeJSON(w, http.StatusOK, RulesResponse{
		LoadedAt: snapshot.LoadedAt(),
		Count:    len(editions),
		Editions: editions,
	})
}

// ResolveRule handles GET /api/v1/rules/resolve?jurisdiction=ON&family=provincial_tax&date=2025-03-15
func (h *Handler) ResolveRule(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	jurisdiction, err := domain.ParseJurisdiction(q.Get("jurisdiction"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid jurisdiction", err)
		return
	}
	family := domain.Family(q.Get("family"))
	if !family.IsValid() {
		writeError(w, http.StatusBadRequest, "invalid family", fmt.Errorf("unknown family %q", family))
		return
	}
	date, err := domain.ParseDate(q.Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date", err)
		return
	}

	edition, err := h.Rules.Resolve(jurisdiction, family, date)
	if err != nil {
		if errors.Is(err, rules.ErrNoApplicableRule) {
			writeErrorCode(w, http.StatusNotFound, calculation.OutcomeNoRule, err)
			return
		}
		writeError(w, http.StatusInternalServerError, "resolution failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toEditionDTO(edition, true))
}

// Health handles GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	snapshot := h.Rules.Snapshot()
	status := "ok"
	code := http.StatusOK
	if snapshot.Len() == 0 {
		status = "no rules loaded"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, HealthResponse{
		Status:   status,
		Editions: snapshot.Len(),
		LoadedAt: snapshot.LoadedAt(),
	})
}

func (h *Handler) writeReport(w http.ResponseWriter, format string, report *output.Report) {
	formatter := output.GetFormatterByName(format)
	if formatter == nil {
		writeError(w, http.StatusBadRequest, "unknown format",
			fmt.Errorf("%q; available: %s", format, strings.Join(output.AvailableFormatterNames(), ", ")))
		return
	}
	data, err := formatter.Format(report)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "formatting failed", err)
		return
	}
	w.Header().Set("Content-Type", contentType(formatter.Name()))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func contentType(formatter string) string {
	switch formatter {
	case "json":
		return "application/json"
	case "yaml":
		return "application/yaml"
	case "csv", "detailed-csv":
		return "text/csv; charset=utf-8"
	case "html":
		return "text/html; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

// decodeBody decodes a single JSON document, rejecting unknown fields
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty body")
		}
		return err
	}
	if dec.More() {
		return errors.New("unexpected data after the JSON document")
	}
	return nil
}

// statusFor maps an engine error to an HTTP status
func statusFor(err error) int {
	switch calculation.Outcome(err) {
	case calculation.OutcomeInvalidInput:
		return http.StatusBadRequest
	case calculation.OutcomeNoRule, calculation.OutcomeBelowMinimumVac:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeEngineError(w http.ResponseWriter, err error) {
	resp := ErrorResponse{Error: err.Error(), Code: calculation.Outcome(err)}
	var invalid *calculation.InvalidInputError
	if errors.As(err, &invalid) {
		resp.Field = invalid.Field
	}
	var below *calculation.BelowMinimumVacationRateError
	if errors.As(err, &below) {
		resp.Details = map[string]string{
			"minimum":  below.Minimum.Round(6).String(),
			"override": below.Override.String(),
		}
	}
	writeJSON(w, statusFor(err), resp)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func writeErrorCode(w http.ResponseWriter, status int, code string, err error) {
	writeJSON(w, status, ErrorResponse{Error: err.Error(), Code: code})
}
