package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/beanflowai/Beanflow-Payroll-sub011/internal/calculation"
	"github.com/beanflowai/Beanflow-Payroll-sub011/internal/domain"
	"github.com/beanflowai/Beanflow-Payroll-sub011/internal/rules"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	handler *Handler
	engine  *calculation.Engine
	store   *rules.Store
	router  http.Handler
}

func newTestServer(t *testing.T, opts RouterOptions) *testServer {
	t.Helper()
	loader, err := rules.NewLoader(nil)
	require.NoError(t, err)
	editions, err := loader.LoadDir("../../configs/rules")
	require.NoError(t, err)
	store, err := rules.NewStore(editions)
	require.NoError(t, err)

	engine := calculation.NewEngine(store)
	h := NewHandler(engine, store)
	return &testServer{handler: h, engine: engine, store: store, router: NewRouter(h, opts)}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func ontarioRequest(id string) domain.CalculationRequest {
	return domain.CalculationRequest{
		EmployeeID:   id,
		Province:     domain.Ontario,
		PayFrequency: domain.Biweekly,
		PayDate:      domain.MustParseDate("2025-04-25"),
		HireDate:     domain.MustParseDate("2019-06-01"),
		RegularWages: decimal.NewFromInt(2500),
	}
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestCalculate(t *testing.T) {
	s := newTestServer(t, RouterOptions{})
	req := ontarioRequest("E-1")

	rec := s.do(t, http.MethodPost, "/api/v1/calculate", req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got domain.CalculationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))

	want, err := s.engine.Calculate(req)
	require.NoError(t, err)
	assert.Equal(t, "E-1", got.EmployeeID)
	assert.True(t, want.NetPay.Equal(got.NetPay), "net pay %s vs %s", want.NetPay, got.NetPay)
	assert.True(t, want.CPP.Equal(got.CPP))
	assert.Equal(t, want.Editions, got.Editions)
}

func TestCalculate_Errors(t *testing.T) {
	s := newTestServer(t, RouterOptions{})

	badProvince := ontarioRequest("E-2")
	badProvince.Province = "XX"

	noRule := ontarioRequest("E-3")
	noRule.PayDate = domain.MustParseDate("2030-01-15")

	low := decimal.RequireFromString("0.01")
	belowMinimum := ontarioRequest("E-4")
	belowMinimum.VacationRateOverride = &low

	tests := []struct {
		name   string
		body   any
		status int
		code   string
		field  string
	}{
		{"invalid province", badProvince, http.StatusBadRequest, calculation.OutcomeInvalidInput, "province"},
		{"no applicable rule", noRule, http.StatusUnprocessableEntity, calculation.OutcomeNoRule, ""},
		{"vacation override below minimum", belowMinimum, http.StatusUnprocessableEntity, calculation.OutcomeBelowMinimumVac, ""},
		{"unknown field", `{"employee_id":"x","salary":1}`, http.StatusBadRequest, "", ""},
		{"empty body", "", http.StatusBadRequest, "", ""},
		{"trailing data", `{"employee_id":"x"} {}`, http.StatusBadRequest, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/api/v1/calculate", tt.body)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			resp := decodeError(t, rec)
			assert.NotEmpty(t, resp.Error)
			assert.Equal(t, tt.code, resp.Code)
			assert.Equal(t, tt.field, resp.Field)
		})
	}
}

func TestCalculate_BelowMinimumDetails(t *testing.T) {
	s := newTestServer(t, RouterOptions{})
	low := decimal.RequireFromString("0.01")
	req := ontarioRequest("E-5")
	req.VacationRateOverride = &low

	rec := s.do(t, http.MethodPost, "/api/v1/calculate", req)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decodeError(t, rec)
	details, ok := resp.Details.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "0.01", details["override"])
	assert.Equal(t, "0.06", details["minimum"])
}

func TestCalculate_Formats(t *testing.T) {
	s := newTestServer(t, RouterOptions{})

	tests := []struct {
		format      string
		contentType string
		contains    string
	}{
		{"csv", "text/csv; charset=utf-8", "EmployeeID,Outcome,Province"},
		{"yaml", "application/yaml", "employee_id: E-6"},
		{"html", "text/html; charset=utf-8", "Payroll Register"},
		{"table", "text/plain; charset=utf-8", "E-6"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/api/v1/calculate?format="+tt.format, ontarioRequest("E-6"))
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, tt.contentType, rec.Header().Get("Content-Type"))
			assert.Contains(t, rec.Body.String(), tt.contains)
		})
	}

	rec := s.do(t, http.MethodPost, "/api/v1/calculate?format=pdf", ontarioRequest("E-6"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec).Details, "available")
}

func TestBatch(t *testing.T) {
	s := newTestServer(t, RouterOptions{})

	bad := ontarioRequest("E-bad")
	bad.PayFrequency = "fortnightly"
	body := BatchRequest{Requests: []domain.CalculationRequest{
		ontarioRequest("E-a"), bad, ontarioRequest("E-c"),
	}, Workers: 2}

	rec := s.do(t, http.MethodPost, "/api/v1/batch", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got struct {
		RunID     string `json:"run_id"`
		Succeeded int    `json:"succeeded"`
		Failed    int    `json:"failed"`
		Items     []struct {
			EmployeeID string `json:"employee_id"`
			Outcome    string `json:"outcome"`
			Error      string `json:"error"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.NotEmpty(t, got.RunID)
	assert.Equal(t, 2, got.Succeeded)
	assert.Equal(t, 1, got.Failed)
	require.Len(t, got.Items, 3)
	assert.Equal(t, "E-a", got.Items[0].EmployeeID)
	assert.Equal(t, calculation.OutcomeInvalidInput, got.Items[1].Outcome)
	assert.Contains(t, got.Items[1].Error, "pay_frequency")
	assert.Equal(t, calculation.OutcomeOK, got.Items[2].Outcome)
}

func TestBatch_CSV(t *testing.T) {
	s := newTestServer(t, RouterOptions{})
	body := BatchRequest{Requests: []domain.CalculationRequest{ontarioRequest("E-a"), ontarioRequest("E-b")}}

	rec := s.do(t, http.MethodPost, "/api/v1/batch?format=csv", body)
	require.Equal(t, http.StatusOK, rec.Code)
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	assert.Len(t, lines, 3)
}

func TestBatch_Limits(t *testing.T) {
	s := newTestServer(t, RouterOptions{})
	s.handler.MaxBatchSize = 2

	rec := s.do(t, http.MethodPost, "/api/v1/batch", BatchRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	three := BatchRequest{Requests: []domain.CalculationRequest{
		ontarioRequest("1"), ontarioRequest("2"), ontarioRequest("3"),
	}}
	rec = s.do(t, http.MethodPost, "/api/v1/batch", three)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestCompare(t *testing.T) {
	s := newTestServer(t, RouterOptions{})

	rec := s.do(t, http.MethodPost, "/api/v1/compare", CompareRequest{
		Request:  ontarioRequest("E-c"),
		Variants: []string{"province:AB", "date:2030-01-18"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got struct {
		EmployeeID         string `json:"employeeId"`
		AlternativeResults []struct {
			ScenarioName string `json:"scenarioName"`
			Outcome      string `json:"outcome"`
		} `json:"alternativeResults"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "E-c", got.EmployeeID)
	require.Len(t, got.AlternativeResults, 2)
	assert.Equal(t, "province_AB", got.AlternativeResults[0].ScenarioName)
	assert.Equal(t, calculation.OutcomeOK, got.AlternativeResults[0].Outcome)
	assert.Equal(t, calculation.OutcomeNoRule, got.AlternativeResults[1].Outcome)

	rec = s.do(t, http.MethodPost, "/api/v1/compare", CompareRequest{
		Request: ontarioRequest("E-c"), Variants: []string{"salary:5"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	bad := ontarioRequest("E-c")
	bad.HireDate = domain.MustParseDate("2026-01-01")
	rec = s.do(t, http.MethodPost, "/api/v1/compare", CompareRequest{Request: bad})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "hire_date", decodeError(t, rec).Field)
}

func TestProject(t *testing.T) {
	s := newTestServer(t, RouterOptions{})

	rec := s.do(t, http.MethodPost, "/api/v1/project", ontarioRequest("E-p"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got struct {
		EmployeeID string                     `json:"employee_id"`
		Year       int                        `json:"year"`
		Periods    []domain.CalculationResult `json:"periods"`
		Totals     domain.YTD                 `json:"totals"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "E-p", got.EmployeeID)
	assert.Equal(t, 2025, got.Year)
	require.Len(t, got.Periods, 18, "biweekly from 2025-04-25 to 2025-12-19")
	assert.Equal(t, "2025-12-19", got.Periods[17].PayDate.String())
	assert.Equal(t, "45000.00", got.Totals.GrossEarnings.StringFixed(2))

	rec = s.do(t, http.MethodPost, "/api/v1/project?format=csv", ontarioRequest("E-p"))
	require.Equal(t, http.StatusOK, rec.Code)
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	assert.Len(t, lines, 19)

	noRule := ontarioRequest("E-p")
	noRule.PayDate = domain.MustParseDate("2030-01-18")
	rec = s.do(t, http.MethodPost, "/api/v1/project", noRule)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestListRules(t *testing.T) {
	s := newTestServer(t, RouterOptions{})

	rec := s.do(t, http.MethodGet, "/api/v1/rules", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var all RulesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	assert.Equal(t, s.store.Snapshot().Len(), all.Count)

	rec = s.do(t, http.MethodGet, "/api/v1/rules/?jurisdiction=on&family=provincial_tax", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var on RulesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &on))
	require.NotZero(t, on.Count)
	for _, e := range on.Editions {
		assert.Equal(t, domain.Ontario, e.Jurisdiction)
		assert.Equal(t, domain.FamilyProvincialTax, e.Family)
		assert.Nil(t, e.Payload)
	}

	rec = s.do(t, http.MethodGet, "/api/v1/rules?family=payroll", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = s.do(t, http.MethodGet, "/api/v1/rules?jurisdiction=QQ", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResolveRule(t *testing.T) {
	s := newTestServer(t, RouterOptions{})

	tests := []struct {
		name   string
		query  string
		status int
	}{
		{"found", "jurisdiction=ON&family=provincial_tax&date=2025-03-15", http.StatusOK},
		{"beyond published span", "jurisdiction=ON&family=provincial_tax&date=2030-03-15", http.StatusNotFound},
		{"bad date", "jurisdiction=ON&family=provincial_tax&date=15/03/2025", http.StatusBadRequest},
		{"bad family", "jurisdiction=ON&family=tax&date=2025-03-15", http.StatusBadRequest},
		{"missing jurisdiction", "family=cpp_ei&date=2025-03-15", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodGet, "/api/v1/rules/resolve?"+tt.query, nil)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}

	rec := s.do(t, http.MethodGet, "/api/v1/rules/resolve?jurisdiction=CA&family=cpp_ei&date=2025-03-15", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "2025", got["edition"])
	assert.Equal(t, "2025-01-01", got["effective_date"])
	assert.Contains(t, got, "payload")

	rec = s.do(t, http.MethodGet, "/api/v1/rules/resolve?jurisdiction=ON&family=provincial_tax&date=2030-03-15", nil)
	assert.Equal(t, calculation.OutcomeNoRule, decodeError(t, rec).Code)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, RouterOptions{})
	rec := s.do(t, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "ok", got.Status)
	assert.Equal(t, s.store.Snapshot().Len(), got.Editions)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := newTestServer(t, RouterOptions{Gatherer: reg})
	s.engine.Metrics = calculation.NewMetrics(reg)

	rec := s.do(t, http.MethodPost, "/api/v1/calculate", ontarioRequest("E-m"))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `payroll_calculations_total{outcome="ok",province="ON"} 1`)

	// without a gatherer the route does not exist
	plain := newTestServer(t, RouterOptions{})
	rec = plain.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, RouterOptions{RateLimit: 0.001, RateBurst: 2})

	for i := 0; i < 2; i++ {
		rec := s.do(t, http.MethodGet, "/api/v1/rules", nil)
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i)
	}
	rec := s.do(t, http.MethodGet, "/api/v1/rules", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	// health checks are not limited
	rec = s.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, RouterOptions{CORSOrigins: []string{"https://payroll.example.com"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/calculate", nil)
	req.Header.Set("Origin", "https://payroll.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, "https://payroll.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&calculation.InvalidInputError{Field: "x", Reason: "y"}, http.StatusBadRequest},
		{&rules.NoApplicableRuleError{Jurisdiction: domain.Ontario}, http.StatusUnprocessableEntity},
		{fmt.Errorf("wrapped: %w", calculation.ErrBelowMinimumVacationRate), http.StatusUnprocessableEntity},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
