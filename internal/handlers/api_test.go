package handlers

import (
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

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"bizops-dashboard/internal/export"
	"bizops-dashboard/internal/models"
	"bizops-dashboard/internal/services"
	"bizops-dashboard/internal/store"
)

type fakeProvider struct {
	reply string
	err   error
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Generate(context.Context, string, string) (string, error) {
	return f.reply, f.err
}

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func createTestStore() *store.Store {
	return store.New(
		[]models.Brand{
			{ID: "1", Name: "Apex", BusinessUnit: "Outdoor", RevenueUSD: d("1000000"), Description: "Climbing helmets"},
			{ID: "2", Name: "Summit", BusinessUnit: "Outdoor", RevenueUSD: d("3000000"), Description: "Binoculars"},
			{ID: "3", Name: "Vector", BusinessUnit: "Defense", RevenueUSD: d("5000000"), Description: "Rifle scopes"},
		},
		[]models.Competitor{
			{ID: "101", Name: "Zeta", BrandIDs: []string{"1"}, RevenueUSD: d("2000000")},
			{ID: "102", Name: "Orion", BrandIDs: []string{"2", "3"}, RevenueUSD: d("4000000")},
		},
		[]models.SupplyChainRow{
			{CompetitorID: "101", Country: "China", ProportionImports: decimal.NewNullDecimal(d("30"))},
		},
	)
}

func newTestServices(t *testing.T, p *fakeProvider) (*services.Dashboard, *services.Advisor) {
	t.Helper()
	s := createTestStore()
	dash, err := services.NewDashboard(s, "China", nil, testLogger)
	if err != nil {
		t.Fatal(err)
	}
	if p == nil {
		p = &fakeProvider{}
	}
	return dash, services.NewAdvisor(p, s, time.Second, nil, testLogger)
}

func newTestAPI(t *testing.T, p *fakeProvider) *APIHandlers {
	dash, adv := newTestServices(t, p)
	return NewAPIHandlers(dash, adv, testLogger)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.NewDecoder(w.Body).Decode(&env); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return env
}

func TestNewAPIHandlers(t *testing.T) {
	h := newTestAPI(t, nil)
	if h == nil || h.dashboard == nil || h.advisor == nil || h.validate == nil {
		t.Fatal("NewAPIHandlers() left fields unset")
	}
}

func TestAPIHandlers_HandleBusinessUnits(t *testing.T) {
	h := newTestAPI(t, nil)
	w := httptest.NewRecorder()
	h.HandleBusinessUnits(w, httptest.NewRequest(http.MethodGet, "/api/business-units", nil))

	env := decode(t, w)
	var units []string
	if err := json.Unmarshal(env.Data, &units); err != nil {
		t.Fatal(err)
	}
	if strings.Join(units, ",") != "Outdoor,Defense" {
		t.Errorf("units = %v", units)
	}
	if w.Header().Get("Cache-Control") == "" {
		t.Error("expected Cache-Control header")
	}
}

func TestAPIHandlers_ReadEndpoints(t *testing.T) {
	h := newTestAPI(t, nil)

	tests := []struct {
		name    string
		handler http.HandlerFunc
		url     string
		want    string
	}{
		{"brands", h.HandleBrands, "/api/brands?business_unit=Outdoor", `"brand_name":"Summit"`},
		{"brand click", h.HandleBrands, "/api/brands?business_unit=Outdoor&brand=Apex", `"brand_name":"Apex"`},
		{"brand revenue", h.HandleBrandRevenue, "/api/brand-revenue?business_unit=Outdoor", `"category":"Summit"`},
		{"competitors", h.HandleCompetitors, "/api/competitors?business_unit=Outdoor", `"brand_id":"2,3"`},
		{"overview", h.HandleCompetitorsOverview, "/api/competitors/overview?business_unit=Outdoor", `"competitor_supplier_country":"China"`},
		{"supply chain", h.HandleSupplyChain, "/api/supply-chain?business_unit=Outdoor", `"series":"Zeta"`},
		{"baseline", h.HandleBaseline, "/api/baseline?business_unit=Outdoor", `"revenue":"4000000"`},
		{"scenario", h.HandleScenario, "/api/scenario?business_unit=Outdoor&brand=Apex&tariff_pct=20", `"new_profit":"455000"`},
		{"competitor scenario", h.HandleCompetitorScenario, "/api/scenario/competitors?business_unit=Outdoor&tariff_pct=20", `"country_tariff_cost":"60000"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.handler(w, httptest.NewRequest(http.MethodGet, tt.url, nil))

			if w.Code != http.StatusOK {
				t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
			}
			if !strings.Contains(w.Body.String(), tt.want) {
				t.Errorf("body %s does not contain %s", w.Body.String(), tt.want)
			}
		})
	}
}

func TestAPIHandlers_ScenarioWithoutPercentIsNeutral(t *testing.T) {
	h := newTestAPI(t, nil)
	w := httptest.NewRecorder()
	h.HandleScenario(w, httptest.NewRequest(http.MethodGet, "/api/scenario?business_unit=Outdoor", nil))

	env := decode(t, w)
	var res struct {
		Applied bool  `json:"applied"`
		Brands  []any `json:"brands"`
	}
	if err := json.Unmarshal(env.Data, &res); err != nil {
		t.Fatal(err)
	}
	if res.Applied || len(res.Brands) != 0 {
		t.Errorf("expected neutral result, got %+v", res)
	}
}

func TestAPIHandlers_InvalidTariff(t *testing.T) {
	h := newTestAPI(t, nil)
	w := httptest.NewRecorder()
	h.HandleScenario(w, httptest.NewRequest(http.MethodGet, "/api/scenario?business_unit=Outdoor&tariff_pct=lots", nil))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if env := decode(t, w); env.Success || env.Error == nil || env.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("unexpected envelope %+v", env)
	}
}

func TestAPIHandlers_HandleScenarioExport(t *testing.T) {
	h := newTestAPI(t, nil)
	w := httptest.NewRecorder()
	h.HandleScenarioExport(w, httptest.NewRequest(http.MethodGet, "/api/scenario/export?business_unit=Outdoor&tariff_pct=20", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != export.ContentType {
		t.Errorf("Content-Type = %s", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "scenario_Outdoor_") {
		t.Errorf("Content-Disposition = %s", cd)
	}

	xl, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer xl.Close()
	rows, err := xl.GetRows(export.SheetTariff)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Errorf("tariff sheet rows = %d, want header + 2 brands", len(rows))
	}
}

func TestAPIHandlers_HandleProductTariffs(t *testing.T) {
	h := newTestAPI(t, &fakeProvider{reply: "Helmets, 5%\nnot a row\nOptics, 2%"})
	w := httptest.NewRecorder()
	h.HandleProductTariffs(w, httptest.NewRequest(http.MethodPost, "/api/tariffs/products", nil))

	env := decode(t, w)
	var table services.TariffTable
	if err := json.Unmarshal(env.Data, &table); err != nil {
		t.Fatal(err)
	}
	if len(table.Rows) != 2 || table.Dropped != 1 {
		t.Errorf("table = %+v", table)
	}
}

func TestAPIHandlers_HandleProductTariffs_Upstream(t *testing.T) {
	h := newTestAPI(t, &fakeProvider{err: io.ErrUnexpectedEOF})
	w := httptest.NewRecorder()
	h.HandleProductTariffs(w, httptest.NewRequest(http.MethodPost, "/api/tariffs/products", nil))

	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", w.Code)
	}
}

func TestAPIHandlers_HandleBrandTariffs(t *testing.T) {
	h := newTestAPI(t, &fakeProvider{reply: "Helmets, 7%, USA, stable"})

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"ok", `{"brand_id":"1"}`, http.StatusOK},
		{"missing id", `{}`, http.StatusBadRequest},
		{"unknown field", `{"brand":"1"}`, http.StatusBadRequest},
		{"unknown brand", `{"brand_id":"42"}`, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.HandleBrandTariffs(w, httptest.NewRequest(http.MethodPost, "/api/tariffs/brand", strings.NewReader(tt.body)))
			if w.Code != tt.status {
				t.Errorf("status = %d, want %d (%s)", w.Code, tt.status, w.Body.String())
			}
		})
	}
}

func TestAPIHandlers_HandleRelocation(t *testing.T) {
	h := newTestAPI(t, &fakeProvider{reply: "Move to **Vietnam**."})
	w := httptest.NewRecorder()
	body := `{"subject":"Zeta","country":"China","prompt":"keep costs flat"}`
	h.HandleRelocation(w, httptest.NewRequest(http.MethodPost, "/api/relocation", strings.NewReader(body)))

	env := decode(t, w)
	var n services.Narrative
	if err := json.Unmarshal(env.Data, &n); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(n.HTML, "<strong>Vietnam</strong>") {
		t.Errorf("html = %q", n.HTML)
	}
}

func TestAPIHandlers_HandleHealth(t *testing.T) {
	h := newTestAPI(t, nil)
	w := httptest.NewRecorder()
	h.HandleHealth(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	env := decode(t, w)
	var data map[string]string
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatal(err)
	}
	if data["status"] != "healthy" {
		t.Errorf("status = %s", data["status"])
	}
	if _, err := time.Parse(time.RFC3339, data["timestamp"]); err != nil {
		t.Errorf("timestamp not RFC3339: %v", err)
	}
}

func TestAPIHandlers_HandleStats(t *testing.T) {
	h := newTestAPI(t, nil)
	w := httptest.NewRecorder()
	h.HandleStats(w, httptest.NewRequest(http.MethodGet, "/admin/stats", nil))

	env := decode(t, w)
	var stats map[string]any
	if err := json.Unmarshal(env.Data, &stats); err != nil {
		t.Fatal(err)
	}
	if stats["brands"] != float64(3) {
		t.Errorf("brands = %v", stats["brands"])
	}
}

func TestSplitLabels(t *testing.T) {
	got := splitLabels(" Apex, ,Summit ,")
	if strings.Join(got, "|") != "Apex|Summit" {
		t.Errorf("splitLabels() = %v", got)
	}
	if splitLabels("") != nil {
		t.Error("empty input should give nil")
	}
}
