package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"bizops-dashboard/internal/errors"
	"bizops-dashboard/internal/export"
	"bizops-dashboard/internal/observability"
	"bizops-dashboard/internal/resolver"
	"bizops-dashboard/internal/services"
)

const (
	cacheShort    = "public, max-age=60"
	maxBodyBytes  = 64 << 10
	healthVersion = "1.0.0"
)

type APIHandlers struct {
	dashboard *services.Dashboard
	advisor   *services.Advisor
	validate  *validator.Validate
	logger    *slog.Logger
}

func NewAPIHandlers(dashboard *services.Dashboard, advisor *services.Advisor, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		dashboard: dashboard,
		advisor:   advisor,
		validate:  newValidator(),
		logger:    logger,
	}
}

func newValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

// stateQuery is the query string shared by the read endpoints. brand and
// competitor accept comma-separated names, like clicked chart labels.
type stateQuery struct {
	BusinessUnit string `validate:"max=200"`
	Brand        string `validate:"max=1000"`
	Competitor   string `validate:"max=1000"`
	TariffPct    string `validate:"omitempty,numeric"`
	Country      string `validate:"max=100"`
}

func parseState(v *validator.Validate, q url.Values) (services.State, error) {
	sq := stateQuery{
		BusinessUnit: strings.TrimSpace(q.Get("business_unit")),
		Brand:        q.Get("brand"),
		Competitor:   q.Get("competitor"),
		TariffPct:    strings.TrimSpace(q.Get("tariff_pct")),
		Country:      strings.TrimSpace(q.Get("country")),
	}
	if err := v.Struct(sq); err != nil {
		return services.State{}, errors.ValidationWrap(err, "invalid query parameters")
	}

	st := services.State{
		Selection: resolver.Selection{
			BusinessUnit:    sq.BusinessUnit,
			BrandClick:      splitLabels(sq.Brand),
			CompetitorClick: splitLabels(sq.Competitor),
		},
		Country: sq.Country,
	}

	pct, err := parsePct(sq.TariffPct)
	if err != nil {
		return services.State{}, err
	}
	if pct.Valid {
		st.TariffPct = pct
		st.ScenarioClicks = 1
	}
	return st, nil
}

func parsePct(s string) (decimal.NullDecimal, error) {
	if s == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, errors.ValidationWrap(err, "tariff percentage must be a number")
	}
	return decimal.NewNullDecimal(d), nil
}

func splitLabels(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (h *APIHandlers) view(w http.ResponseWriter, r *http.Request) (services.View, bool) {
	requestID := observability.GetRequestID(r.Context())

	st, err := parseState(h.validate, r.URL.Query())
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return services.View{}, false
	}

	v, err := h.dashboard.Snapshot(r.Context(), st)
	if err != nil {
		errors.WriteError(w, h.logger, errors.InternalWrap(err, "failed to compute dashboard"), requestID)
		return services.View{}, false
	}
	return v, true
}

func (h *APIHandlers) respond(w http.ResponseWriter, r *http.Request, pick func(services.View) any) {
	v, ok := h.view(w, r)
	if !ok {
		return
	}
	errors.WriteSuccessWithHeaders(w, pick(v), map[string]string{"Cache-Control": cacheShort})
}

func (h *APIHandlers) HandleBusinessUnits(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccessWithHeaders(w, h.dashboard.BusinessUnits(), map[string]string{
		"Cache-Control": "public, max-age=300",
	})
}

func (h *APIHandlers) HandleBrands(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, func(v services.View) any { return v.BrandTable })
}

func (h *APIHandlers) HandleBrandRevenue(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, func(v services.View) any { return v.BrandChart })
}

func (h *APIHandlers) HandleCompetitors(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, func(v services.View) any { return v.CompetitorTable })
}

func (h *APIHandlers) HandleCompetitorsOverview(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, func(v services.View) any { return v.CompetitorOverview })
}

func (h *APIHandlers) HandleSupplyChain(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, func(v services.View) any { return v.SupplierChart })
}

func (h *APIHandlers) HandleBaseline(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, func(v services.View) any { return v.Baseline })
}

func (h *APIHandlers) HandleScenario(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, func(v services.View) any { return v.TariffScenario })
}

func (h *APIHandlers) HandleCompetitorScenario(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, func(v services.View) any { return v.CompetitorScenario })
}

func (h *APIHandlers) HandleScenarioExport(w http.ResponseWriter, r *http.Request) {
	v, ok := h.view(w, r)
	if !ok {
		return
	}

	report := export.Report{
		BusinessUnit: v.BusinessUnit,
		GeneratedAt:  time.Now(),
		Baseline:     v.Baseline,
		Tariff:       v.TariffScenario,
		Competitor:   v.CompetitorScenario,
	}
	buf, err := export.Build(report)
	if err != nil {
		errors.WriteError(w, h.logger, errors.InternalWrap(err, "failed to build workbook"), observability.GetRequestID(r.Context()))
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename()))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Error("write workbook", "error", err)
	}
}

type brandTariffsRequest struct {
	BrandID string `json:"brand_id" validate:"required,max=64"`
}

type relocationRequest struct {
	Subject string `json:"subject" validate:"required,max=200"`
	Country string `json:"country" validate:"required,max=100"`
	Prompt  string `json:"prompt" validate:"max=2000"`
}

// decodeBody reads a JSON body into dst and validates it. An empty body is
// accepted when dst has no required fields.
func decodeBody(v *validator.Validate, r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && err != io.EOF {
		return errors.BadRequestWrap(err, "invalid JSON body")
	}
	if err := v.Struct(dst); err != nil {
		return errors.ValidationWrap(err, "invalid request")
	}
	return nil
}

func (h *APIHandlers) HandleProductTariffs(w http.ResponseWriter, r *http.Request) {
	table, err := h.advisor.ProductTariffs(r.Context())
	if err != nil {
		errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
		return
	}
	errors.WriteSuccess(w, table)
}

func (h *APIHandlers) HandleBrandTariffs(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	var req brandTariffsRequest
	if err := decodeBody(h.validate, r, &req); err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}

	table, err := h.advisor.BrandTariffs(r.Context(), req.BrandID)
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}
	errors.WriteSuccess(w, table)
}

func (h *APIHandlers) HandleRelocation(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	var req relocationRequest
	if err := decodeBody(h.validate, r, &req); err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}

	narrative, err := h.advisor.Relocation(r.Context(), req.Subject, req.Country, req.Prompt)
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}
	errors.WriteSuccess(w, narrative)
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   healthVersion,
	})
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, h.dashboard.Stats())
}
