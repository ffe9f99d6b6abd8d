package handlers

import (
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/starfederation/datastar-go/datastar"

	"bizops-dashboard/internal/errors"
	"bizops-dashboard/internal/observability"
	"bizops-dashboard/internal/resolver"
	"bizops-dashboard/internal/services"
)

// inputsByPath maps /sse/{input} to the graph inputs it changes.
var inputsByPath = map[string][]string{
	"business-unit":    {services.InputBusinessUnit, services.InputBrandClick, services.InputCompetitorClick},
	"brand-click":      {services.InputBrandClick},
	"competitor-click": {services.InputCompetitorClick},
	"scenario":         {services.InputTariffPct, services.InputScenarioClicks},
	"country":          {services.InputCountry},
}

// chartSignals maps chart outputs to the local client signal holding their
// points. Local signals are never sent back to the server.
var chartSignals = map[string]string{
	services.NodeBrandChart:    "_brandChart",
	services.NodeSupplierChart: "_supplierChart",
}

type SSEHandlers struct {
	dashboard *services.Dashboard
	advisor   *services.Advisor
	validate  *validator.Validate
	logger    *slog.Logger
}

func NewSSEHandlers(dashboard *services.Dashboard, advisor *services.Advisor, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		dashboard: dashboard,
		advisor:   advisor,
		validate:  newValidator(),
		logger:    logger,
	}
}

// pctSignal accepts the tariff percentage as a JSON string or number; a
// numeric input bound by datastar may arrive as either.
type pctSignal string

func (p *pctSignal) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*p = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*p = pctSignal(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("tariffPct must be a string or number: %w", err)
	}
	*p = pctSignal(n.String())
	return nil
}

// dashboardSignals are the signals the selection and scenario outputs read.
// Other signals on the page are ignored so that drafts elsewhere cannot
// block a recompute.
type dashboardSignals struct {
	BusinessUnit    string    `json:"businessUnit" validate:"max=200"`
	BrandClick      []string  `json:"brandClick" validate:"max=100,dive,max=200"`
	CompetitorClick []string  `json:"competitorClick" validate:"max=100,dive,max=200"`
	TariffPct       pctSignal `json:"tariffPct" validate:"omitempty,numeric"`
	ScenarioClicks  int       `json:"scenarioClicks" validate:"min=0"`
	Country         string    `json:"country" validate:"max=100"`
}

type relocationSignals struct {
	RelocSubject string `json:"relocSubject" validate:"max=200"`
	RelocCountry string `json:"relocCountry" validate:"max=100"`
	RelocPrompt  string `json:"relocPrompt" validate:"max=2000"`
}

// readSignals decodes the datastar signals into dst and validates only the
// fields dst declares.
func (h *SSEHandlers) readSignals(r *http.Request, dst any) error {
	if err := datastar.ReadSignals(r, dst); err != nil {
		return errors.BadRequestWrap(err, "invalid signals")
	}
	if err := h.validate.Struct(dst); err != nil {
		return errors.ValidationWrap(err, "invalid signals")
	}
	return nil
}

func (s dashboardSignals) state() (services.State, error) {
	pct, err := parsePct(string(s.TariffPct))
	if err != nil {
		return services.State{}, err
	}
	return services.State{
		Selection: resolver.Selection{
			BusinessUnit:    strings.TrimSpace(s.BusinessUnit),
			BrandClick:      s.BrandClick,
			CompetitorClick: s.CompetitorClick,
		},
		TariffPct:      pct,
		ScenarioClicks: s.ScenarioClicks,
		Country:        strings.TrimSpace(s.Country),
	}, nil
}

// HandleInput recomputes the outputs downstream of one changed input and
// patches only those.
func (h *SSEHandlers) HandleInput(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	name := r.PathValue("input")
	changed, ok := inputsByPath[name]
	if !ok {
		errors.WriteError(w, h.logger, errors.NotFound("unknown input "+name), requestID)
		return
	}

	var signals dashboardSignals
	if err := h.readSignals(r, &signals); err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}
	st, err := signals.state()
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}

	resetClicks := name == "business-unit"
	if resetClicks {
		st.Selection.BrandClick = nil
		st.Selection.CompetitorClick = nil
	}

	view, err := h.dashboard.Recompute(r.Context(), st, changed...)
	if err != nil {
		errors.WriteError(w, h.logger, errors.InternalWrap(err, "failed to recompute dashboard"), requestID)
		return
	}

	sse := datastar.NewSSE(w, r)
	extra := map[string]any{}
	if resetClicks {
		extra["brandClick"] = []string{}
		extra["competitorClick"] = []string{}
	}
	h.patchView(sse, view, extra)
	flush(w)
}

func (h *SSEHandlers) HandleRefreshAll(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	var signals dashboardSignals
	if err := h.readSignals(r, &signals); err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}
	st, err := signals.state()
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}

	view, err := h.dashboard.Snapshot(r.Context(), st)
	if err != nil {
		errors.WriteError(w, h.logger, errors.InternalWrap(err, "failed to compute dashboard"), requestID)
		return
	}

	sse := datastar.NewSSE(w, r)
	h.patchView(sse, view, nil)
	flush(w)
}

func (h *SSEHandlers) patchView(sse *datastar.ServerSentEventGenerator, view services.View, signals map[string]any) {
	if signals == nil {
		signals = map[string]any{}
	}

	for _, node := range view.Updated {
		if key, ok := chartSignals[node]; ok {
			switch node {
			case services.NodeBrandChart:
				signals[key] = view.BrandChart
			case services.NodeSupplierChart:
				signals[key] = view.SupplierChart
			}
			continue
		}

		html, ok, err := renderNode(node, view)
		if err != nil {
			h.logger.Error("render fragment", "node", node, "error", err)
			continue
		}
		if !ok {
			continue
		}
		if err := sse.PatchElements(html); err != nil {
			h.logger.Debug("patch elements", "node", node, "error", err)
			return
		}
	}

	if len(signals) == 0 {
		return
	}
	payload, err := json.Marshal(signals)
	if err != nil {
		h.logger.Error("marshal signals", "error", err)
		return
	}
	if err := sse.PatchSignals(payload); err != nil {
		h.logger.Debug("patch signals", "error", err)
	}
}

// HandleProductTariffs shows a placeholder, then the decoded tariff table or
// the error.
func (h *SSEHandlers) HandleProductTariffs(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)
	h.patchFragment(sse, "productTable", productTableData{Loading: true})
	flush(w)

	table, err := h.advisor.ProductTariffs(r.Context())
	if err != nil {
		h.patchFragment(sse, "productTable", productTableData{Error: userMessage(err)})
	} else {
		h.patchFragment(sse, "productTable", productTableData{Subject: table.Subject, Rows: table.Rows})
	}
	flush(w)
}

// HandleRelocation appends the question's answer to the chat panel.
func (h *SSEHandlers) HandleRelocation(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	var signals relocationSignals
	if err := h.readSignals(r, &signals); err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}

	sse := datastar.NewSSE(w, r)
	msg := chatMessageData{Subject: signals.RelocSubject, Country: signals.RelocCountry}

	narrative, err := h.advisor.Relocation(r.Context(), signals.RelocSubject, signals.RelocCountry, signals.RelocPrompt)
	if err != nil {
		msg.Error = userMessage(err)
	} else {
		msg.Subject, msg.Country = narrative.Subject, narrative.Country
		msg.HTML = template.HTML(narrative.HTML)
	}

	html, err := renderFragment("chatMessage", msg)
	if err != nil {
		h.logger.Error("render chat message", "error", err)
		return
	}
	if err := sse.PatchElements(html,
		datastar.WithSelector("#relocation-chat"),
		datastar.WithModeAppend(),
	); err != nil {
		h.logger.Debug("patch chat message", "error", err)
	}
	flush(w)
}

func (h *SSEHandlers) patchFragment(sse *datastar.ServerSentEventGenerator, name string, data any) {
	html, err := renderFragment(name, data)
	if err != nil {
		h.logger.Error("render fragment", "name", name, "error", err)
		return
	}
	if err := sse.PatchElements(html); err != nil {
		h.logger.Debug("patch elements", "name", name, "error", err)
	}
}

func userMessage(err error) string {
	return errors.MessageOf(err, "request failed")
}

func flush(w http.ResponseWriter) {
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
