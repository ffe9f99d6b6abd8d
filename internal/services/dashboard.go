package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"bizops-dashboard/internal/graph"
	"bizops-dashboard/internal/models"
	"bizops-dashboard/internal/observability"
	"bizops-dashboard/internal/resolver"
	"bizops-dashboard/internal/scenario"
)

// Inputs of the dashboard graph.
const (
	InputBusinessUnit    = "businessUnit"
	InputBrandClick      = "brandClick"
	InputCompetitorClick = "competitorClick"
	InputTariffPct       = "tariffPct"
	InputScenarioClicks  = "scenarioClicks"
	InputCountry         = "country"
)

// Outputs of the dashboard graph.
const (
	NodeUnitScope          = "unitScope"
	NodeSelection          = "selection"
	NodeBrandChart         = "brandChart"
	NodeSupplierChart      = "supplierChart"
	NodeBrandTable         = "brandTable"
	NodeCompetitorTable    = "competitorTable"
	NodeCompetitorOverview = "competitorOverview"
	NodeBaseline           = "baseline"
	NodeTariffScenario     = "tariffScenario"
	NodeCompetitorScenario = "competitorScenario"
)

// DataSource is everything the dashboard reads from the loaded datasets.
type DataSource interface {
	resolver.Source
	BusinessUnits() []string
	Brand(id string) (models.Brand, bool)
	Stats() map[string]any
}

// State is the full set of user inputs at one point in time.
type State struct {
	Selection      resolver.Selection
	TariffPct      decimal.NullDecimal
	ScenarioClicks int
	Country        string
}

func (s State) values() graph.Values {
	return graph.Values{
		InputBusinessUnit:    s.Selection.BusinessUnit,
		InputBrandClick:      s.Selection.BrandClick,
		InputCompetitorClick: s.Selection.CompetitorClick,
		InputTariffPct:       s.TariffPct,
		InputScenarioClicks:  s.ScenarioClicks,
		InputCountry:         s.Country,
	}
}

// View holds every dashboard output. After a partial recompute only the
// fields named in Updated are meaningful.
type View struct {
	BusinessUnit       string                      `json:"business_unit"`
	BrandChart         []models.ChartPoint         `json:"brand_chart"`
	SupplierChart      []models.ChartPoint         `json:"supplier_chart"`
	BrandTable         []models.BrandDetail        `json:"brand_table"`
	CompetitorTable    []models.CompetitorRow      `json:"competitor_table"`
	CompetitorOverview []models.CompetitorOverview `json:"competitor_overview"`
	Baseline           scenario.Baseline           `json:"baseline"`
	TariffScenario     scenario.TariffResult       `json:"tariff_scenario"`
	CompetitorScenario scenario.CompetitorResult   `json:"competitor_scenario"`
	Updated            []string                    `json:"updated"`
}

type Dashboard struct {
	data           DataSource
	graph          *graph.Graph
	defaultCountry string
	metrics        *observability.Metrics
	logger         *slog.Logger
}

func NewDashboard(data DataSource, defaultCountry string, metrics *observability.Metrics, logger *slog.Logger) (*Dashboard, error) {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dashboard{
		data:           data,
		defaultCountry: defaultCountry,
		metrics:        metrics,
		logger:         logger,
	}

	g, err := graph.New(d.nodes()...)
	if err != nil {
		return nil, fmt.Errorf("build dashboard graph: %w", err)
	}
	d.graph = g
	return d, nil
}

func (d *Dashboard) nodes() []graph.Node {
	return []graph.Node{
		{
			Name:   NodeUnitScope,
			Inputs: []string{InputBusinessUnit},
			Compute: func(_ context.Context, in graph.Values) (any, error) {
				return resolver.Resolve(d.data, resolver.Selection{
					BusinessUnit: graph.Get[string](in, InputBusinessUnit),
				}), nil
			},
		},
		{
			Name:   NodeSelection,
			Inputs: []string{InputBusinessUnit, InputBrandClick, InputCompetitorClick},
			Compute: func(_ context.Context, in graph.Values) (any, error) {
				return resolver.Resolve(d.data, resolver.Selection{
					BusinessUnit:    graph.Get[string](in, InputBusinessUnit),
					BrandClick:      graph.Get[[]string](in, InputBrandClick),
					CompetitorClick: graph.Get[[]string](in, InputCompetitorClick),
				}), nil
			},
		},
		subsetNode(NodeBrandChart, NodeUnitScope, func(s resolver.Subset) any {
			return BrandRevenueChart(s.Brands)
		}),
		subsetNode(NodeSupplierChart, NodeUnitScope, func(s resolver.Subset) any {
			return SupplierChart(s.Competitors, s.Supply)
		}),
		subsetNode(NodeBrandTable, NodeSelection, func(s resolver.Subset) any {
			return BrandDetails(s.Brands)
		}),
		subsetNode(NodeCompetitorTable, NodeSelection, func(s resolver.Subset) any {
			return CompetitorRows(s.Competitors)
		}),
		subsetNode(NodeCompetitorOverview, NodeSelection, func(s resolver.Subset) any {
			return CompetitorsOverview(s.Competitors, s.Supply)
		}),
		subsetNode(NodeBaseline, NodeSelection, func(s resolver.Subset) any {
			return scenario.ComputeBaseline(s.Brands)
		}),
		{
			Name:   NodeTariffScenario,
			Inputs: []string{NodeSelection, InputTariffPct, InputScenarioClicks},
			Compute: func(_ context.Context, in graph.Values) (any, error) {
				sub := graph.Get[resolver.Subset](in, NodeSelection)
				res := scenario.ApplyTariffScenario(sub.Brands, inputFrom(in))
				d.metrics.ScenarioRun("tariff", res.Applied)
				return res, nil
			},
		},
		{
			Name:   NodeCompetitorScenario,
			Inputs: []string{NodeSelection, InputTariffPct, InputScenarioClicks, InputCountry},
			Compute: func(_ context.Context, in graph.Values) (any, error) {
				sub := graph.Get[resolver.Subset](in, NodeSelection)
				country := graph.Get[string](in, InputCountry)
				if country == "" {
					country = d.defaultCountry
				}
				res := scenario.ApplyCompetitorTariffScenario(sub.Competitors, sub.Supply, country, inputFrom(in))
				d.metrics.ScenarioRun("competitor", res.Applied)
				return res, nil
			},
		},
	}
}

func subsetNode(name, input string, fn func(resolver.Subset) any) graph.Node {
	return graph.Node{
		Name:   name,
		Inputs: []string{input},
		Compute: func(_ context.Context, in graph.Values) (any, error) {
			return fn(graph.Get[resolver.Subset](in, input)), nil
		},
	}
}

func inputFrom(in graph.Values) scenario.Input {
	return scenario.Input{
		TariffIncreasePct: graph.Get[decimal.NullDecimal](in, InputTariffPct),
		Clicks:            graph.Get[int](in, InputScenarioClicks),
	}
}

// Recompute evaluates the outputs downstream of the changed inputs. With no
// changed inputs every output is evaluated.
func (d *Dashboard) Recompute(ctx context.Context, st State, changed ...string) (View, error) {
	ctx, span := observability.StartSpan(ctx, "dashboard.recompute")
	defer span.Finish()

	res, err := d.graph.Evaluate(ctx, st.values(), changed...)
	if err != nil {
		span.SetError(err)
		return View{}, err
	}

	input := ""
	if len(changed) == 1 {
		input = changed[0]
	}
	d.metrics.Recomputed(input, len(res.Updated))
	span.SetTag("updated", fmt.Sprint(len(res.Updated)))
	observability.LoggerFrom(ctx, d.logger).Debug("dashboard recomputed",
		"business_unit", st.Selection.BusinessUnit,
		"changed", changed,
		"updated", res.Updated)

	return View{
		BusinessUnit:       st.Selection.BusinessUnit,
		BrandChart:         graph.Get[[]models.ChartPoint](res.Values, NodeBrandChart),
		SupplierChart:      graph.Get[[]models.ChartPoint](res.Values, NodeSupplierChart),
		BrandTable:         graph.Get[[]models.BrandDetail](res.Values, NodeBrandTable),
		CompetitorTable:    graph.Get[[]models.CompetitorRow](res.Values, NodeCompetitorTable),
		CompetitorOverview: graph.Get[[]models.CompetitorOverview](res.Values, NodeCompetitorOverview),
		Baseline:           graph.Get[scenario.Baseline](res.Values, NodeBaseline),
		TariffScenario:     graph.Get[scenario.TariffResult](res.Values, NodeTariffScenario),
		CompetitorScenario: graph.Get[scenario.CompetitorResult](res.Values, NodeCompetitorScenario),
		Updated:            res.Updated,
	}, nil
}

// Snapshot evaluates every output for st.
func (d *Dashboard) Snapshot(ctx context.Context, st State) (View, error) {
	return d.Recompute(ctx, st)
}

func (d *Dashboard) BusinessUnits() []string {
	return d.data.BusinessUnits()
}

func (d *Dashboard) DefaultCountry() string {
	return d.defaultCountry
}

// Affected reports which outputs a change to input would redraw.
func (d *Dashboard) Affected(input string) []string {
	return d.graph.Affected(input)
}

func (d *Dashboard) Stats() map[string]any {
	stats := d.data.Stats()
	stats["graph_nodes"] = len(d.graph.Order())
	stats["graph_inputs"] = d.graph.Sources()
	stats["default_country"] = d.defaultCountry
	stats["generated_at"] = time.Now().UTC()
	return stats
}
