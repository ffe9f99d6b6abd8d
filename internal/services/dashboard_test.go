package services

import (
	"context"
	"slices"
	"testing"

	"github.com/shopspring/decimal"

	"bizops-dashboard/internal/models"
	"bizops-dashboard/internal/observability"
	"bizops-dashboard/internal/resolver"
	"bizops-dashboard/internal/store"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testStore() *store.Store {
	brands := []models.Brand{
		{ID: "1", Name: "Apex", BusinessUnit: "Outdoor", RevenueUSD: dec("1000000"), Description: "helmets"},
		{ID: "2", Name: "Summit", BusinessUnit: "Outdoor", RevenueUSD: dec("3000000"), Description: "binoculars"},
		{ID: "3", Name: "Vector", BusinessUnit: "Defense", RevenueUSD: dec("5000000"), Description: "optics"},
	}
	competitors := []models.Competitor{
		{ID: "101", Name: "Zeta", BrandIDs: []string{"1"}, RevenueUSD: dec("2000000")},
		{ID: "102", Name: "Orion", BrandIDs: []string{"2", "3"}, RevenueUSD: dec("4000000")},
		{ID: "103", Name: "Nova", BrandIDs: []string{"3"}, RevenueUSD: dec("1000000")},
	}
	supply := []models.SupplyChainRow{
		{CompetitorID: "101", Country: "China", ProportionImports: decimal.NewNullDecimal(dec("30"))},
		{CompetitorID: "101", Country: "Mexico", ProportionImports: decimal.NewNullDecimal(dec("70"))},
		{CompetitorID: "103", Country: "China", ProportionImports: decimal.NewNullDecimal(dec("50"))},
	}
	return store.New(brands, competitors, supply)
}

func newTestDashboard(t *testing.T) *Dashboard {
	t.Helper()
	d, err := NewDashboard(testStore(), "China", observability.NewMetrics(), nil)
	if err != nil {
		t.Fatalf("NewDashboard() error = %v", err)
	}
	return d
}

func TestDashboard_NoSelectionIsEmpty(t *testing.T) {
	d := newTestDashboard(t)

	view, err := d.Snapshot(context.Background(), State{})
	if err != nil {
		t.Fatal(err)
	}

	if len(view.BrandChart) != 0 || len(view.BrandTable) != 0 || len(view.CompetitorTable) != 0 {
		t.Errorf("expected empty outputs, got %+v", view)
	}
	if view.TariffScenario.Applied || view.CompetitorScenario.Applied {
		t.Error("scenarios should not apply without a selection")
	}
	if len(view.Updated) != len(d.graph.Order()) {
		t.Errorf("full snapshot should update every node, got %v", view.Updated)
	}
}

func TestDashboard_BusinessUnitSelection(t *testing.T) {
	d := newTestDashboard(t)

	view, err := d.Snapshot(context.Background(), State{
		Selection: resolver.Selection{BusinessUnit: "Outdoor"},
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(view.BrandChart) != 2 {
		t.Fatalf("brand chart = %v, want 2 points", view.BrandChart)
	}
	if view.BrandChart[0].Category != "Summit" {
		t.Errorf("brand chart should be sorted by revenue desc, first = %s", view.BrandChart[0].Category)
	}

	var names []string
	for _, c := range view.CompetitorTable {
		names = append(names, c.CompetitorName)
	}
	if !slices.Equal(names, []string{"Zeta", "Orion"}) {
		t.Errorf("competitors = %v, want [Zeta Orion]", names)
	}

	if got := view.Baseline.Total.Revenue; !got.Equal(dec("4000000")) {
		t.Errorf("baseline revenue = %s, want 4000000", got)
	}
}

func TestDashboard_BrandClickNarrowsTableNotChart(t *testing.T) {
	d := newTestDashboard(t)

	view, err := d.Snapshot(context.Background(), State{
		Selection: resolver.Selection{BusinessUnit: "Outdoor", BrandClick: []string{"Apex"}},
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(view.BrandChart) != 2 {
		t.Errorf("brand chart should keep the whole unit, got %d points", len(view.BrandChart))
	}
	if len(view.BrandTable) != 1 || view.BrandTable[0].BrandName != "Apex" {
		t.Errorf("brand table = %v, want only Apex", view.BrandTable)
	}
}

func TestDashboard_TariffScenarioWorkedExample(t *testing.T) {
	d := newTestDashboard(t)

	view, err := d.Snapshot(context.Background(), State{
		Selection:      resolver.Selection{BusinessUnit: "Outdoor", BrandClick: []string{"Apex"}},
		TariffPct:      decimal.NewNullDecimal(dec("20")),
		ScenarioClicks: 1,
	})
	if err != nil {
		t.Fatal(err)
	}

	res := view.TariffScenario
	if !res.Applied || len(res.Brands) != 1 {
		t.Fatalf("tariff scenario = %+v", res)
	}
	b := res.Brands[0]
	if !b.NewTariffCost.Equal(dec("270000")) || !b.NewCOGS.Equal(dec("545000")) || !b.NewProfit.Equal(dec("455000")) {
		t.Errorf("got tariff=%s cogs=%s profit=%s", b.NewTariffCost, b.NewCOGS, b.NewProfit)
	}
}

func TestDashboard_ScenarioNeedsClick(t *testing.T) {
	d := newTestDashboard(t)

	view, err := d.Snapshot(context.Background(), State{
		Selection: resolver.Selection{BusinessUnit: "Outdoor"},
		TariffPct: decimal.NewNullDecimal(dec("20")),
	})
	if err != nil {
		t.Fatal(err)
	}
	if view.TariffScenario.Applied {
		t.Error("scenario should not apply before the trigger is clicked")
	}
}

func TestDashboard_CompetitorScenarioDefaultsCountry(t *testing.T) {
	d := newTestDashboard(t)

	view, err := d.Snapshot(context.Background(), State{
		Selection:      resolver.Selection{BusinessUnit: "Outdoor", CompetitorClick: []string{"Zeta"}},
		TariffPct:      decimal.NewNullDecimal(dec("20")),
		ScenarioClicks: 1,
	})
	if err != nil {
		t.Fatal(err)
	}

	res := view.CompetitorScenario
	if res.Country != "China" {
		t.Errorf("country = %q, want China", res.Country)
	}
	if len(res.Competitors) != 1 {
		t.Fatalf("competitors = %+v", res.Competitors)
	}
	// 2,000,000 revenue: cogs 1,000,000 * 30% * 20% = 60,000
	if got := res.Competitors[0].CountryTariffCost; !got.Equal(dec("60000")) {
		t.Errorf("country tariff cost = %s, want 60000", got)
	}
}

func TestDashboard_RecomputeOnlyAffected(t *testing.T) {
	d := newTestDashboard(t)

	view, err := d.Recompute(context.Background(), State{
		Selection:      resolver.Selection{BusinessUnit: "Outdoor"},
		TariffPct:      decimal.NewNullDecimal(dec("10")),
		ScenarioClicks: 2,
	}, InputTariffPct)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{NodeTariffScenario, NodeCompetitorScenario}
	if !slices.Equal(view.Updated, want) {
		t.Errorf("updated = %v, want %v", view.Updated, want)
	}
	if !view.TariffScenario.Applied {
		t.Error("tariff scenario should have been computed")
	}
	if view.BrandTable != nil {
		t.Error("brand table should not be part of a tariff-only update")
	}
}

func TestDashboard_AffectedByCountry(t *testing.T) {
	d := newTestDashboard(t)

	if got := d.Affected(InputCountry); !slices.Equal(got, []string{NodeCompetitorScenario}) {
		t.Errorf("Affected(country) = %v", got)
	}
	if got := d.Affected(InputBrandClick); slices.Contains(got, NodeBrandChart) {
		t.Errorf("brand click should not redraw the brand chart: %v", got)
	}
}

func TestDashboard_Stats(t *testing.T) {
	d := newTestDashboard(t)
	stats := d.Stats()

	if stats["brands"] != 3 {
		t.Errorf("brands = %v, want 3", stats["brands"])
	}
	if stats["graph_nodes"] != 10 {
		t.Errorf("graph_nodes = %v, want 10", stats["graph_nodes"])
	}
	if got := d.BusinessUnits(); !slices.Equal(got, []string{"Outdoor", "Defense"}) {
		t.Errorf("BusinessUnits() = %v", got)
	}
}

func TestCompetitorsOverview(t *testing.T) {
	s := testStore()
	rows := CompetitorsOverview(s.Competitors(), s.SupplyChain())

	if len(rows) != 4 {
		t.Fatalf("rows = %d, want 4", len(rows))
	}
	last := rows[2]
	if last.CompetitorName != "Orion" || last.SupplierCountry != "" {
		t.Errorf("competitor without supply should have an empty country, got %+v", last)
	}
}

func TestSupplierChart(t *testing.T) {
	s := testStore()
	points := SupplierChart(s.Competitors(), s.SupplyChain())

	if len(points) != 3 {
		t.Fatalf("points = %d, want 3", len(points))
	}
	if points[0].Series != "Nova" || points[0].Value != 50 {
		t.Errorf("first point = %+v", points[0])
	}
}
