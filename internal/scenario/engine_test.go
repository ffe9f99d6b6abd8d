package scenario

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizops-dashboard/internal/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s, got %s", want, got.String())
}

func brand(id, name, revenue string) models.Brand {
	return models.Brand{ID: id, Name: name, BusinessUnit: "U", RevenueUSD: dec(revenue)}
}

func competitor(id, revenue string, brandIDs ...string) models.Competitor {
	return models.Competitor{ID: id, Name: "comp-" + id, BrandIDs: brandIDs, RevenueUSD: dec(revenue)}
}

func supplyRow(competitorID, country, proportion string) models.SupplyChainRow {
	r := models.SupplyChainRow{CompetitorID: competitorID, Country: country}
	if proportion != "" {
		r.ProportionImports = decimal.NewNullDecimal(dec(proportion))
	}
	return r
}

func sampleBrands() []models.Brand {
	return []models.Brand{
		brand("1", "A", "1000000"),
		brand("2", "B", "333333.33"),
		brand("3", "C", "0"),
		brand("4", "D", "12.5"),
	}
}

func TestComputeBaseline_WorkedExample(t *testing.T) {
	res := ComputeBaseline([]models.Brand{brand("1", "A", "1000000")})

	require.Len(t, res.Brands, 1)
	b := res.Brands[0]
	assertDec(t, "500000", b.Profit)
	assertDec(t, "500000", b.COGS)
	assertDec(t, "225000", b.TariffCost)
	assertDec(t, "1000000", res.Total.Revenue)
}

func TestComputeBaseline_Invariants(t *testing.T) {
	res := ComputeBaseline(sampleBrands())

	require.Len(t, res.Brands, 4)
	for _, b := range res.Brands {
		assert.True(t, b.Profit.Add(b.COGS).Equal(b.Revenue), "profit + cogs == revenue for %s", b.BrandName)
		assert.True(t, b.COGS.Equal(b.Revenue.Mul(dec("0.5"))), "cogs == 0.5 * revenue for %s", b.BrandName)
		assert.True(t, b.TariffCost.Equal(b.COGS.Mul(dec("0.45"))), "tariff == 0.45 * cogs for %s", b.BrandName)
	}

	assertDec(t, "1333345.83", res.Total.Revenue)
	assert.True(t, res.Total.Profit.Add(res.Total.COGS).Equal(res.Total.Revenue))
}

func TestComputeBaseline_Empty(t *testing.T) {
	res := ComputeBaseline(nil)

	assert.Empty(t, res.Brands)
	assert.True(t, res.Total.Revenue.IsZero())
}

func TestApplyTariffScenario_WorkedExample(t *testing.T) {
	res := ApplyTariffScenario([]models.Brand{brand("1", "A", "1000000")}, NewInput(dec("20")))

	require.True(t, res.Applied)
	require.Len(t, res.Brands, 1)
	b := res.Brands[0]
	assertDec(t, "500000", b.BaselineProfit)
	assertDec(t, "500000", b.BaselineCOGS)
	assertDec(t, "225000", b.TariffCost)
	assertDec(t, "270000", b.NewTariffCost)
	assertDec(t, "545000", b.NewCOGS)
	assertDec(t, "455000", b.NewProfit)
	assertDec(t, "50", res.BaselineMarginPct)
	assertDec(t, "45.5", res.NewMarginPct)
}

func TestApplyTariffScenario_ZeroIsIdentity(t *testing.T) {
	res := ApplyTariffScenario(sampleBrands(), NewInput(decimal.Zero))

	require.True(t, res.Applied)
	for _, b := range res.Brands {
		assert.True(t, b.NewProfit.Equal(b.BaselineProfit), b.BrandName)
		assert.True(t, b.NewCOGS.Equal(b.BaselineCOGS), b.BrandName)
		assert.True(t, b.NewTariffCost.Equal(b.TariffCost), b.BrandName)
	}
	assert.True(t, res.NewMarginPct.Equal(res.BaselineMarginPct))
}

func TestApplyTariffScenario_Monotonic(t *testing.T) {
	brands := []models.Brand{brand("1", "A", "1000000"), brand("2", "B", "42.42")}
	pcts := []string{"0.5", "1", "10", "20", "55.5", "100", "250"}

	var prev *TariffResult
	for _, p := range pcts {
		res := ApplyTariffScenario(brands, NewInput(dec(p)))
		require.True(t, res.Applied)
		if prev != nil {
			for i := range res.Brands {
				assert.True(t, res.Brands[i].NewTariffCost.GreaterThan(prev.Brands[i].NewTariffCost), "tariff cost at %s%%", p)
				assert.True(t, res.Brands[i].NewProfit.LessThan(prev.Brands[i].NewProfit), "profit at %s%%", p)
			}
			assert.True(t, res.NewMarginPct.LessThan(prev.NewMarginPct))
		}
		prev = &res
	}
}

func TestApplyTariffScenario_Guards(t *testing.T) {
	tests := []struct {
		name   string
		brands []models.Brand
		in     Input
	}{
		{"no percentage", sampleBrands(), Input{Clicks: 1}},
		{"not clicked", sampleBrands(), Input{TariffIncreasePct: decimal.NewNullDecimal(dec("20"))}},
		{"negative clicks", sampleBrands(), Input{TariffIncreasePct: decimal.NewNullDecimal(dec("20")), Clicks: -1}},
		{"empty subset", nil, NewInput(dec("20"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ApplyTariffScenario(tt.brands, tt.in)
			assert.False(t, res.Applied)
			assert.NotNil(t, res.Brands)
			assert.Empty(t, res.Brands)
		})
	}
}

func TestApplyTariffScenario_ZeroRevenueMargins(t *testing.T) {
	res := ApplyTariffScenario([]models.Brand{brand("1", "A", "0")}, NewInput(dec("20")))

	require.True(t, res.Applied)
	assert.True(t, res.BaselineMarginPct.IsZero())
	assert.True(t, res.NewMarginPct.IsZero())
}

func TestApplyCompetitorTariffScenario(t *testing.T) {
	competitors := []models.Competitor{
		competitor("101", "1000000", "1"),
		competitor("102", "1000000", "2"),
		competitor("103", "1000000", "3"),
		competitor("104", "2000000", "4"),
	}
	supply := []models.SupplyChainRow{
		supplyRow("101", "China", "60"),
		supplyRow("101", "Japan", "40"),
		supplyRow("102", "Vietnam", "100"),
		supplyRow("103", "China", ""),
		supplyRow("104", "China", "10"),
		supplyRow("104", "China", "15"),
	}

	res := ApplyCompetitorTariffScenario(competitors, supply, "China", NewInput(dec("20")))

	require.True(t, res.Applied)
	assert.Equal(t, "China", res.Country)
	require.Len(t, res.Competitors, 4)

	// 500000 * 0.6 * 0.2
	c := res.Competitors[0]
	assertDec(t, "60", c.ProportionImports)
	assertDec(t, "500000", c.BaselineCOGS)
	assertDec(t, "60000", c.CountryTariffCost)
	assertDec(t, "560000", c.NewCOGS)
	assertDec(t, "440000", c.NewProfit)

	for _, c := range res.Competitors[1:3] {
		assert.True(t, c.NewProfit.Equal(c.BaselineProfit), "%s has no China exposure", c.CompetitorID)
		assert.True(t, c.CountryTariffCost.IsZero())
	}

	// duplicate rows for one country are summed: 1000000 * 0.25 * 0.2
	assertDec(t, "25", res.Competitors[3].ProportionImports)
	assertDec(t, "50000", res.Competitors[3].CountryTariffCost)
}

func TestApplyCompetitorTariffScenario_ZeroProportionUnaffectedAtAnyPct(t *testing.T) {
	competitors := []models.Competitor{competitor("1", "750000", "1")}
	supply := []models.SupplyChainRow{supplyRow("1", "China", "0")}

	for _, p := range []string{"0", "5", "50", "500"} {
		res := ApplyCompetitorTariffScenario(competitors, supply, "China", NewInput(dec(p)))
		require.True(t, res.Applied)
		assert.True(t, res.Competitors[0].NewProfit.Equal(res.Competitors[0].BaselineProfit), "pct %s", p)
	}
}

func TestApplyCompetitorTariffScenario_Guards(t *testing.T) {
	competitors := []models.Competitor{competitor("1", "100", "1")}

	res := ApplyCompetitorTariffScenario(competitors, nil, "China", Input{Clicks: 3})
	assert.False(t, res.Applied)
	assert.Empty(t, res.Competitors)

	res = ApplyCompetitorTariffScenario(nil, nil, "China", NewInput(dec("10")))
	assert.False(t, res.Applied)
}

func TestFormulasDiffer(t *testing.T) {
	brands := []models.Brand{brand("1", "A", "1000000")}
	competitors := []models.Competitor{competitor("1", "1000000", "1")}
	supply := []models.SupplyChainRow{supplyRow("1", "China", "100")}
	in := NewInput(dec("20"))

	uniform := ApplyTariffScenario(brands, in).Brands[0]
	weighted := ApplyCompetitorTariffScenario(competitors, supply, "China", in).Competitors[0]

	// uniform scales the 45% tariff slice, weighted scales the whole imported COGS
	assertDec(t, "455000", uniform.NewProfit)
	assertDec(t, "400000", weighted.NewProfit)
}

func TestImportProportions(t *testing.T) {
	supply := []models.SupplyChainRow{
		supplyRow("a", "China", "30"),
		supplyRow("a", "China", "20"),
		supplyRow("b", "China", ""),
		supplyRow("c", "India", "70"),
	}

	got := ImportProportions(supply, "China")
	assertDec(t, "50", got["a"])
	assertDec(t, "0", got["b"])
	_, ok := got["c"]
	assert.False(t, ok)
}
