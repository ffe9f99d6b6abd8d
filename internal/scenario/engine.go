// Package scenario computes baseline financials and tariff what-if
// scenarios over a set of brands or competitors.
//
// The model assumes a fixed 50% profit margin on revenue and attributes a
// fixed 45% of COGS to tariff and trade costs. Both scenario formulas are
// kept separate: the uniform scenario scales the whole tariff cost, the
// country-weighted one scales only the share of COGS sourced from a single
// country.
package scenario

import (
	"github.com/shopspring/decimal"

	"bizops-dashboard/internal/models"
)

var (
	ProfitMargin    = decimal.RequireFromString("0.5")
	TariffCostShare = decimal.RequireFromString("0.45")

	hundred = decimal.NewFromInt(100)
)

// Input is the scenario request as entered by the user. A scenario only runs
// when a percentage is present and the trigger was clicked at least once.
type Input struct {
	TariffIncreasePct decimal.NullDecimal
	Clicks            int
}

// NewInput is a convenience for callers that always have a percentage.
func NewInput(pct decimal.Decimal) Input {
	return Input{TariffIncreasePct: decimal.NewNullDecimal(pct), Clicks: 1}
}

func (in Input) ready() bool {
	return in.TariffIncreasePct.Valid && in.Clicks > 0
}

type Metrics struct {
	Revenue    decimal.Decimal `json:"revenue"`
	Profit     decimal.Decimal `json:"profit"`
	COGS       decimal.Decimal `json:"cogs"`
	TariffCost decimal.Decimal `json:"tariff_cost"`
}

func (m Metrics) add(o Metrics) Metrics {
	return Metrics{
		Revenue:    m.Revenue.Add(o.Revenue),
		Profit:     m.Profit.Add(o.Profit),
		COGS:       m.COGS.Add(o.COGS),
		TariffCost: m.TariffCost.Add(o.TariffCost),
	}
}

func baselineOf(revenue decimal.Decimal) Metrics {
	profit := revenue.Mul(ProfitMargin)
	cogs := revenue.Sub(profit)
	return Metrics{
		Revenue:    revenue,
		Profit:     profit,
		COGS:       cogs,
		TariffCost: cogs.Mul(TariffCostShare),
	}
}

type BrandBaseline struct {
	BrandID   string `json:"brand_id"`
	BrandName string `json:"brand_name"`
	Metrics
}

type Baseline struct {
	Brands []BrandBaseline `json:"brands"`
	Total  Metrics         `json:"total"`
}

func ComputeBaseline(brands []models.Brand) Baseline {
	out := Baseline{
		Brands: make([]BrandBaseline, 0, len(brands)),
		Total:  zeroMetrics(),
	}
	for _, b := range brands {
		m := baselineOf(b.RevenueUSD)
		out.Brands = append(out.Brands, BrandBaseline{BrandID: b.ID, BrandName: b.Name, Metrics: m})
		out.Total = out.Total.add(m)
	}
	return out
}

type BrandScenario struct {
	BrandID        string          `json:"brand_id"`
	BrandName      string          `json:"brand_name"`
	Revenue        decimal.Decimal `json:"revenue"`
	BaselineProfit decimal.Decimal `json:"baseline_profit"`
	BaselineCOGS   decimal.Decimal `json:"baseline_cogs"`
	TariffCost     decimal.Decimal `json:"tariff_trade_cost"`
	NewTariffCost  decimal.Decimal `json:"new_tariff_trade_cost"`
	NewCOGS        decimal.Decimal `json:"new_cogs"`
	NewProfit      decimal.Decimal `json:"new_profit"`
}

// TariffResult is the uniform scenario outcome. Applied is false for the
// neutral "no scenario" result, which callers render as nothing.
type TariffResult struct {
	Applied           bool            `json:"applied"`
	TariffIncreasePct decimal.Decimal `json:"tariff_increase_pct"`
	Brands            []BrandScenario `json:"brands"`
	BaselineMarginPct decimal.Decimal `json:"baseline_margin_pct"`
	NewMarginPct      decimal.Decimal `json:"new_margin_pct"`
}

// ApplyTariffScenario raises every brand's tariff cost by the given
// percentage and passes the difference through to COGS.
func ApplyTariffScenario(brands []models.Brand, in Input) TariffResult {
	if !in.ready() || len(brands) == 0 {
		return TariffResult{Brands: []BrandScenario{}}
	}

	pct := in.TariffIncreasePct.Decimal
	factor := decimal.NewFromInt(1).Add(pct.Div(hundred))

	res := TariffResult{
		Applied:           true,
		TariffIncreasePct: pct,
		Brands:            make([]BrandScenario, 0, len(brands)),
	}

	var totalRevenue, totalBaseProfit, totalNewProfit decimal.Decimal
	for _, b := range brands {
		base := baselineOf(b.RevenueUSD)
		newTariff := base.TariffCost.Mul(factor)
		newCOGS := base.COGS.Add(newTariff.Sub(base.TariffCost))
		newProfit := base.Revenue.Sub(newCOGS)

		res.Brands = append(res.Brands, BrandScenario{
			BrandID:        b.ID,
			BrandName:      b.Name,
			Revenue:        base.Revenue,
			BaselineProfit: base.Profit,
			BaselineCOGS:   base.COGS,
			TariffCost:     base.TariffCost,
			NewTariffCost:  newTariff,
			NewCOGS:        newCOGS,
			NewProfit:      newProfit,
		})

		totalRevenue = totalRevenue.Add(base.Revenue)
		totalBaseProfit = totalBaseProfit.Add(base.Profit)
		totalNewProfit = totalNewProfit.Add(newProfit)
	}

	res.BaselineMarginPct = marginPct(totalBaseProfit, totalRevenue)
	res.NewMarginPct = marginPct(totalNewProfit, totalRevenue)
	return res
}

type CompetitorScenario struct {
	CompetitorID      string          `json:"competitor_id"`
	CompetitorName    string          `json:"competitor_name"`
	Revenue           decimal.Decimal `json:"revenue"`
	ProportionImports decimal.Decimal `json:"proportion_imports"`
	BaselineProfit    decimal.Decimal `json:"baseline_profit"`
	BaselineCOGS      decimal.Decimal `json:"baseline_cogs"`
	CountryTariffCost decimal.Decimal `json:"country_tariff_cost"`
	NewCOGS           decimal.Decimal `json:"new_cogs"`
	NewProfit         decimal.Decimal `json:"new_profit"`
}

type CompetitorResult struct {
	Applied           bool                 `json:"applied"`
	Country           string               `json:"country"`
	TariffIncreasePct decimal.Decimal      `json:"tariff_increase_pct"`
	Competitors       []CompetitorScenario `json:"competitors"`
}

// ApplyCompetitorTariffScenario applies the tariff increase only to the part
// of each competitor's COGS imported from country. Competitors without a
// supply row for country, or with a missing proportion, are unaffected.
func ApplyCompetitorTariffScenario(competitors []models.Competitor, supply []models.SupplyChainRow, country string, in Input) CompetitorResult {
	if !in.ready() || len(competitors) == 0 {
		return CompetitorResult{Country: country, Competitors: []CompetitorScenario{}}
	}

	pct := in.TariffIncreasePct.Decimal
	proportions := ImportProportions(supply, country)

	res := CompetitorResult{
		Applied:           true,
		Country:           country,
		TariffIncreasePct: pct,
		Competitors:       make([]CompetitorScenario, 0, len(competitors)),
	}

	for _, c := range competitors {
		base := baselineOf(c.RevenueUSD)
		share := proportions[c.ID]
		countryCost := base.COGS.Mul(share.Div(hundred)).Mul(pct.Div(hundred))
		newCOGS := base.COGS.Add(countryCost)

		res.Competitors = append(res.Competitors, CompetitorScenario{
			CompetitorID:      c.ID,
			CompetitorName:    c.Name,
			Revenue:           base.Revenue,
			ProportionImports: share,
			BaselineProfit:    base.Profit,
			BaselineCOGS:      base.COGS,
			CountryTariffCost: countryCost,
			NewCOGS:           newCOGS,
			NewProfit:         base.Revenue.Sub(newCOGS),
		})
	}
	return res
}

// ImportProportions sums the import share per competitor for one country.
// Shares are used as loaded; they are never normalised to 100.
func ImportProportions(supply []models.SupplyChainRow, country string) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, r := range supply {
		if r.Country != country {
			continue
		}
		out[r.CompetitorID] = out[r.CompetitorID].Add(r.Proportion())
	}
	return out
}

func marginPct(profit, revenue decimal.Decimal) decimal.Decimal {
	if revenue.IsZero() {
		return decimal.Zero
	}
	return profit.Mul(hundred).Div(revenue)
}

func zeroMetrics() Metrics {
	return Metrics{Revenue: decimal.Zero, Profit: decimal.Zero, COGS: decimal.Zero, TariffCost: decimal.Zero}
}
