// Package export writes scenario results to an XLSX workbook.
package export

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"bizops-dashboard/internal/scenario"
)

const (
	SheetBaseline   = "Baseline"
	SheetTariff     = "Tariff Scenario"
	SheetCompetitor = "Competitor Scenario"

	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type Report struct {
	BusinessUnit string
	GeneratedAt  time.Time
	Baseline     scenario.Baseline
	Tariff       scenario.TariffResult
	Competitor   scenario.CompetitorResult
}

// Filename is the suggested download name for r.
func (r Report) Filename() string {
	unit := r.BusinessUnit
	if unit == "" {
		unit = "all"
	}
	return fmt.Sprintf("scenario_%s_%s.xlsx", sanitize(unit), r.GeneratedAt.UTC().Format("20060102"))
}

var (
	baselineHeader   = []any{"brand_id", "brand_name", "revenue", "profit", "cogs", "tariff_trade_cost"}
	tariffHeader     = []any{"brand_id", "brand_name", "revenue", "baseline_profit", "baseline_cogs", "tariff_trade_cost", "new_tariff_trade_cost", "new_cogs", "new_profit"}
	competitorHeader = []any{"competitor_id", "competitor_name", "revenue", "proportion_imports", "baseline_profit", "baseline_cogs", "country_tariff_cost", "new_cogs", "new_profit"}
)

// Build renders the three sheets. Scenarios that did not apply produce a
// sheet with the header row only.
func Build(r Report) (*bytes.Buffer, error) {
	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	if err := xl.SetSheetName(xl.GetSheetName(0), SheetBaseline); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{SheetTariff, SheetCompetitor} {
		if _, err := xl.NewSheet(name); err != nil {
			return nil, fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	baseline := make([][]any, 0, len(r.Baseline.Brands)+1)
	for _, b := range r.Baseline.Brands {
		baseline = append(baseline, []any{b.BrandID, b.BrandName, num(b.Revenue), num(b.Profit), num(b.COGS), num(b.TariffCost)})
	}
	baseline = append(baseline, []any{"", "Total", num(r.Baseline.Total.Revenue), num(r.Baseline.Total.Profit), num(r.Baseline.Total.COGS), num(r.Baseline.Total.TariffCost)})
	if err := writeSheet(xl, SheetBaseline, baselineHeader, baseline); err != nil {
		return nil, err
	}

	tariff := make([][]any, 0, len(r.Tariff.Brands))
	for _, b := range r.Tariff.Brands {
		tariff = append(tariff, []any{b.BrandID, b.BrandName, num(b.Revenue), num(b.BaselineProfit), num(b.BaselineCOGS), num(b.TariffCost), num(b.NewTariffCost), num(b.NewCOGS), num(b.NewProfit)})
	}
	if err := writeSheet(xl, SheetTariff, tariffHeader, tariff); err != nil {
		return nil, err
	}

	competitor := make([][]any, 0, len(r.Competitor.Competitors))
	for _, c := range r.Competitor.Competitors {
		competitor = append(competitor, []any{c.CompetitorID, c.CompetitorName, num(c.Revenue), num(c.ProportionImports), num(c.BaselineProfit), num(c.BaselineCOGS), num(c.CountryTariffCost), num(c.NewCOGS), num(c.NewProfit)})
	}
	if err := writeSheet(xl, SheetCompetitor, competitorHeader, competitor); err != nil {
		return nil, err
	}

	xl.SetActiveSheet(0)
	if err := xl.SetDocProps(&excelize.DocProperties{
		Title:   "Tariff scenario " + r.BusinessUnit,
		Created: r.GeneratedAt.UTC().Format(time.RFC3339),
	}); err != nil {
		return nil, fmt.Errorf("set doc props: %w", err)
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf, nil
}

// Write builds the workbook and copies it to w.
func Write(w io.Writer, r Report) error {
	buf, err := Build(r)
	if err != nil {
		return err
	}
	_, err = buf.WriteTo(w)
	return err
}

func writeSheet(xl *excelize.File, sheet string, header []any, rows [][]any) error {
	if err := xl.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("%s header: %w", sheet, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := xl.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}

func num(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

func sanitize(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
