package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"bizops-dashboard/internal/scenario"
)

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
}

func printBaseline(w io.Writer, b scenario.Baseline) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "Brand\tRevenue\tProfit\tCOGS\tTariff & trade cost\t")
	for _, r := range b.Brands {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t\n", r.BrandName, money(r.Revenue), money(r.Profit), money(r.COGS), money(r.TariffCost))
	}
	t := b.Total
	fmt.Fprintf(tw, "Total\t%s\t%s\t%s\t%s\t\n", money(t.Revenue), money(t.Profit), money(t.COGS), money(t.TariffCost))
	return tw.Flush()
}

func printTariff(w io.Writer, r scenario.TariffResult) error {
	if !r.Applied {
		_, err := fmt.Fprintln(w, "Tariff scenario not applied.")
		return err
	}
	fmt.Fprintf(w, "Tariff increase %s%%: margin %s%% -> %s%%\n",
		r.TariffIncreasePct.String(), r.BaselineMarginPct.StringFixed(2), r.NewMarginPct.StringFixed(2))

	tw := newTable(w)
	fmt.Fprintln(tw, "Brand\tRevenue\tProfit\tTariff cost\tNew tariff cost\tNew COGS\tNew profit\t")
	for _, b := range r.Brands {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n", b.BrandName, money(b.Revenue), money(b.BaselineProfit),
			money(b.TariffCost), money(b.NewTariffCost), money(b.NewCOGS), money(b.NewProfit))
	}
	return tw.Flush()
}

func printCompetitor(w io.Writer, r scenario.CompetitorResult) error {
	if !r.Applied {
		_, err := fmt.Fprintln(w, "Competitor scenario not applied.")
		return err
	}
	fmt.Fprintf(w, "Tariff increase %s%% on imports from %s\n", r.TariffIncreasePct.String(), r.Country)

	tw := newTable(w)
	fmt.Fprintln(tw, "Competitor\tRevenue\tImports (%)\tProfit\tCountry tariff cost\tNew COGS\tNew profit\t")
	for _, c := range r.Competitors {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n", c.CompetitorName, money(c.Revenue), c.ProportionImports.String(),
			money(c.BaselineProfit), money(c.CountryTariffCost), money(c.NewCOGS), money(c.NewProfit))
	}
	return tw.Flush()
}
