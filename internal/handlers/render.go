package handlers

import (
	"html/template"
	"strconv"
	"strings"

	"bizops-dashboard/internal/models"
	"bizops-dashboard/internal/services"
)

const maxTableRows = 50

var fragments = template.Must(template.New("fragments").Funcs(template.FuncMap{
	"money": formatMoney,
}).Parse(`
{{define "brandTable"}}<div id="brand-table">
{{if .Rows}}<table class="modern-table">
<thead><tr><th>Brand Name</th><th>Revenue (USD)</th><th>Description</th></tr></thead>
<tbody>
{{range .Rows}}<tr><td>{{.BrandName}}</td><td>{{money .RevenueUSD}}</td><td>{{.Description}}</td></tr>
{{end}}</tbody>
</table>{{else}}<p class="muted">Select a business unit.</p>{{end}}
</div>{{end}}

{{define "competitorTable"}}<div id="competitor-table">
{{if .Rows}}<table class="modern-table">
<thead><tr><th>ID</th><th>Competitor</th><th>Brand IDs</th><th>Revenue (USD)</th></tr></thead>
<tbody>
{{range .Rows}}<tr><td>{{.CompetitorID}}</td><td>{{.CompetitorName}}</td><td>{{.BrandID}}</td><td>{{money .RevenueUSD}}</td></tr>
{{end}}</tbody>
</table>{{else}}<p class="muted">No competitors for this selection.</p>{{end}}
</div>{{end}}

{{define "competitorOverview"}}<div id="competitor-overview">
{{if .Rows}}<table class="modern-table">
<thead><tr><th>Competitor Name</th><th>Revenue (USD)</th><th>Country</th></tr></thead>
<tbody>
{{range .Rows}}<tr><td>{{.CompetitorName}}</td><td>{{money .RevenueUSD}}</td><td>{{.SupplierCountry}}</td></tr>
{{end}}</tbody>
</table>{{else}}<p class="muted">No competitors for this selection.</p>{{end}}
</div>{{end}}

{{define "baseline"}}<div id="baseline">
{{if .Brands}}<table class="modern-table">
<thead><tr><th>Brand</th><th>Revenue</th><th>Profit</th><th>COGS</th><th>Tariff &amp; trade cost</th></tr></thead>
<tbody>
{{range .Brands}}<tr><td>{{.BrandName}}</td><td>{{.Revenue.StringFixed 2}}</td><td>{{.Profit.StringFixed 2}}</td><td>{{.COGS.StringFixed 2}}</td><td>{{.TariffCost.StringFixed 2}}</td></tr>
{{end}}<tr><td><strong>Total</strong></td><td>{{.Total.Revenue.StringFixed 2}}</td><td>{{.Total.Profit.StringFixed 2}}</td><td>{{.Total.COGS.StringFixed 2}}</td><td>{{.Total.TariffCost.StringFixed 2}}</td></tr>
</tbody>
</table>{{else}}<p class="muted">Select a business unit.</p>{{end}}
</div>{{end}}

{{define "tariffScenario"}}<div id="tariff-scenario">
{{if .Applied}}<p>Tariff increase {{.TariffIncreasePct.String}}%: margin {{.BaselineMarginPct.StringFixed 1}}% &rarr; {{.NewMarginPct.StringFixed 1}}%</p>
<table class="modern-table">
<thead><tr><th>Brand</th><th>Revenue</th><th>Tariff cost</th><th>New tariff cost</th><th>New COGS</th><th>Baseline profit</th><th>New profit</th></tr></thead>
<tbody>
{{range .Brands}}<tr><td>{{.BrandName}}</td><td>{{.Revenue.StringFixed 2}}</td><td>{{.TariffCost.StringFixed 2}}</td><td>{{.NewTariffCost.StringFixed 2}}</td><td>{{.NewCOGS.StringFixed 2}}</td><td>{{.BaselineProfit.StringFixed 2}}</td><td>{{.NewProfit.StringFixed 2}}</td></tr>
{{end}}</tbody>
</table>{{end}}
</div>{{end}}

{{define "competitorScenario"}}<div id="competitor-scenario">
{{if .Applied}}<p>Tariff increase {{.TariffIncreasePct.String}}% on imports from {{.Country}}</p>
<table class="modern-table">
<thead><tr><th>Competitor</th><th>Revenue</th><th>Imports from {{.Country}} (%)</th><th>Added cost</th><th>New COGS</th><th>Baseline profit</th><th>New profit</th></tr></thead>
<tbody>
{{range .Competitors}}<tr><td>{{.CompetitorName}}</td><td>{{.Revenue.StringFixed 2}}</td><td>{{.ProportionImports.String}}</td><td>{{.CountryTariffCost.StringFixed 2}}</td><td>{{.NewCOGS.StringFixed 2}}</td><td>{{.BaselineProfit.StringFixed 2}}</td><td>{{.NewProfit.StringFixed 2}}</td></tr>
{{end}}</tbody>
</table>{{end}}
</div>{{end}}

{{define "productTable"}}<div id="product-table">
{{if .Loading}}<p class="muted">Asking the tariff assistant&hellip;</p>
{{else if .Error}}<p class="error">{{.Error}}</p>
{{else if .Rows}}<table class="modern-table">
{{if .Subject}}<caption>{{.Subject}}</caption>{{end}}
<thead><tr><th>Product</th><th>Tariff</th><th>Country</th><th>Comments</th></tr></thead>
<tbody>
{{range .Rows}}<tr><td>{{.Product}}</td><td>{{.Tariff}}</td><td>{{.Country}}</td><td>{{.Comments}}</td></tr>
{{end}}</tbody>
</table>{{else}}<p class="muted">The assistant returned no usable rows.</p>{{end}}
</div>{{end}}

{{define "chatMessage"}}<div class="message{{if .Error}} error{{end}}">
<p><strong>{{.Subject}}</strong> &middot; {{.Country}}</p>
{{if .Error}}<p>{{.Error}}</p>{{else}}{{.HTML}}{{end}}
</div>{{end}}
`))

type rowsData[T any] struct {
	Rows []T
}

type productTableData struct {
	Loading bool
	Error   string
	Subject string
	Rows    []models.TariffRow
}

type chatMessageData struct {
	Subject string
	Country string
	HTML    template.HTML
	Error   string
}

func renderFragment(name string, data any) (string, error) {
	var buf strings.Builder
	err := fragments.ExecuteTemplate(&buf, name, data)
	return buf.String(), err
}

func limitRows[T any](rows []T) rowsData[T] {
	if len(rows) > maxTableRows {
		rows = rows[:maxTableRows]
	}
	return rowsData[T]{Rows: rows}
}

// renderNode renders the fragment for one dashboard output. ok is false for
// outputs that are not drawn as HTML.
func renderNode(node string, v services.View) (html string, ok bool, err error) {
	var data any
	switch node {
	case services.NodeBrandTable:
		data = limitRows(v.BrandTable)
	case services.NodeCompetitorTable:
		data = limitRows(v.CompetitorTable)
	case services.NodeCompetitorOverview:
		data = limitRows(v.CompetitorOverview)
	case services.NodeBaseline:
		data = v.Baseline
	case services.NodeTariffScenario:
		data = v.TariffScenario
	case services.NodeCompetitorScenario:
		data = v.CompetitorScenario
	default:
		return "", false, nil
	}
	html, err = renderFragment(node, data)
	return html, true, err
}

func formatMoney(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	intPart, frac, _ := strings.Cut(s, ".")
	neg := strings.HasPrefix(intPart, "-")
	intPart = strings.TrimPrefix(intPart, "-")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}
