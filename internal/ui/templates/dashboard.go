// Package templates renders the dashboard page shell. Tables and charts are
// filled in afterwards by datastar patches from the /sse endpoints.
package templates

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

const (
	datastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.6/bundles/datastar.js"
	chartScript    = "https://cdn.jsdelivr.net/npm/chart.js@4.4.1/dist/chart.umd.min.js"
)

type PageData struct {
	Title          string
	BusinessUnits  []string
	DefaultCountry string
	Provider       string
}

// Signals is the initial client state. Signals prefixed with an underscore
// are local to the page and are not sent with requests.
type Signals struct {
	BusinessUnit    string   `json:"businessUnit"`
	BrandClick      []string `json:"brandClick"`
	CompetitorClick []string `json:"competitorClick"`
	TariffPct       string   `json:"tariffPct"`
	ScenarioClicks  int      `json:"scenarioClicks"`
	Country         string   `json:"country"`
	RelocSubject    string   `json:"relocSubject"`
	RelocCountry    string   `json:"relocCountry"`
	RelocPrompt     string   `json:"relocPrompt"`
	BrandChart      []any    `json:"_brandChart"`
	SupplierChart   []any    `json:"_supplierChart"`
}

func Dashboard(p PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		signals, err := templ.JSONString(Signals{
			BrandClick:      []string{},
			CompetitorClick: []string{},
			Country:         p.DefaultCountry,
			RelocCountry:    p.DefaultCountry,
			BrandChart:      []any{},
			SupplierChart:   []any{},
		})
		if err != nil {
			return err
		}

		title := p.Title
		if title == "" {
			title = "Dashboard"
		}

		pw := &pageWriter{w: w}
		pw.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		pw.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		pw.printf(`<title>%s</title>`, templ.EscapeString(title))
		pw.printf(`<script type="module" src="%s"></script>`, datastarScript)
		pw.printf(`<script src="%s"></script>`, chartScript)
		pw.raw(`<style>` + styles + `</style></head>`)

		pw.printf(`<body data-signals='%s' data-init="@get('/sse/refresh-all')" data-on:chart-click="%s">`, templ.EscapeString(signals), templ.EscapeString(chartClickExpr))
		pw.printf(`<h1>%s</h1>`, templ.EscapeString(title))
		pw.raw(`<nav class="tabs">`)
		for i, tab := range tabs {
			cls := "tab"
			if i == 0 {
				cls += " active"
			}
			pw.printf(`<button class="%s" data-tab="%s" onclick="showTab('%s')">%s</button>`, cls, tab.id, tab.id, templ.EscapeString(tab.label))
		}
		pw.raw(`</nav>`)

		if pw.err != nil {
			return pw.err
		}
		for _, section := range []templ.Component{mainTab(p), competitorsTab(), scenarioTab(p), relocationTab(p)} {
			if err := section.Render(ctx, w); err != nil {
				return err
			}
		}

		pw.raw(`<script>` + chartJS + `</script></body></html>`)
		return pw.err
	})
}

// chartClickExpr stores the clicked label in the matching click signal and
// asks the server to recompute from that input.
const chartClickExpr = `evt.detail.signal === 'brandClick' ? ($brandClick = [evt.detail.label]) : ($competitorClick = [evt.detail.label]); @get(evt.detail.endpoint)`

type tab struct{ id, label string }

var tabs = []tab{
	{"main", "Main"},
	{"competitors", "Competitors"},
	{"scenario", "Scenario"},
	{"relocation", "Relocation Simulation"},
}

func mainTab(p PageData) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		pw := &pageWriter{w: w}
		pw.raw(`<section id="tab-main" class="panel active"><div class="columns">`)

		pw.raw(`<div class="left"><h3>Filter by Business Unit</h3>`)
		pw.raw(`<select data-bind:business-unit data-on:change="$brandClick = []; $competitorClick = []; @get('/sse/business-unit')">`)
		pw.raw(`<option value="">Select a Business Unit</option>`)
		for _, u := range p.BusinessUnits {
			e := templ.EscapeString(u)
			pw.printf(`<option value="%s">%s</option>`, e, e)
		}
		pw.raw(`</select>`)
		pw.raw(`<h3>Revenue by Brand</h3><canvas id="brand-chart" data-effect="renderBar('brand-chart', $_brandChart)"></canvas>`)
		pw.raw(`<button data-on:click="$brandClick = []; @get('/sse/brand-click')">Clear brand filter</button></div>`)

		pw.raw(`<div class="center"><h3>Product Table</h3>`)
		pw.raw(`<button data-on:click="@post('/sse/product-tariffs')">Fetch product tariffs</button>`)
		pw.raw(`<div id="product-table"></div></div>`)

		pw.raw(`<div class="right"><h3>Brand Details</h3><div id="brand-table"></div></div>`)
		pw.raw(`</div></section>`)
		return pw.err
	})
}

func competitorsTab() templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		pw := &pageWriter{w: w}
		pw.raw(`<section id="tab-competitors" class="panel">`)
		pw.raw(`<h3>Competitors</h3><div id="competitor-table"></div>`)
		pw.raw(`<h3>Competitors Overview</h3><div id="competitor-overview"></div>`)
		pw.raw(`<h3>Supplier Countries</h3><canvas id="supplier-chart" data-effect="renderGrouped('supplier-chart', $_supplierChart)"></canvas>`)
		pw.raw(`<button data-on:click="$competitorClick = []; @get('/sse/competitor-click')">Clear competitor filter</button>`)
		pw.raw(`</section>`)
		return pw.err
	})
}

func scenarioTab(p PageData) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		pw := &pageWriter{w: w}
		pw.raw(`<section id="tab-scenario" class="panel">`)
		pw.raw(`<div class="controls"><label>Tariff increase (%) <input type="number" step="any" data-bind:tariff-pct></label>`)
		pw.raw(`<button data-on:click="$scenarioClicks++; @get('/sse/scenario')">Run scenario</button>`)
		pw.printf(`<label>Country <input type="text" data-bind:country placeholder="%s" data-on:change="@get('/sse/country')"></label>`, templ.EscapeString(p.DefaultCountry))
		pw.raw(`<a data-attr:href="'/api/scenario/export?business_unit=' + encodeURIComponent($businessUnit) + '&tariff_pct=' + encodeURIComponent($tariffPct) + '&country=' + encodeURIComponent($country)">Download XLSX</a></div>`)
		pw.raw(`<h3>Baseline</h3><div id="baseline"></div>`)
		pw.raw(`<h3>Tariff Scenario</h3><div id="tariff-scenario"></div>`)
		pw.raw(`<h3>Competitor Scenario</h3><div id="competitor-scenario"></div>`)
		pw.raw(`</section>`)
		return pw.err
	})
}

func relocationTab(p PageData) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		pw := &pageWriter{w: w}
		pw.raw(`<section id="tab-relocation" class="panel"><div class="controls">`)
		pw.raw(`<label>Competitor or brand <input type="text" maxlength="200" data-bind:reloc-subject></label>`)
		pw.raw(`<label>From country <input type="text" maxlength="100" data-bind:reloc-country></label>`)
		pw.raw(`<label>Question <textarea data-bind:reloc-prompt rows="3" maxlength="2000"></textarea></label>`)
		pw.raw(`<button data-on:click="@post('/sse/relocation')">Ask</button>`)
		if p.Provider != "" {
			pw.printf(`<small>answers by %s</small>`, templ.EscapeString(p.Provider))
		}
		pw.raw(`</div><div id="relocation-chat" class="chat"></div></section>`)
		return pw.err
	})
}

type pageWriter struct {
	w   io.Writer
	err error
}

func (p *pageWriter) raw(s string) {
	if p.err != nil {
		return
	}
	_, p.err = io.WriteString(p.w, s)
}

func (p *pageWriter) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

const styles = `
body{font-family:system-ui,sans-serif;margin:0 24px;color:#1f2933}
h1{text-align:center}
.tabs{display:flex;gap:4px;border-bottom:1px solid #ccc}
.tab{border:0;background:#eef1f4;padding:8px 16px;cursor:pointer}
.tab.active{background:#fff;border:1px solid #ccc;border-bottom:0}
.panel{display:none;padding:16px 0}
.panel.active{display:block}
.columns{display:flex;width:100%}
.left{width:20%;padding:10px;border-right:1px solid #ccc}
.center{width:50%;padding:10px}
.right{width:30%;padding:10px;border-left:1px solid #ccc}
.controls{display:flex;gap:12px;align-items:end;flex-wrap:wrap}
table.modern-table{border-collapse:collapse;width:100%}
.modern-table th,.modern-table td{text-align:left;padding:4px 8px;border-bottom:1px solid #e4e7eb}
.chat .message{background:#f5f7fa;border-radius:6px;padding:8px 12px;margin:8px 0}
.muted{color:#7b8794}
`

const chartJS = `
const charts = {};
function showTab(id) {
  document.querySelectorAll('.panel').forEach(p => p.classList.toggle('active', p.id === 'tab-' + id));
  document.querySelectorAll('.tab').forEach(t => t.classList.toggle('active', t.dataset.tab === id));
}
function clickInto(signal, endpoint) {
  return (evt, elements, chart) => {
    if (!elements.length) return;
    const el = elements[0];
    const label = chart.data.datasets.length > 1
      ? chart.data.datasets[el.datasetIndex].label
      : chart.data.labels[el.index];
    document.body.dispatchEvent(new CustomEvent('chart-click', {detail: {signal, label, endpoint}}));
  };
}
function draw(id, config) {
  if (charts[id]) charts[id].destroy();
  const canvas = document.getElementById(id);
  if (canvas) charts[id] = new Chart(canvas, config);
}
function renderBar(id, points) {
  draw(id, {
    type: 'bar',
    data: {labels: points.map(p => p.category), datasets: [{label: 'Revenue (USD)', data: points.map(p => p.value)}]},
    options: {onClick: clickInto('brandClick', '/sse/brand-click'), plugins: {legend: {display: false}}}
  });
}
function renderGrouped(id, points) {
  const labels = [...new Set(points.map(p => p.category))];
  const series = [...new Set(points.map(p => p.series))];
  const datasets = series.map(s => ({
    label: s,
    data: labels.map(l => (points.find(p => p.series === s && p.category === l) || {value: 0}).value)
  }));
  draw(id, {type: 'bar', data: {labels, datasets}, options: {onClick: clickInto('competitorClick', '/sse/competitor-click')}});
}
`
