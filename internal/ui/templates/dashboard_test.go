package templates

import (
	"context"
	"strings"
	"testing"
)

func TestDashboard_Render(t *testing.T) {
	var b strings.Builder
	err := Dashboard(PageData{
		Title:          "DASHBOARD",
		BusinessUnits:  []string{"Outdoor", "R&D <Labs>"},
		DefaultCountry: "China",
		Provider:       "openai",
	}).Render(context.Background(), &b)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	html := b.String()

	for _, want := range []string{
		"<title>DASHBOARD</title>",
		`<option value="Outdoor">Outdoor</option>`,
		"R&amp;D &lt;Labs&gt;",
		`id="brand-table"`,
		`id="competitor-overview"`,
		`id="tariff-scenario"`,
		`id="relocation-chat"`,
		"/sse/refresh-all",
		"Relocation Simulation",
		"&#34;country&#34;:&#34;China&#34;",
		"&#34;_brandChart&#34;",
		"&#34;_supplierChart&#34;",
		"renderBar('brand-chart', $_brandChart)",
		`maxlength="2000"`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("page should contain %q", want)
		}
	}

	if strings.Contains(html, "&#34;brandChart&#34;") {
		t.Error("chart selections must be local signals")
	}
	if strings.Contains(html, "R&D <Labs>") {
		t.Error("business unit names must be escaped")
	}
}

func TestDashboard_DefaultTitle(t *testing.T) {
	var b strings.Builder
	if err := Dashboard(PageData{}).Render(context.Background(), &b); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(b.String(), "<title>Dashboard</title>") {
		t.Error("missing default title")
	}
}
