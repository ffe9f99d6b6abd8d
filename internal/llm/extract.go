package llm

import (
	"context"
	"fmt"
	"strings"

	"bizops-dashboard/internal/models"
)

// ProductCategories are the categories asked about in the product tariff
// table.
var ProductCategories = []string{"Helmets", "Binoculars", "Precision Optics", "Electronic Devices"}

const NotAvailable = "N/A"

const (
	tariffSystemPrompt  = "You are an assistant that provides trade tariff information."
	productSystemPrompt = "You are an assistant that extracts product categories and retrieves tariff information."
)

// Schema describes a comma-separated line format. Only lines with exactly
// len(Columns) fields are kept.
type Schema struct {
	Columns []string
}

var (
	TariffSchema        = Schema{Columns: []string{"product", "tariff"}}
	ProductTariffSchema = Schema{Columns: []string{"product", "tariff", "country", "comments"}}
)

type Decoded struct {
	Rows    [][]string
	Dropped int
}

// Decode splits text into lines and each line on commas. Fields are trimmed.
// Blank lines are ignored; lines with the wrong field count are dropped and
// counted.
func (s Schema) Decode(text string) Decoded {
	var out Decoded
	for line := range strings.Lines(text) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		fields := strings.Split(line, ",")
		if len(fields) != len(s.Columns) {
			out.Dropped++
			continue
		}
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}
		out.Rows = append(out.Rows, fields)
	}
	return out
}

type Extraction struct {
	Rows    []models.TariffRow
	Dropped int
}

// ExtractTariffs asks for a tariff per category and returns two-column rows
// with country and comments filled with N/A.
func ExtractTariffs(ctx context.Context, p Provider, categories []string) (Extraction, error) {
	prompt := fmt.Sprintf(
		"You are an expert on trade tariffs. List the tariffs for each of these product categories:\n%s.\n"+
			"Provide the response in the format: \"Product Category, Tariff Applied\".",
		strings.Join(categories, ", "),
	)

	raw, err := p.Generate(ctx, tariffSystemPrompt, prompt)
	if err != nil {
		return Extraction{}, err
	}

	dec := TariffSchema.Decode(raw)
	rows := make([]models.TariffRow, 0, len(dec.Rows))
	for _, f := range dec.Rows {
		rows = append(rows, models.TariffRow{
			Product:  f[0],
			Tariff:   f[1],
			Country:  NotAvailable,
			Comments: NotAvailable,
		})
	}
	return Extraction{Rows: rows, Dropped: dec.Dropped}, nil
}

// ExtractProductTariffs asks for product categories and tariffs for a brand
// or category described by description.
func ExtractProductTariffs(ctx context.Context, p Provider, subject, description string) (Extraction, error) {
	prompt := fmt.Sprintf(
		"The brand or product category %q specializes in the following: %s.\n"+
			"For each product category, provide the following details in the format:\n"+
			"\"Product_category\", \"Tariff Applied\", \"Country\", \"Comments related to the tariffs\".\n"+
			"Ensure the response is structured as a table with one row per product category.",
		subject, description,
	)

	raw, err := p.Generate(ctx, productSystemPrompt, prompt)
	if err != nil {
		return Extraction{}, err
	}

	dec := ProductTariffSchema.Decode(raw)
	rows := make([]models.TariffRow, 0, len(dec.Rows))
	for _, f := range dec.Rows {
		rows = append(rows, models.TariffRow{
			Product:  f[0],
			Tariff:   f[1],
			Country:  f[2],
			Comments: f[3],
		})
	}
	return Extraction{Rows: rows, Dropped: dec.Dropped}, nil
}

// RelocationPrompt builds the question for a sourcing relocation narrative.
// extra is appended verbatim when the user typed a follow-up.
func RelocationPrompt(subject, country, extra string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s currently sources part of its supply chain from %s. ", subject, country)
	b.WriteString("Describe a realistic plan to relocate that sourcing to other countries in order to reduce tariff exposure. ")
	b.WriteString("Name candidate countries, expected cost impact and main risks. Answer in Markdown.")
	if extra = strings.TrimSpace(extra); extra != "" {
		b.WriteString("\n\n")
		b.WriteString(extra)
	}
	return b.String()
}

const relocationSystemPrompt = "You are a supply chain consultant advising on tariff-driven sourcing relocation."

// Relocation returns the narrative text as produced by the provider.
func Relocation(ctx context.Context, p Provider, subject, country, extra string) (string, error) {
	return p.Generate(ctx, relocationSystemPrompt, RelocationPrompt(subject, country, extra))
}
