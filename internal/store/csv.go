package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"bizops-dashboard/internal/models"
)

var (
	ErrMissingColumn = errors.New("missing column")
	ErrNoRows        = errors.New("no data rows")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

var (
	brandColumns      = []string{"brand_id", "brand_name", "business_unit", "brand_revenue_usd", "description"}
	competitorColumns = []string{"competitor_id", "competitor_name", "brand_id", "revenue_usd"}
	supplyColumns     = []string{"competitor_id", "competitor_supplier_country", "proportion_imports"}
)

// table is a header-indexed view over a CSV file. Column names are matched
// case-insensitively so that brand_revenue_USD and Proportion_imports resolve.
type table struct {
	header map[string]int
	rows   [][]string
}

func readTable(r io.Reader, required []string) (*table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csv read: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty file: %w", ErrNoRows)
	}

	t := &table{header: make(map[string]int, len(records[0])), rows: records[1:]}
	for i, col := range records[0] {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")))
		t.header[name] = i
	}
	for _, col := range required {
		if _, ok := t.header[col]; !ok {
			return nil, fmt.Errorf("%w %q", ErrMissingColumn, col)
		}
	}
	if len(t.rows) == 0 {
		return nil, ErrNoRows
	}
	return t, nil
}

func (t *table) get(row []string, col string) string {
	idx := t.header[col]
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parseAmount(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
}

// ParseBrands reads the brand table. Any malformed row fails the whole load.
func ParseBrands(r io.Reader) ([]models.Brand, error) {
	t, err := readTable(r, brandColumns)
	if err != nil {
		return nil, err
	}

	brands := make([]models.Brand, 0, len(t.rows))
	for i, row := range t.rows {
		line := i + 2
		revenue, err := parseAmount(t.get(row, "brand_revenue_usd"))
		if err != nil {
			return nil, fmt.Errorf("line %d: brand_revenue_USD: %w", line, err)
		}
		if revenue.IsNegative() {
			return nil, fmt.Errorf("line %d: brand_revenue_USD must be >= 0, got %s", line, revenue)
		}

		b := models.Brand{
			ID:           t.get(row, "brand_id"),
			Name:         t.get(row, "brand_name"),
			BusinessUnit: t.get(row, "business_unit"),
			RevenueUSD:   revenue,
			Description:  t.get(row, "description"),
		}
		if err := validate.Struct(b); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		brands = append(brands, b)
	}
	return brands, nil
}

func ParseCompetitors(r io.Reader) ([]models.Competitor, error) {
	t, err := readTable(r, competitorColumns)
	if err != nil {
		return nil, err
	}

	competitors := make([]models.Competitor, 0, len(t.rows))
	for i, row := range t.rows {
		line := i + 2
		revenue, err := parseAmount(t.get(row, "revenue_usd"))
		if err != nil {
			return nil, fmt.Errorf("line %d: revenue_usd: %w", line, err)
		}
		if revenue.IsNegative() {
			return nil, fmt.Errorf("line %d: revenue_usd must be >= 0, got %s", line, revenue)
		}

		c := models.Competitor{
			ID:         t.get(row, "competitor_id"),
			Name:       t.get(row, "competitor_name"),
			BrandIDs:   splitIDs(t.get(row, "brand_id")),
			RevenueUSD: revenue,
		}
		if err := validate.Struct(c); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		competitors = append(competitors, c)
	}
	return competitors, nil
}

// ParseSupplyChain keeps non-numeric proportions as null instead of failing.
func ParseSupplyChain(r io.Reader) ([]models.SupplyChainRow, error) {
	t, err := readTable(r, supplyColumns)
	if err != nil {
		return nil, err
	}

	rows := make([]models.SupplyChainRow, 0, len(t.rows))
	for i, row := range t.rows {
		sr := models.SupplyChainRow{
			CompetitorID: t.get(row, "competitor_id"),
			Country:      t.get(row, "competitor_supplier_country"),
		}
		if p, err := decimal.NewFromString(t.get(row, "proportion_imports")); err == nil {
			sr.ProportionImports = decimal.NewNullDecimal(p)
		}
		if err := validate.Struct(sr); err != nil {
			return nil, fmt.Errorf("line %d: %w", i+2, err)
		}
		rows = append(rows, sr)
	}
	return rows, nil
}

// splitIDs parses a comma-joined id list, dropping blanks and duplicates.
func splitIDs(s string) []string {
	parts := strings.Split(s, ",")
	ids := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		id := strings.TrimSpace(p)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}
