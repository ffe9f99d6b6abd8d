package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

type Brand struct {
	ID           string          `json:"brand_id" validate:"required"`
	Name         string          `json:"brand_name" validate:"required"`
	BusinessUnit string          `json:"business_unit" validate:"required"`
	RevenueUSD   decimal.Decimal `json:"brand_revenue_USD"`
	Description  string          `json:"description"`
}

// Competitor holds the brand ids it competes with as a set parsed at load
// time; the source file stores them comma-joined. An empty set is allowed and
// matches no business unit.
type Competitor struct {
	ID         string          `json:"competitor_id" validate:"required"`
	Name       string          `json:"competitor_name" validate:"required"`
	BrandIDs   []string        `json:"brand_ids" validate:"dive,required"`
	RevenueUSD decimal.Decimal `json:"revenue_usd"`
}

// BrandIDList joins the brand ids back into the file representation.
func (c Competitor) BrandIDList() string {
	return strings.Join(c.BrandIDs, ",")
}

func (c Competitor) HasAnyBrand(ids map[string]struct{}) bool {
	for _, id := range c.BrandIDs {
		if _, ok := ids[id]; ok {
			return true
		}
	}
	return false
}

// SupplyChainRow is one sourcing country of a competitor. Proportions are
// kept as read: a missing or non-numeric value is null, and the rows of one
// competitor are not required to sum to 100.
type SupplyChainRow struct {
	CompetitorID      string              `json:"competitor_id" validate:"required"`
	Country           string              `json:"competitor_supplier_country" validate:"required"`
	ProportionImports decimal.NullDecimal `json:"Proportion_imports"`
}

// Proportion returns the import share, 0 when absent.
func (r SupplyChainRow) Proportion() decimal.Decimal {
	if !r.ProportionImports.Valid {
		return decimal.Zero
	}
	return r.ProportionImports.Decimal
}
