// Package resolver narrows the loaded datasets down to the rows in scope
// for the current selection.
package resolver

import (
	"slices"

	"bizops-dashboard/internal/models"
)

// Source is the read-only view of the datasets the resolver needs.
type Source interface {
	Brands() []models.Brand
	Competitors() []models.Competitor
	SupplyChain() []models.SupplyChainRow
}

// Selection is the user's current choice. BrandClick and CompetitorClick
// carry the category labels of clicked chart points.
type Selection struct {
	BusinessUnit    string   `json:"business_unit"`
	BrandClick      []string `json:"brand_click,omitempty"`
	CompetitorClick []string `json:"competitor_click,omitempty"`
}

type Subset struct {
	Brands      []models.Brand          `json:"brands"`
	Competitors []models.Competitor     `json:"competitors"`
	Supply      []models.SupplyChainRow `json:"supply"`
}

func (s Subset) Empty() bool {
	return len(s.Brands) == 0 && len(s.Competitors) == 0 && len(s.Supply) == 0
}

// Resolve returns an empty subset when no business unit is selected.
//
// Competitors are matched against every brand of the business unit; a brand
// click narrows the brand rows only, and a competitor click narrows the
// competitor rows (and with them the supply rows).
func Resolve(src Source, sel Selection) Subset {
	if sel.BusinessUnit == "" {
		return Subset{}
	}

	brands := ByBusinessUnit(src.Brands(), sel.BusinessUnit)

	unitIDs := make(map[string]struct{}, len(brands))
	for _, b := range brands {
		unitIDs[b.ID] = struct{}{}
	}
	competitors := CompetingWith(src.Competitors(), unitIDs)

	if len(sel.BrandClick) > 0 {
		brands = slices.DeleteFunc(brands, func(b models.Brand) bool {
			return !slices.Contains(sel.BrandClick, b.Name)
		})
	}
	if len(sel.CompetitorClick) > 0 {
		competitors = slices.DeleteFunc(competitors, func(c models.Competitor) bool {
			return !slices.Contains(sel.CompetitorClick, c.Name)
		})
	}

	return Subset{
		Brands:      brands,
		Competitors: competitors,
		Supply:      SupplyFor(src.SupplyChain(), competitors),
	}
}

func ByBusinessUnit(brands []models.Brand, unit string) []models.Brand {
	out := make([]models.Brand, 0)
	for _, b := range brands {
		if b.BusinessUnit == unit {
			out = append(out, b)
		}
	}
	return out
}

// CompetingWith keeps competitors associated with at least one of brandIDs.
func CompetingWith(competitors []models.Competitor, brandIDs map[string]struct{}) []models.Competitor {
	out := make([]models.Competitor, 0)
	for _, c := range competitors {
		if c.HasAnyBrand(brandIDs) {
			out = append(out, c)
		}
	}
	return out
}

func SupplyFor(rows []models.SupplyChainRow, competitors []models.Competitor) []models.SupplyChainRow {
	ids := make(map[string]struct{}, len(competitors))
	for _, c := range competitors {
		ids[c.ID] = struct{}{}
	}

	out := make([]models.SupplyChainRow, 0)
	for _, r := range rows {
		if _, ok := ids[r.CompetitorID]; ok {
			out = append(out, r)
		}
	}
	return out
}
