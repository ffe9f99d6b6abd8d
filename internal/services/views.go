package services

import (
	"cmp"
	"slices"

	"bizops-dashboard/internal/models"
)

func BrandRevenueChart(brands []models.Brand) []models.ChartPoint {
	sorted := slices.Clone(brands)
	slices.SortStableFunc(sorted, func(a, b models.Brand) int {
		return b.RevenueUSD.Cmp(a.RevenueUSD)
	})

	points := make([]models.ChartPoint, 0, len(sorted))
	for _, b := range sorted {
		points = append(points, models.ChartPoint{
			Category: b.Name,
			Value:    b.RevenueUSD.InexactFloat64(),
		})
	}
	return points
}

func BrandDetails(brands []models.Brand) []models.BrandDetail {
	out := make([]models.BrandDetail, 0, len(brands))
	for _, b := range brands {
		out = append(out, models.BrandDetail{
			BrandName:   b.Name,
			RevenueUSD:  b.RevenueUSD.InexactFloat64(),
			Description: b.Description,
		})
	}
	return out
}

func CompetitorRows(competitors []models.Competitor) []models.CompetitorRow {
	out := make([]models.CompetitorRow, 0, len(competitors))
	for _, c := range competitors {
		out = append(out, models.CompetitorRow{
			CompetitorID:   c.ID,
			CompetitorName: c.Name,
			BrandID:        c.BrandIDList(),
			RevenueUSD:     c.RevenueUSD.InexactFloat64(),
		})
	}
	return out
}

// CompetitorsOverview joins competitors with their supply rows. Competitors
// without any supply row still appear once, with an empty country.
func CompetitorsOverview(competitors []models.Competitor, supply []models.SupplyChainRow) []models.CompetitorOverview {
	byCompetitor := make(map[string][]string)
	for _, r := range supply {
		byCompetitor[r.CompetitorID] = append(byCompetitor[r.CompetitorID], r.Country)
	}

	out := make([]models.CompetitorOverview, 0, len(competitors))
	for _, c := range competitors {
		countries := byCompetitor[c.ID]
		if len(countries) == 0 {
			countries = []string{""}
		}
		for _, country := range countries {
			out = append(out, models.CompetitorOverview{
				CompetitorName:  c.Name,
				RevenueUSD:      c.RevenueUSD.InexactFloat64(),
				SupplierCountry: country,
			})
		}
	}
	return out
}

// SupplierChart returns one point per supply row, grouped into one series
// per competitor.
func SupplierChart(competitors []models.Competitor, supply []models.SupplyChainRow) []models.ChartPoint {
	names := make(map[string]string, len(competitors))
	for _, c := range competitors {
		names[c.ID] = c.Name
	}

	points := make([]models.ChartPoint, 0, len(supply))
	for _, r := range supply {
		name, ok := names[r.CompetitorID]
		if !ok {
			continue
		}
		points = append(points, models.ChartPoint{
			Category: r.Country,
			Value:    r.Proportion().InexactFloat64(),
			Series:   name,
		})
	}
	slices.SortStableFunc(points, func(a, b models.ChartPoint) int {
		return cmp.Compare(a.Series, b.Series)
	})
	return points
}
