package models

type ChartPoint struct {
	Category string  `json:"category"`
	Value    float64 `json:"value"`
	Series   string  `json:"series,omitempty"`
}

type BrandDetail struct {
	BrandName   string  `json:"brand_name"`
	RevenueUSD  float64 `json:"brand_revenue_USD"`
	Description string  `json:"description"`
}

type CompetitorRow struct {
	CompetitorID   string  `json:"competitor_id"`
	CompetitorName string  `json:"competitor_name"`
	BrandID        string  `json:"brand_id"`
	RevenueUSD     float64 `json:"revenue_usd"`
}

type CompetitorOverview struct {
	CompetitorName  string  `json:"competitor_name"`
	RevenueUSD      float64 `json:"revenue_usd"`
	SupplierCountry string  `json:"competitor_supplier_country"`
}

// TariffRow is one decoded line of a text-service tariff answer.
type TariffRow struct {
	Product  string `json:"product"`
	Tariff   string `json:"tariff"`
	Country  string `json:"country"`
	Comments string `json:"comments"`
}
