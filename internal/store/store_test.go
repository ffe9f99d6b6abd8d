package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizops-dashboard/internal/config"
)

const (
	brandsCSV = `brand_id,brand_name,business_unit,brand_revenue_USD,description
1,Summit Optics,Outdoor,1000000,"Binoculars, scopes"
2,TrailGuard,Outdoor,750000,Helmets
3,NightHawk,Defense,2400000,Night vision`

	competitorsCSV = `competitor_id,competitor_name,brand_id,revenue_usd
101,Vortex Vision,"1,3",3200000
102,Apex Helmets,2,900000`

	supplyCSV = `competitor_id,competitor_name,competitor_supplier_country,Proportion_imports
101,Vortex Vision,China,60
101,Vortex Vision,Japan,n/a
102,Apex Helmets,China,`
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func datasetConfig(t *testing.T, brands, competitors, supply string) config.DatasetConfig {
	t.Helper()
	dir := t.TempDir()
	return config.DatasetConfig{
		BrandsFile:      writeFile(t, dir, "brand.csv", brands),
		CompetitorsFile: writeFile(t, dir, "competitors.csv", competitors),
		SupplyChainFile: writeFile(t, dir, "supply.csv", supply),
		LoadTimeout:     5 * time.Second,
	}
}

func TestLoad_ValidData(t *testing.T) {
	cfg := datasetConfig(t, brandsCSV, competitorsCSV, supplyCSV)

	s, err := Load(context.Background(), cfg, nil)
	require.NoError(t, err)

	assert.Len(t, s.Brands(), 3)
	assert.Len(t, s.Competitors(), 2)
	assert.Len(t, s.SupplyChain(), 3)
	assert.Equal(t, []string{"Outdoor", "Defense"}, s.BusinessUnits())

	b, ok := s.Brand("1")
	require.True(t, ok)
	assert.Equal(t, "Binoculars, scopes", b.Description)
	assert.Equal(t, "1000000", b.RevenueUSD.String())
}

func TestLoad_CompetitorBrandIDsParsedAsSet(t *testing.T) {
	cfg := datasetConfig(t, brandsCSV, competitorsCSV, supplyCSV)

	s, err := Load(context.Background(), cfg, nil)
	require.NoError(t, err)

	competitors := s.Competitors()
	assert.Equal(t, []string{"1", "3"}, competitors[0].BrandIDs)
	assert.Equal(t, "1,3", competitors[0].BrandIDList())
	assert.Equal(t, []string{"2"}, competitors[1].BrandIDs)
}

func TestLoad_NonNumericProportionIsNull(t *testing.T) {
	cfg := datasetConfig(t, brandsCSV, competitorsCSV, supplyCSV)

	s, err := Load(context.Background(), cfg, nil)
	require.NoError(t, err)

	rows := s.SupplyChain()
	assert.True(t, rows[0].ProportionImports.Valid)
	assert.Equal(t, "60", rows[0].Proportion().String())
	assert.False(t, rows[1].ProportionImports.Valid)
	assert.True(t, rows[1].Proportion().IsZero())
	assert.False(t, rows[2].ProportionImports.Valid)
}

func TestLoad_Failures(t *testing.T) {
	tests := []struct {
		name        string
		brands      string
		competitors string
		supply      string
		wantErr     error
	}{
		{
			name:        "missing revenue column",
			brands:      "brand_id,brand_name,business_unit,description\n1,A,U,d",
			competitors: competitorsCSV,
			supply:      supplyCSV,
			wantErr:     ErrMissingColumn,
		},
		{
			name:        "header only",
			brands:      brandsCSV,
			competitors: "competitor_id,competitor_name,brand_id,revenue_usd",
			supply:      supplyCSV,
			wantErr:     ErrNoRows,
		},
		{
			name:        "empty file",
			brands:      brandsCSV,
			competitors: competitorsCSV,
			supply:      "",
			wantErr:     ErrNoRows,
		},
		{
			name:        "non-numeric brand revenue",
			brands:      "brand_id,brand_name,business_unit,brand_revenue_USD,description\n1,A,U,lots,d",
			competitors: competitorsCSV,
			supply:      supplyCSV,
		},
		{
			name:        "negative brand revenue",
			brands:      "brand_id,brand_name,business_unit,brand_revenue_USD,description\n1,A,U,-5,d",
			competitors: competitorsCSV,
			supply:      supplyCSV,
		},
		{
			name:        "missing business unit",
			brands:      "brand_id,brand_name,business_unit,brand_revenue_USD,description\n1,A,,5,d",
			competitors: competitorsCSV,
			supply:      supplyCSV,
		},
		{
			name:        "negative competitor revenue",
			brands:      brandsCSV,
			competitors: "competitor_id,competitor_name,brand_id,revenue_usd\n101,X,1,-10",
			supply:      supplyCSV,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := datasetConfig(t, tt.brands, tt.competitors, tt.supply)

			_, err := Load(context.Background(), cfg, nil)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	cfg := datasetConfig(t, brandsCSV, competitorsCSV, supplyCSV)
	cfg.CompetitorsFile = filepath.Join(t.TempDir(), "nope.csv")

	_, err := Load(context.Background(), cfg, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestStore_ReturnsCopies(t *testing.T) {
	s, err := Load(context.Background(), datasetConfig(t, brandsCSV, competitorsCSV, supplyCSV), nil)
	require.NoError(t, err)

	brands := s.Brands()
	brands[0].Name = "mutated"

	assert.Equal(t, "Summit Optics", s.Brands()[0].Name)
}

func TestSplitIDs(t *testing.T) {
	assert.Equal(t, []string{"3", "7"}, splitIDs("3, 7"))
	assert.Equal(t, []string{"3"}, splitIDs("3,,3"))
	assert.Empty(t, splitIDs(" "))
}

func TestParseBrands_HeaderCaseInsensitive(t *testing.T) {
	brands, err := ParseBrands(strings.NewReader("BRAND_ID,Brand_Name,Business_Unit,BRAND_REVENUE_USD,Description\n9,Z,U,1,d"))
	require.NoError(t, err)
	require.Len(t, brands, 1)
	assert.Equal(t, "9", brands[0].ID)
}

func TestParseCompetitors_ThousandsSeparator(t *testing.T) {
	competitors, err := ParseCompetitors(strings.NewReader("competitor_id,competitor_name,brand_id,revenue_usd\n101,Vortex Vision,\"1,3\",\"1,200,000\""))
	require.NoError(t, err)
	require.Len(t, competitors, 1)
	assert.True(t, competitors[0].RevenueUSD.Equal(decimal.NewFromInt(1200000)), "revenue = %s", competitors[0].RevenueUSD)
	assert.Equal(t, []string{"1", "3"}, competitors[0].BrandIDs)
}

func TestParseCompetitors_EmptyBrandSet(t *testing.T) {
	competitors, err := ParseCompetitors(strings.NewReader("competitor_id,competitor_name,brand_id,revenue_usd\n101,X,,500"))
	require.NoError(t, err)
	require.Len(t, competitors, 1)
	assert.Empty(t, competitors[0].BrandIDs)
	assert.False(t, competitors[0].HasAnyBrand(map[string]struct{}{"1": {}}))
}
