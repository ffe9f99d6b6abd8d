// Package store holds the three datasets the dashboard works on. They are
// loaded once at startup and never mutated afterwards.
package store

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"bizops-dashboard/internal/config"
	"bizops-dashboard/internal/models"
)

type Store struct {
	brands      []models.Brand
	competitors []models.Competitor
	supply      []models.SupplyChainRow
	units       []string
	loadedAt    time.Time
}

// New builds a store from already parsed tables.
func New(brands []models.Brand, competitors []models.Competitor, supply []models.SupplyChainRow) *Store {
	s := &Store{
		brands:      slices.Clone(brands),
		competitors: slices.Clone(competitors),
		supply:      slices.Clone(supply),
		loadedAt:    time.Now(),
	}

	seen := make(map[string]struct{})
	for _, b := range s.brands {
		if _, ok := seen[b.BusinessUnit]; ok {
			continue
		}
		seen[b.BusinessUnit] = struct{}{}
		s.units = append(s.units, b.BusinessUnit)
	}
	return s
}

// Load reads the three dataset files concurrently. Any failure aborts the
// whole load; there is no partial store.
func Load(ctx context.Context, cfg config.DatasetConfig, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.LoadTimeout)
	defer cancel()

	var (
		brands      []models.Brand
		competitors []models.Competitor
		supply      []models.SupplyChainRow
	)

	start := time.Now()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		brands, err = loadFile(ctx, cfg.BrandsFile, ParseBrands)
		return err
	})
	g.Go(func() error {
		var err error
		competitors, err = loadFile(ctx, cfg.CompetitorsFile, ParseCompetitors)
		return err
	})
	g.Go(func() error {
		var err error
		supply, err = loadFile(ctx, cfg.SupplyChainFile, ParseSupplyChain)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	s := New(brands, competitors, supply)
	logger.Info("datasets loaded",
		"brands", len(brands),
		"competitors", len(competitors),
		"supply_rows", len(supply),
		"business_units", len(s.units),
		"duration", time.Since(start),
	)
	return s, nil
}

func loadFile[T any](ctx context.Context, filename string, parse func(io.Reader) ([]T, error)) ([]T, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	rows, err := parse(file)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}
	return rows, nil
}

func (s *Store) Brands() []models.Brand {
	return slices.Clone(s.brands)
}

func (s *Store) Competitors() []models.Competitor {
	return slices.Clone(s.competitors)
}

func (s *Store) SupplyChain() []models.SupplyChainRow {
	return slices.Clone(s.supply)
}

// BusinessUnits lists the units in order of first appearance.
func (s *Store) BusinessUnits() []string {
	return slices.Clone(s.units)
}

func (s *Store) Brand(id string) (models.Brand, bool) {
	for _, b := range s.brands {
		if b.ID == id {
			return b, true
		}
	}
	return models.Brand{}, false
}

func (s *Store) Stats() map[string]any {
	return map[string]any{
		"brands":         len(s.brands),
		"competitors":    len(s.competitors),
		"supply_rows":    len(s.supply),
		"business_units": len(s.units),
		"loaded_at":      s.loadedAt,
	}
}
