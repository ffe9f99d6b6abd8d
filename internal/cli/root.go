// Package cli implements the bizops command line tool, which runs the
// baseline and tariff scenarios against the dataset files without starting
// the web server.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"bizops-dashboard/internal/config"
	"bizops-dashboard/internal/resolver"
	"bizops-dashboard/internal/scenario"
	"bizops-dashboard/internal/store"
)

const (
	formatTable = "table"
	formatJSON  = "json"
)

type options struct {
	datasets     config.DatasetConfig
	verbose      bool
	format       string
	businessUnit string
	brands       []string
	competitors  []string
	tariff       string
	country      string
}

// NewRootCmd builds the command tree. Dataset flags default to the same
// environment-driven paths the web server uses.
func NewRootCmd() *cobra.Command {
	opts := &options{datasets: config.DefaultDatasets()}

	root := &cobra.Command{
		Use:   "bizops",
		Short: "Run tariff scenarios against the business datasets",
		Long: `bizops loads the brand, competitor and supply chain datasets and prints
baseline financials or tariff scenarios for one business unit.

Examples:
  bizops units
  bizops baseline --business-unit Outdoor
  bizops scenario --business-unit Outdoor --tariff 20 --country Mexico
  bizops export --business-unit Outdoor --tariff 20 --out report.xlsx`,
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.datasets.BrandsFile, "brands", opts.datasets.BrandsFile, "brand dataset CSV")
	flags.StringVar(&opts.datasets.CompetitorsFile, "competitors", opts.datasets.CompetitorsFile, "competitor dataset CSV")
	flags.StringVar(&opts.datasets.SupplyChainFile, "supply-chain", opts.datasets.SupplyChainFile, "competitor supply chain CSV")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log dataset loading to stderr")
	flags.StringVarP(&opts.format, "format", "f", formatTable, "output format (table, json)")

	root.AddCommand(
		newUnitsCmd(opts),
		newBaselineCmd(opts),
		newScenarioCmd(opts),
		newExportCmd(opts),
	)
	return root
}

// Execute runs the CLI with the process arguments.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

func addSelectionFlags(cmd *cobra.Command, opts *options) {
	cmd.Flags().StringVarP(&opts.businessUnit, "business-unit", "b", "", "business unit to analyse")
	cmd.Flags().StringSliceVar(&opts.brands, "brand", nil, "restrict brand rows to these names")
	cmd.Flags().StringSliceVar(&opts.competitors, "competitor", nil, "restrict competitor rows to these names")
	_ = cmd.MarkFlagRequired("business-unit")
}

func addScenarioFlags(cmd *cobra.Command, opts *options) {
	cmd.Flags().StringVarP(&opts.tariff, "tariff", "t", "", "tariff increase in percent")
	cmd.Flags().StringVarP(&opts.country, "country", "c", "China", "country for the competitor scenario")
	_ = cmd.MarkFlagRequired("tariff")
}

func (o *options) logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

func (o *options) load(cmd *cobra.Command) (*store.Store, error) {
	if err := o.datasets.Validate(); err != nil {
		return nil, err
	}
	s, err := store.Load(cmd.Context(), o.datasets, o.logger(cmd))
	if err != nil {
		return nil, fmt.Errorf("load datasets: %w", err)
	}
	return s, nil
}

func (o *options) subset(s *store.Store) (resolver.Subset, error) {
	sub := resolver.Resolve(s, resolver.Selection{
		BusinessUnit:    o.businessUnit,
		BrandClick:      o.brands,
		CompetitorClick: o.competitors,
	})
	if len(sub.Brands) == 0 {
		return sub, fmt.Errorf("no brands found for business unit %q", o.businessUnit)
	}
	return sub, nil
}

func (o *options) input() (scenario.Input, error) {
	pct, err := decimal.NewFromString(o.tariff)
	if err != nil {
		return scenario.Input{}, fmt.Errorf("invalid --tariff %q: %w", o.tariff, err)
	}
	return scenario.NewInput(pct), nil
}

func (o *options) checkFormat() error {
	switch o.format {
	case formatTable, formatJSON:
		return nil
	default:
		return fmt.Errorf("unknown format %q, must be %s or %s", o.format, formatTable, formatJSON)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
