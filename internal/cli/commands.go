package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"bizops-dashboard/internal/export"
	"bizops-dashboard/internal/scenario"
)

func newUnitsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "units",
		Short: "List the business units in the brand dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.checkFormat(); err != nil {
				return err
			}
			s, err := opts.load(cmd)
			if err != nil {
				return err
			}
			if opts.format == formatJSON {
				return writeJSON(cmd.OutOrStdout(), s.BusinessUnits())
			}
			for _, u := range s.BusinessUnits() {
				fmt.Fprintln(cmd.OutOrStdout(), u)
			}
			return nil
		},
	}
}

func newBaselineCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "baseline",
		Short: "Print revenue, profit, COGS and tariff cost per brand",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.checkFormat(); err != nil {
				return err
			}
			s, err := opts.load(cmd)
			if err != nil {
				return err
			}
			sub, err := opts.subset(s)
			if err != nil {
				return err
			}

			baseline := scenario.ComputeBaseline(sub.Brands)
			if opts.format == formatJSON {
				return writeJSON(cmd.OutOrStdout(), baseline)
			}
			return printBaseline(cmd.OutOrStdout(), baseline)
		},
	}
	addSelectionFlags(cmd, opts)
	return cmd
}

type scenarioOutput struct {
	BusinessUnit string                    `json:"business_unit"`
	Baseline     scenario.Baseline         `json:"baseline"`
	Tariff       scenario.TariffResult     `json:"tariff"`
	Competitor   scenario.CompetitorResult `json:"competitor"`
}

func newScenarioCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenario",
		Short: "Apply a tariff increase to brands and country-weighted to competitors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.checkFormat(); err != nil {
				return err
			}
			out, err := runScenario(cmd, opts)
			if err != nil {
				return err
			}
			if opts.format == formatJSON {
				return writeJSON(cmd.OutOrStdout(), out)
			}
			if err := printTariff(cmd.OutOrStdout(), out.Tariff); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return printCompetitor(cmd.OutOrStdout(), out.Competitor)
		},
	}
	addSelectionFlags(cmd, opts)
	addScenarioFlags(cmd, opts)
	return cmd
}

func runScenario(cmd *cobra.Command, opts *options) (scenarioOutput, error) {
	in, err := opts.input()
	if err != nil {
		return scenarioOutput{}, err
	}
	s, err := opts.load(cmd)
	if err != nil {
		return scenarioOutput{}, err
	}
	sub, err := opts.subset(s)
	if err != nil {
		return scenarioOutput{}, err
	}
	return scenarioOutput{
		BusinessUnit: opts.businessUnit,
		Baseline:     scenario.ComputeBaseline(sub.Brands),
		Tariff:       scenario.ApplyTariffScenario(sub.Brands, in),
		Competitor:   scenario.ApplyCompetitorTariffScenario(sub.Competitors, sub.Supply, opts.country, in),
	}, nil
}

func newExportCmd(opts *options) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the baseline and both scenarios to an XLSX workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := runScenario(cmd, opts)
			if err != nil {
				return err
			}

			report := export.Report{
				BusinessUnit: opts.businessUnit,
				GeneratedAt:  time.Now(),
				Baseline:     res.Baseline,
				Tariff:       res.Tariff,
				Competitor:   res.Competitor,
			}
			path := out
			if path == "" {
				path = report.Filename()
			}

			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("create %s: %w", path, err)
			}
			if err := export.Write(f, report); err != nil {
				f.Close()
				return fmt.Errorf("write workbook: %w", err)
			}
			if err := f.Close(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	addSelectionFlags(cmd, opts)
	addScenarioFlags(cmd, opts)
	cmd.Flags().StringVarP(&out, "out", "o", "", "output path (default scenario_<unit>_<date>.xlsx)")
	return cmd
}
