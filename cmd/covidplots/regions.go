package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/covid-region-plots/internal/config"
	"github.com/couchcryptid/covid-region-plots/internal/domain"
)

func newRegionsCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "regions",
		Short: "List the known regions and their output directories",
		Long: `List the regions covidplots knows about, with the resident population
used for the active-case share and the directory each region's charts go to.

The list comes from --file, REGIONS_FILE, or the built-in table.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cmd.Flags().Changed("file") {
				cfg.RegionsFile = file
			}

			regions, err := domain.LoadRegions(cfg.RegionsFile)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "REGION\tPOPULATION\tDIRECTORY")
			for _, r := range regions {
				fmt.Fprintf(tw, "%s\t%d\t%s\n", r.Name, r.Population, r.Dir(cfg.OutputDir))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "YAML region list (env REGIONS_FILE)")
	return cmd
}
