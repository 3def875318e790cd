package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func createListCmd() *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:          "list",
		Short:        "List the scenarios which would run",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			scenarios, err := opts.selectScenarios()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "COLLABORATOR\tSCENARIO\tSTEPS\tEXPECTATIONS")
			for _, s := range scenarios {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", s.Collaborator, s.Name, len(s.Steps), s.ExpectationCount())
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Printf("\n%d scenarios\n", len(scenarios))
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&opts.Suites, "suite", nil, "Suites to list. Defaults to all of them")
	cmd.Flags().StringVar(&opts.ScenarioDir, "scenarios", "", "Directory of YAML/JSON scenario files to list")
	return cmd
}
