package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/oss-pulse/contrib-stats/internal/report"
)

// ConvertContributorsCommand holds the flags for the contributor converter.
type ConvertContributorsCommand struct {
	input  string
	output string
}

// NewConvertContributorsCommand creates the contributor CSV converter.
func NewConvertContributorsCommand() *cobra.Command {
	cc := &ConvertContributorsCommand{}

	cobraCmd := &cobra.Command{
		Use:   "convert-contributors",
		Short: "Convert contributor history JSON to CSV",
		Long: `Flattens the contributor history document into a CSV with one row per
date and one column per contributor series, forward-filling dates a series
has no entry for.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, cleanup, err := setup(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if _, err := os.Stat(cc.input); os.IsNotExist(err) {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s not found. Run contributors first.\n", cc.input)
				return nil
			}
			return report.ConvertContributorsCSV(cc.input, cc.output, a.cfg.Project.Prefix)
		},
	}

	cobraCmd.Flags().StringVar(&cc.input, "input", "results/contributors_history.json", "contributor history JSON file")
	cobraCmd.Flags().StringVar(&cc.output, "output", "results/contributors_history.csv", "CSV output file")

	return cobraCmd
}

// ConvertStarsCommand holds the flags for the star converter.
type ConvertStarsCommand struct {
	input  string
	output string
	key    string
}

// NewConvertStarsCommand creates the star history CSV converter.
func NewConvertStarsCommand() *cobra.Command {
	cc := &ConvertStarsCommand{}

	cobraCmd := &cobra.Command{
		Use:   "convert-stars",
		Short: "Convert star history JSON to CSV",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, cleanup, err := setup(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if _, err := os.Stat(cc.input); os.IsNotExist(err) {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s not found. Run stars first.\n", cc.input)
				return nil
			}
			return report.ConvertStarsCSV(cc.input, cc.output, cc.key)
		},
	}

	cobraCmd.Flags().StringVar(&cc.input, "input", "results/stars_history.json", "star history JSON file")
	cobraCmd.Flags().StringVar(&cc.output, "output", "results/stars_history.csv", "CSV output file")
	cobraCmd.Flags().StringVar(&cc.key, "key", report.TotalStarsKey, "series key to convert")

	return cobraCmd
}
