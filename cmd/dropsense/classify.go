package main

import (
	"encoding/json"
	"fmt"

	"dropsense/internal/classify"
	"dropsense/pkg/types"

	"github.com/spf13/cobra"
)

// newClassifyCmd classifies paths given on the command line
func newClassifyCmd() *cobra.Command {
	var (
		asJSON    bool
		recursive bool
	)

	cmd := &cobra.Command{
		Use:   "classify [paths...]",
		Short: "Classify files, folders and applications",
		Long: `Classify each path the same way a dropped file is classified.
With --recursive, directories are walked and every entry inside is classified;
application bundles are reported once and not entered.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := classify.New()

			var results []types.ClassificationResult
			for _, path := range args {
				result := c.Classify(path)
				results = append(results, result)

				if recursive && result.Kind == types.KindFolder {
					inner, err := c.ClassifyTree(cmd.Context(), path)
					if err != nil {
						return err
					}
					results = append(results, inner...)
				}
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				for _, r := range results {
					if err := enc.Encode(r); err != nil {
						return err
					}
				}
				return nil
			}

			for _, r := range results {
				fmt.Fprintln(cmd.OutOrStdout(), renderResult(r))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "print one JSON object per path")
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "classify directory contents")

	return cmd
}
