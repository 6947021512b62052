package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func rotateIndexCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "rotate-index",
		Short: "Compute blind index columns for users that lack them",
		Long: `Compute the id number and account number blind indexes.

By default only rows with an empty index are touched. Pass --all after
changing DATA_INDEX_KEY to recompute every row.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, closeFn, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			result, err := e.identity.BackfillIndexes(cmd.Context(), all)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "updated %d users\n", result.Updated)
			if len(result.Failed) > 0 {
				return fmt.Errorf("%d users could not be indexed: %v", len(result.Failed), result.Failed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "recompute indexes for every user")
	return cmd
}
