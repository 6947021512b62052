package main

import (
	"fmt"

	"payportal/internal/config"

	"github.com/spf13/cobra"
)

func seedEmployeesCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed-employees",
		Short: "Create employee accounts from a JSON seed file",
		Long: `Create employee accounts from a JSON array of
{username, fullName, idNumber, accountNumber, password}.

Existing usernames are skipped. Every entry must pass the same
validation as customer registration.

Examples:
  portalctl seed-employees --file seeds/employees.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			seeds, err := config.LoadEmployeeSeeds(file)
			if err != nil {
				return err
			}

			e, closeFn, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			result, err := config.NewSeeder(e.auth).Run(cmd.Context(), seeds)
			if result != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "created %d, skipped %d\n", len(result.Created), len(result.Skipped))
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "seeds/employees.json", "path to the employee seed file")
	return cmd
}
