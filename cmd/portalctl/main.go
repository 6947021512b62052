// Command portalctl runs operator tasks against the payment portal database.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:          "portalctl",
		Short:        "Operator tooling for the payment portal",
		Version:      Version,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(keygenCmd())
	rootCmd.AddCommand(seedEmployeesCmd())
	rootCmd.AddCommand(rotateIndexCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
