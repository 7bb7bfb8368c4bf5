package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gravekeeper/core/cmd/api/commands"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "gravekeeper",
		Short:         "Gravekeeper cemetery administration backend",
		Long:          `Gravekeeper manages cemetery plots, graves, burial records and the maintenance schedule that keeps them tended.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewMigrateCommand())
	rootCmd.AddCommand(commands.NewUserCommand())
	rootCmd.AddCommand(commands.NewSweepCommand())
	rootCmd.AddCommand(commands.NewAlertsCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
