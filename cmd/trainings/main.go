package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/training-tracker/internal/application"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "trainings",
		Short:   "Training session tracker service",
		Version: version,
	}

	rootCmd.AddCommand(serveCmd, ingestCmd, hashPasswordCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password <password>",
	Short: "Derive the bcrypt hash for the operator password",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := application.HashPassword(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}
