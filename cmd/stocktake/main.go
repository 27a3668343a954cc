// Package main provides the stocktake binary: the device-side CLI that
// imports a stock list, runs the scan/confirm loop against a shared session
// and exports the counted result.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:           "stocktake",
		Short:         "Inventory counting with a shared scan session",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&envFile, "env", "", "path to a .env file")

	cmd.AddCommand(countCmd(&envFile), joinCmd(&envFile))
	return cmd
}

func countCmd(envFile *string) *cobra.Command {
	var (
		file       string
		sheetRange string
		codeCol    int
		descCol    int
		stockCol   int
	)

	cmd := &cobra.Command{
		Use:   "count",
		Short: "Import a stock list and start a new counting session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*envFile)
			if err != nil {
				return err
			}
			defer a.close()

			mapping := mappingFlags{
				codeCol:     codeCol,
				descCol:     descCol,
				stockCol:    stockCol,
				stockColSet: cmd.Flags().Changed("stock-col"),
			}
			return a.runCount(cmd.Context(), file, sheetRange, mapping)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "xlsx file with the stock list")
	cmd.Flags().StringVar(&sheetRange, "sheet-range", "", "Google Sheets range to import instead of a file (e.g. Stoc!A:D)")
	cmd.Flags().IntVar(&codeCol, "code-col", 0, "column holding the product code")
	cmd.Flags().IntVar(&descCol, "desc-col", 1, "column holding the description")
	cmd.Flags().IntVar(&stockCol, "stock-col", -1, "column holding the scriptic stock (-1 for none)")
	return cmd
}

func joinCmd(envFile *string) *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "join",
		Short: "Join an existing counting session from a second device",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*envFile)
			if err != nil {
				return err
			}
			defer a.close()

			return a.runJoin(cmd.Context(), sessionID)
		},
	}

	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "session identifier shown on the originating device")
	_ = cmd.MarkFlagRequired("session")
	return cmd
}
