package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newLoadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load <file>",
		Short: "Validates a review spreadsheet and prints the load report",
		Long: `Runs the start-up loader against an .xlsx or .csv file without starting the
server, then prints the load report (loaded and skipped rows) as JSON.`,
		Args: cobra.ExactArgs(1),
		RunE: runLoadCommand,
	}
}

func runLoadCommand(cmd *cobra.Command, args []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}

	res, err := appInstance.GetLoader().Load(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("load %s: %w", args[0], err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(res.Report); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
