package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/chinmay1088/dhub/flow"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var registerTake int

var registerCmd = &cobra.Command{
	Use:   "register <name>",
	Short: "Register a module by name",
	Long: `Register an existing module by name with a take percentage.

Examples:
  dhub register weather
  dhub register weather --take 10`,
	Args: cobra.ExactArgs(1),
	RunE: runRegister,
}

func init() {
	registerCmd.Flags().IntVar(&registerTake, "take", 0, "take percentage (0-100)")
}

func runRegister(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	update, done := startSpinner("registering")
	update(args[0])
	resp, err := flow.NewRegister(newAPIClient(newManager())).Run(ctx, args[0], registerTake)
	done()
	if err != nil {
		return err
	}

	fmt.Printf("✅ Registered %s (take %d%%)\n", color.GreenString(args[0]), registerTake)
	if len(resp) > 0 && string(resp) != "null" {
		out, err := json.MarshalIndent(resp, "   ", "  ")
		if err != nil {
			return fmt.Errorf("failed to format response: %w", err)
		}
		fmt.Printf("   %s\n", out)
	}
	return nil
}
