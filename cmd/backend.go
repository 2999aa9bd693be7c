package cmd

import (
	"fmt"
	"strings"

	"github.com/chinmay1088/dhub/api"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var backendCmd = &cobra.Command{
	Use:   "backend [show|set <url>|reset]",
	Short: "Show or change the backend endpoint",
	Long: `Show the backend endpoint or override it.

A URL without a scheme is saved with http:// in front.

Examples:
  dhub backend                        # Show current endpoint
  dhub backend set api.example.org    # Use http://api.example.org
  dhub backend reset                  # Back to the default`,
	Args: cobra.RangeArgs(0, 2),
	RunE: runBackend,
}

func runBackend(cmd *cobra.Command, args []string) error {
	action := "show"
	if len(args) > 0 {
		action = strings.ToLower(args[0])
	}
	store := newManager().State()

	switch action {
	case "show":
		st, err := store.Load()
		if err != nil {
			return err
		}
		if st.BackendEndpoint == "" {
			fmt.Printf("🌐 Backend: %s %s\n", color.GreenString(cfg.APIURL), color.New(color.Faint).Sprint("(default)"))
		} else {
			fmt.Printf("🌐 Backend: %s %s\n", color.YellowString(st.BackendEndpoint), color.New(color.Faint).Sprint("(custom)"))
		}
		return nil
	case "set":
		if len(args) != 2 {
			return fmt.Errorf("usage: dhub backend set <url>")
		}
		endpoint, err := store.SetBackend(args[1])
		if err != nil {
			return fmt.Errorf("failed to save backend: %w", err)
		}
		fmt.Printf("✅ Backend set to %s\n", color.GreenString(endpoint))
		return nil
	case "reset":
		if err := store.ResetBackend(); err != nil {
			return fmt.Errorf("failed to reset backend: %w", err)
		}
		fmt.Printf("✅ Backend reset to %s\n", color.GreenString(api.DefaultEndpoint))
		return nil
	default:
		return fmt.Errorf("invalid action: %s. Use 'show', 'set' or 'reset'", action)
	}
}
