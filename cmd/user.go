package cmd

import (
	"fmt"

	"github.com/chinmay1088/dhub/flow"
	"github.com/chinmay1088/dhub/mods"
	"github.com/chinmay1088/dhub/wallet"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var userCmd = &cobra.Command{
	Use:   "user [key]",
	Short: "Show a user's balance and modules",
	Long: `Look a user up by key. Without a key the connected wallet, or else
the client key, is used.

Examples:
  dhub user
  dhub user 5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY`,
	Args: cobra.MaximumNArgs(1),
	RunE: runUser,
}

func runUser(cmd *cobra.Command, args []string) error {
	manager := newManager()
	var key string
	if len(args) == 1 {
		key = args[0]
	}

	ctx, cancel := signalContext()
	defer cancel()

	update, done := startSpinner("fetching user")
	update(key)
	user, err := flow.NewUserInfo(newAPIClient(manager), userFallback(manager)).Run(ctx, key)
	done()
	if err != nil {
		return err
	}

	fmt.Println("👤 User")
	fmt.Printf("   Key:     %s\n", color.CyanString(user.Key))
	if user.Address != "" && user.Address != user.Key {
		fmt.Printf("   Address: %s\n", user.Address)
	}
	fmt.Printf("   Balance: %s\n", color.GreenString(user.Balance.String()))
	fmt.Println()

	if len(user.Mods) == 0 {
		fmt.Println("📭 No modules")
		return nil
	}
	fmt.Printf("📦 Modules (%d)\n", len(user.Mods))
	return printMods(mods.Select(user.Mods, mods.Filter{}, mods.SortRecent))
}

// userFallback is the connected wallet address, else the client key.
func userFallback(manager *wallet.Manager) string {
	if st, err := manager.State().Load(); err == nil && st.WalletAddress != "" {
		return st.WalletAddress
	}
	if key, err := manager.LocalKey(); err == nil {
		return key.Address()
	}
	return ""
}
