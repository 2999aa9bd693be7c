package cmd

import (
	"fmt"

	"github.com/chinmay1088/dhub/wallet"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:     "status",
	Aliases: []string{"address"},
	Short:   "Show the connected wallet and endpoints",
	Args:    cobra.NoArgs,
	RunE:    runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	manager := newManager()
	st, err := manager.State().Load()
	if err != nil {
		return err
	}

	fmt.Println("👛 Wallet")
	switch {
	case st.IsLocal():
		fmt.Printf("   Mode:    %s\n", color.GreenString("local key"))
	case st.IsSubwallet():
		fmt.Printf("   Mode:    %s\n", color.GreenString("extension (signing agent)"))
	default:
		fmt.Printf("   Mode:    %s\n", color.YellowString("not connected"))
	}
	if st.WalletAddress != "" {
		fmt.Printf("   Address: %s\n", color.CyanString(st.WalletAddress))
		fmt.Printf("   Type:    %s\n", st.WalletType)
	}
	if key, err := manager.LocalKey(); err == nil {
		fmt.Printf("   Client key: %s\n", wallet.ShortAddress(key.Address()))
	} else if st.WalletMode != "" {
		fmt.Printf("   Session: %s\n", color.YellowString("locked"))
	}
	fmt.Printf("   Vault:   %v\n", manager.VaultExists())
	fmt.Println()

	fmt.Println("🌐 Endpoints")
	backend := cfg.APIURL
	if st.BackendEndpoint != "" {
		backend += " (custom)"
	}
	fmt.Printf("   Backend: %s\n", backend)
	fmt.Printf("   Chain:   %s\n", cfg.ChainURL)
	fmt.Printf("   Agent:   %s\n", cfg.AgentURL)
	fmt.Printf("   IPFS:    %s\n", cfg.IPFSURL)
	return nil
}
