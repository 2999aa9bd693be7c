package cmd

import (
	"fmt"

	"github.com/chinmay1088/dhub/flow"
	"github.com/chinmay1088/dhub/wallet"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var balanceCmd = &cobra.Command{
	Use:   "balance [address]",
	Short: "Check the on-chain balance",
	Long: `Check the balance of an address on the chain. Without an address the
connected wallet is used.

Examples:
  dhub balance
  dhub balance 5FHneW46xGXgs5mUiveU4sbTyGBzmstUspZC92UhjJM694ty`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBalance,
}

func runBalance(cmd *cobra.Command, args []string) error {
	address := userFallback(newManager())
	if len(args) == 1 {
		address = args[0]
	}
	if address == "" {
		return flow.ErrNoWallet
	}
	if !wallet.IsValidAddress(address) {
		return fmt.Errorf("invalid address: %s", address)
	}

	ctx, cancel := signalContext()
	defer cancel()

	client, err := dialChain(ctx)
	if err != nil {
		return fmt.Errorf("Connection error: %w", err)
	}
	defer client.Close()

	meta, err := client.Connect(ctx)
	if err != nil {
		return fmt.Errorf("Connection error: %w", err)
	}
	info, err := client.AccountInfo(ctx, address)
	if err != nil {
		return fmt.Errorf("failed to fetch balance: %w", err)
	}

	fmt.Println("💰 Balance")
	fmt.Printf("🌐 Chain: %s\n", meta)
	fmt.Println()
	fmt.Printf("   Address:      %s\n", color.CyanString(address))
	fmt.Printf("   Free:         %s %s\n", color.GreenString(flow.FromPlanck(info.Free, meta.Decimals).String()), meta.Symbol)
	fmt.Printf("   Transferable: %s %s\n", flow.FromPlanck(info.Transferable(), meta.Decimals).String(), meta.Symbol)
	if info.Reserved.Sign() > 0 {
		fmt.Printf("   Reserved:     %s %s\n", flow.FromPlanck(info.Reserved, meta.Decimals).String(), meta.Symbol)
	}
	fmt.Printf("   Nonce:        %d\n", info.Nonce)
	return nil
}
