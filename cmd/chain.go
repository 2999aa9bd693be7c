package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var chainCmd = &cobra.Command{
	Use:   "chain",
	Short: "Show information about the connected chain",
	Args:  cobra.NoArgs,
	RunE:  runChain,
}

func runChain(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	update, done := startSpinner("connecting")
	update(cfg.ChainURL)
	client, err := dialChain(ctx)
	if err != nil {
		done()
		return fmt.Errorf("Connection error: %w", err)
	}
	defer client.Close()
	meta, err := client.Connect(ctx)
	done()
	if err != nil {
		return fmt.Errorf("Connection error: %w", err)
	}

	fmt.Println("⛓️  Chain")
	fmt.Printf("   Endpoint:    %s\n", cfg.ChainURL)
	fmt.Printf("   Name:        %s\n", color.GreenString(meta.Chain))
	fmt.Printf("   Runtime:     %s / %s\n", meta.Runtime.SpecName, meta.Runtime.ImplName)
	fmt.Printf("   Spec:        v%d (impl v%d)\n", meta.Runtime.SpecVersion, meta.Runtime.ImplVersion)
	fmt.Printf("   Tx version:  %d\n", meta.Runtime.TransactionVersion)
	fmt.Printf("   Genesis:     %s\n", meta.GenesisHash.Hex())
	fmt.Printf("   Token:       %s (%d decimals)\n", meta.Symbol, meta.Decimals)
	fmt.Printf("   SS58 prefix: %d\n", meta.SS58Prefix)
	return nil
}
