package cmd

import (
	"fmt"
	"time"

	"github.com/chinmay1088/dhub/flow"
	"github.com/chinmay1088/dhub/signer"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var (
	transferYes     bool
	transferTimeout time.Duration
)

var transferCmd = &cobra.Command{
	Use:     "transfer <amount> <address>",
	Aliases: []string{"send"},
	Short:   "Send tokens to another address",
	Long: `Sign and submit a transfer_keep_alive from the connected wallet and
wait until it is finalized.

Examples:
  dhub transfer 1.5 5FHneW46xGXgs5mUiveU4sbTyGBzmstUspZC92UhjJM694ty
  dhub transfer 10 5FHneW46xGXgs5mUiveU4sbTyGBzmstUspZC92UhjJM694ty --yes`,
	Args: cobra.ExactArgs(2),
	RunE: runTransfer,
}

func init() {
	transferCmd.Flags().BoolVarP(&transferYes, "yes", "y", false, "skip the confirmation prompt")
	transferCmd.Flags().DurationVar(&transferTimeout, "timeout", flow.DefaultTransferTimeout, "how long to wait for finalization")
}

// transferSteps maps flow states onto progress bar steps.
var transferSteps = map[flow.TransferState]struct {
	step int
	desc string
}{
	flow.TransferChecking:   {1, "Checking balance..."},
	flow.TransferSigning:    {2, "Waiting for signature..."},
	flow.TransferSubmitting: {3, "Submitting..."},
	flow.TransferInBlock:    {4, "In block, waiting for finalization..."},
	flow.TransferFinalized:  {5, "Finalized"},
}

func runTransfer(cmd *cobra.Command, args []string) error {
	amount, to := args[0], args[1]

	manager := newManager()
	s, err := resolveSigner(manager)
	if err != nil {
		return err
	}
	ps, ok := s.(signer.PayloadSigner)
	if !ok {
		return fmt.Errorf("wallet cannot sign transactions")
	}

	ctx, cancel := signalContext()
	defer cancel()

	client, err := dialChain(ctx)
	if err != nil {
		return fmt.Errorf("Connection error: %w", err)
	}
	defer client.Close()

	bar := progressbar.NewOptions(len(transferSteps),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(false),
		progressbar.OptionSetWidth(50),
		progressbar.OptionSetDescription("[cyan][0/5][reset] Connecting..."),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	progress := func(state flow.TransferState, _ string) {
		step, ok := transferSteps[state]
		if !ok {
			return
		}
		bar.Describe(fmt.Sprintf("[cyan][%d/%d][reset] %s", step.step, len(transferSteps), step.desc))
		_ = bar.Set(step.step)
	}

	tr := flow.NewTransfer(client, ps,
		flow.WithTimeout(transferTimeout),
		flow.WithLogger(logger),
		flow.WithProgress(progress),
	)
	meta, err := tr.Connect(ctx)
	if err != nil {
		return err
	}

	fmt.Println("💸 Transfer")
	fmt.Printf("🌐 Chain: %s\n", meta)
	fmt.Printf("   From:    %s\n", ps.Address())
	fmt.Printf("   To:      %s\n", to)
	fmt.Printf("   Amount:  %s %s\n", amount, meta.Symbol)
	if bal := tr.Balance(); bal != nil {
		fmt.Printf("   Balance: %s %s\n", flow.FromPlanck(bal, meta.Decimals), meta.Symbol)
	}
	fmt.Println()

	if !transferYes && !confirm("Send this transfer?") {
		fmt.Println("❌ Cancelled")
		return nil
	}

	res, err := tr.Execute(ctx, to, amount)
	if err != nil {
		_ = bar.Clear()
		return err
	}
	_ = bar.Finish()
	fmt.Println()

	fmt.Println("✅ Transfer finalized!")
	fmt.Printf("   Amount:     %s %s\n", color.GreenString(res.Amount), meta.Symbol)
	fmt.Printf("   To:         %s\n", res.To)
	fmt.Printf("   Tx hash:    %s\n", res.TxHash)
	fmt.Printf("   Block hash: %s\n", res.BlockHash)
	if bal := tr.Balance(); bal != nil {
		fmt.Printf("   Balance:    %s %s\n", flow.FromPlanck(bal, meta.Decimals), meta.Symbol)
	}
	return nil
}
