package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/chinmay1088/dhub/flow"
	"github.com/chinmay1088/dhub/signer"
	"github.com/chinmay1088/dhub/wallet"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	signinExtension bool
	signinAccount   string
)

var signinCmd = &cobra.Command{
	Use:   "signin",
	Short: "Connect a wallet",
	Long: `Connect a wallet for this session.

By default you sign in with your password: it unlocks the vault when one
exists, otherwise your local key is derived from the password itself.

With --extension dhub asks the signing agent (see 'dhub agent serve') for
its accounts and signs through it.

Examples:
  dhub signin
  dhub signin --extension
  dhub signin --extension --account 5GrwvaEF...`,
	Args: cobra.NoArgs,
	RunE: runSignin,
}

var signoutCmd = &cobra.Command{
	Use:   "signout",
	Short: "Disconnect the wallet",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := flow.NewSignIn(newManager(), nil, cfg.AppName).SignOut(); err != nil {
			return err
		}
		fmt.Println("👋 Signed out")
		return nil
	},
}

func init() {
	signinCmd.Flags().BoolVar(&signinExtension, "extension", false, "sign in with a signing agent account")
	signinCmd.Flags().StringVar(&signinAccount, "account", "", "agent account address to use")
}

func runSignin(cmd *cobra.Command, args []string) error {
	manager := newManager()
	ctx, cancel := signalContext()
	defer cancel()

	if !signinExtension {
		if !manager.VaultExists() {
			fmt.Println(color.YellowString("💡 No vault found: your key will be derived from this password."))
		}
		password, err := readPassword("Enter your wallet password: ")
		if err != nil {
			return err
		}
		key, err := flow.NewSignIn(manager, nil, cfg.AppName).Local(password)
		if err != nil {
			return err
		}
		fmt.Println("✅ Signed in")
		fmt.Printf("   Address: %s\n", color.CyanString(key.Address()))
		fmt.Printf("   Type:    %s\n", key.Type())
		return nil
	}

	s := flow.NewSignIn(manager, newAgentClient(), cfg.AppName)
	accounts, err := s.Accounts(ctx)
	if errors.Is(err, signer.ErrExtensionNotFound) {
		return fmt.Errorf("no signing agent found at %s. Start one with 'dhub agent serve'", cfg.AgentURL)
	}
	if err != nil {
		return err
	}

	address := signinAccount
	if address == "" {
		address, err = pickAccount(accounts)
		if err != nil {
			return err
		}
	}

	if _, err := s.Extension(ctx, address); err != nil {
		return err
	}
	fmt.Println("✅ Signed in with agent account")
	fmt.Printf("   Address: %s\n", color.CyanString(address))
	return nil
}

func pickAccount(accounts []signer.Account) (string, error) {
	if len(accounts) == 1 {
		return accounts[0].Address, nil
	}
	fmt.Println("Available accounts:")
	for i, acc := range accounts {
		fmt.Printf("  [%d] %-12s %s\n", i+1, acc.Name, acc.Address)
	}
	answer, err := readLine("Select an account: ")
	if err != nil {
		return "", err
	}
	n, err := strconv.Atoi(answer)
	if err != nil || n < 1 || n > len(accounts) {
		return "", wallet.ErrAccountRequired
	}
	return accounts[n-1].Address, nil
}
