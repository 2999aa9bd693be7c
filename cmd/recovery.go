package cmd

import (
	"fmt"
	"strings"

	"github.com/chinmay1088/dhub/wallet"
	"github.com/spf13/cobra"
)

var recoveryKeyType string

var recoveryPhraseCmd = &cobra.Command{
	Use:   "recovery-phrase [show|import]",
	Short: "Manage recovery phrase",
	Long: `Manage your wallet's recovery phrase (mnemonic).

Commands:
  show    - Display the recovery phrase (requires password)
  import  - Create the vault from an existing recovery phrase`,
	Args: cobra.ExactArgs(1),
	RunE: runRecoveryPhrase,
}

func init() {
	recoveryPhraseCmd.Flags().StringVar(&recoveryKeyType, "key-type", string(wallet.DefaultKeyType), "key type for import: ed25519 or ecdsa")
}

func runRecoveryPhrase(cmd *cobra.Command, args []string) error {
	manager := newManager()
	action := strings.ToLower(args[0])

	switch action {
	case "show":
		return showRecoveryPhrase(manager)
	case "import":
		return importRecoveryPhrase(manager)
	default:
		return fmt.Errorf("invalid action: %s. Use 'show' or 'import'", action)
	}
}

func showRecoveryPhrase(manager *wallet.Manager) error {
	if !manager.VaultExists() {
		return fmt.Errorf("no wallet found. Run 'dhub init' first")
	}

	password, err := readPassword("Enter your wallet password: ")
	if err != nil {
		return err
	}
	mnemonic, err := manager.RecoveryPhrase(password)
	if err != nil {
		return err
	}

	fmt.Println("🔐 Recovery Phrase:")
	fmt.Println()
	fmt.Printf("   %s\n", mnemonic)
	fmt.Println()
	fmt.Println("⚠️  Security Warning:")
	fmt.Println("   - Keep this phrase secure and private")
	fmt.Println("   - Never share it with anyone")
	return nil
}

func importRecoveryPhrase(manager *wallet.Manager) error {
	if manager.VaultExists() {
		return fmt.Errorf("wallet already exists. Remove existing wallet first")
	}
	typ, err := wallet.ParseKeyType(recoveryKeyType)
	if err != nil {
		return err
	}

	fmt.Println("📝 Import Wallet from Recovery Phrase")
	fmt.Println()

	mnemonic, err := readLine("Enter recovery phrase: ")
	if err != nil {
		return err
	}
	mnemonic = strings.Join(strings.Fields(mnemonic), " ")

	password, err := readNewPassword()
	if err != nil {
		return err
	}
	if err := manager.Import(mnemonic, password, typ); err != nil {
		return fmt.Errorf("failed to import wallet: %w", err)
	}

	fmt.Println("✅ Wallet imported successfully!")
	fmt.Println()
	fmt.Println("🔑 Next steps:")
	fmt.Println("   - Run 'dhub signin' to sign in")
	return nil
}
