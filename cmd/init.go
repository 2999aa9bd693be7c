package cmd

import (
	"fmt"

	"github.com/chinmay1088/dhub/wallet"
	"github.com/spf13/cobra"
)

var initKeyType string

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new wallet vault",
	Long: `Initialize an encrypted dhub vault with a secure recovery phrase.

This command will:
  - Generate a new 24-word recovery phrase
  - Encrypt it under your password
  - Derive your local signing key from it on every sign-in`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVar(&initKeyType, "key-type", string(wallet.DefaultKeyType), "key type: ed25519 or ecdsa")
}

func runInit(cmd *cobra.Command, args []string) error {
	manager := newManager()

	if manager.VaultExists() {
		return fmt.Errorf("wallet already exists. Remove %s/wallet.vault to create a new wallet", manager.Home())
	}
	typ, err := wallet.ParseKeyType(initKeyType)
	if err != nil {
		return err
	}

	fmt.Println("🚀 Initializing dhub wallet")
	fmt.Println()

	password, err := readNewPassword()
	if err != nil {
		return err
	}

	fmt.Println("Generating wallet...")
	mnemonic, err := manager.Initialize(password, typ)
	if err != nil {
		return fmt.Errorf("failed to initialize wallet: %w", err)
	}

	fmt.Println("✅ Wallet initialized successfully!")
	fmt.Println()
	fmt.Println("🔐 Recovery Phrase (24 words):")
	fmt.Println()
	fmt.Printf("   %s\n", mnemonic)
	fmt.Println()
	fmt.Println("⚠️  IMPORTANT:")
	fmt.Println("   - Write down this recovery phrase and store it securely")
	fmt.Println("   - Anyone with this phrase controls your modules and tokens")
	fmt.Println("   - This is the only way to recover your wallet")
	fmt.Println()
	fmt.Println("🔑 Next steps:")
	fmt.Println("   - Run 'dhub signin' to sign in")
	fmt.Println("   - Run 'dhub status' to see your address")
	return nil
}

// readNewPassword prompts for a password twice.
func readNewPassword() (string, error) {
	password, err := readPassword("Enter a password for your wallet: ")
	if err != nil {
		return "", err
	}
	if len(password) < 8 {
		return "", fmt.Errorf("password must be at least 8 characters long")
	}
	confirmPassword, err := readPassword("Confirm password: ")
	if err != nil {
		return "", err
	}
	if password != confirmPassword {
		return "", fmt.Errorf("passwords do not match")
	}
	return password, nil
}
