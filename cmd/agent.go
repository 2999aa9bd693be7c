package cmd

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/chinmay1088/dhub/agent"
	"github.com/chinmay1088/dhub/signer"
	"github.com/chinmay1088/dhub/wallet"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	agentListen  string
	agentDev     []string
	agentVault   bool
	agentYes     bool
	agentKeyType string
)

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Run a local signing agent",
}

var agentServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve accounts to 'dhub signin --extension'",
	Long: `Serve a keyring over HTTP. Apps enable the agent, list its accounts and
send it payloads to sign; every request is shown here for approval unless
--yes is given.

Accounts come from the vault (--vault) and from development secrets
(--dev name, derived from "//Name").

Examples:
  dhub agent serve --vault
  dhub agent serve --dev alice --dev bob --yes`,
	Args: cobra.NoArgs,
	RunE: runAgentServe,
}

func init() {
	agentServeCmd.Flags().StringVar(&agentListen, "listen", "", "listen address (default: host of --agent-url)")
	agentServeCmd.Flags().StringSliceVar(&agentDev, "dev", nil, "add a development account by name")
	agentServeCmd.Flags().BoolVar(&agentVault, "vault", false, "add the vault account (asks for the password)")
	agentServeCmd.Flags().BoolVarP(&agentYes, "yes", "y", false, "approve every request without asking")
	agentServeCmd.Flags().StringVar(&agentKeyType, "key-type", string(wallet.DefaultKeyType), "key type for development accounts")
	agentCmd.AddCommand(agentServeCmd)
}

func runAgentServe(cmd *cobra.Command, args []string) error {
	ring := signer.NewKeyring("dhub-agent", version)
	if agentYes {
		ring.SetApprover(agent.AutoApprove)
	} else {
		ring.SetApprover(agent.PromptApprover(os.Stdin, os.Stdout))
	}

	if agentVault {
		password, err := readPassword("Enter your wallet password: ")
		if err != nil {
			return err
		}
		key, err := newManager().UnlockVault(password)
		if err != nil {
			return err
		}
		ring.Add("vault", key)
	}

	typ, err := wallet.ParseKeyType(agentKeyType)
	if err != nil {
		return err
	}
	for _, name := range agentDev {
		key, err := wallet.NewKeyFromString(devSecret(name), typ)
		if err != nil {
			return fmt.Errorf("failed to derive %s: %w", name, err)
		}
		ring.Add(name, key)
	}

	accounts, _ := ring.Accounts(cmd.Context())
	if len(accounts) == 0 {
		return fmt.Errorf("no accounts to serve. Use --vault or --dev <name>")
	}

	listen := agentListen
	if listen == "" {
		u, err := url.Parse(cfg.AgentURL)
		if err != nil || u.Host == "" {
			return fmt.Errorf("invalid agent URL: %s", cfg.AgentURL)
		}
		listen = u.Host
	}

	acfg := agent.DefaultConfig()
	acfg.ListenAddr = listen
	acfg.Log = logger
	srv := agent.New(acfg, ring)

	fmt.Printf("🔏 Signing agent listening on %s\n", color.GreenString("http://"+srv.Addr()))
	for _, acc := range accounts {
		fmt.Printf("   %-10s %s (%s)\n", acc.Name, acc.Address, acc.Type)
	}
	if agentYes {
		fmt.Println(color.YellowString("⚠️  Every signature request is approved automatically"))
	}
	fmt.Println()

	ctx, cancel := signalContext()
	defer cancel()
	return srv.Run(ctx)
}

// devSecret is the development derivation for name, e.g. //Alice.
func devSecret(name string) string {
	if name == "" {
		return "//"
	}
	return "//" + strings.ToUpper(name[:1]) + name[1:]
}
