package cmd

import (
	"fmt"
	"log/slog"

	"github.com/chinmay1088/dhub/config"
	"github.com/chinmay1088/dhub/logging"
	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"

	cfg    *config.Config
	logger = logging.Discard()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "dhub",
	Short: "Client for the dhub decentralized module registry",
	Long: `dhub registers and manages modules on the dhub registry and moves
MOD tokens on the Modchain network.

Features:
  • Local keys or an extension account through the signing agent
  • Module preview, signing and registration
  • Module listing, user lookup and name registration
  • MOD transfers with finalization tracking
  • IPFS pinning of module content

Examples:
  dhub init                                   # Create an encrypted vault
  dhub signin                                 # Sign in with your password
  dhub signin --extension                     # Sign in with an agent account
  dhub create https://github.com/acme/mod     # Preview, sign and register a module
  dhub mods --sort balance                    # List modules
  dhub transfer 1.5 5GrwvaEF5zXb26Fz...       # Send 1.5 MOD
  dhub agent serve --dev alice                # Run a local signing agent`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(cmd.Flags())
		if err != nil {
			return err
		}
		cfg = c
		logger = logging.Setup(logging.Options{
			Debug:   c.Debug,
			JSON:    c.LogJSON,
			Service: "dhub",
			Version: version,
		})
		logger.Debug("configuration loaded",
			slog.String("home", c.Home),
			slog.String("api", c.APIURL),
			slog.String("chain", c.ChainURL))
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	config.RegisterFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(recoveryPhraseCmd)
	rootCmd.AddCommand(signinCmd)
	rootCmd.AddCommand(signoutCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(backendCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(modsCmd)
	rootCmd.AddCommand(balanceCmd)
	rootCmd.AddCommand(transferCmd)
	rootCmd.AddCommand(chainCmd)
	rootCmd.AddCommand(pinCmd)
	rootCmd.AddCommand(agentCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(versionCmd)
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("dhub v%s\n", version)
	},
}
