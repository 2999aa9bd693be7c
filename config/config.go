// Package config resolves the runtime settings of the dhub CLI from flags,
// the environment, the persisted client state and built-in defaults.
package config

import (
	"fmt"
	"os"

	"github.com/chinmay1088/dhub/api"
	"github.com/chinmay1088/dhub/signer"
	"github.com/chinmay1088/dhub/wallet"
	"github.com/spf13/pflag"
)

// DefaultChainURL is the Modchain devnet node.
const DefaultChainURL = "wss://dev.api.modchain.ai"

// DefaultIPFSURL is the local IPFS daemon API.
const DefaultIPFSURL = "localhost:5001"

// Environment variables read by ReadEnv.
const (
	EnvHome     = "DHUB_HOME"
	EnvAPIURL   = "DHUB_API_URL"
	EnvChainURL = "DHUB_CHAIN_URL"
	EnvAgentURL = "DHUB_AGENT_URL"
	EnvIPFSURL  = "DHUB_IPFS_URL"
)

// Flag names read by ReadFlags.
const (
	FlagHome     = "home"
	FlagAPIURL   = "api"
	FlagChainURL = "chain"
	FlagAgentURL = "agent"
	FlagIPFSURL  = "ipfs"
	FlagAppName  = "app"
	FlagDebug    = "debug"
	FlagLogJSON  = "log-json"
)

// Config holds the resolved CLI settings.
type Config struct {
	Home     string
	APIURL   string
	ChainURL string
	AgentURL string
	IPFSURL  string
	AppName  string
	Debug    bool
	LogJSON  bool
}

// Option is a functional option that sets one Config field.
type Option func(*Config) error

// WithHome sets the directory holding the wallet and state files.
func WithHome(home string) Option {
	return func(c *Config) error {
		c.Home = home
		return nil
	}
}

// WithAPIURL sets the backend endpoint, normalized like a saved override.
func WithAPIURL(endpoint string) Option {
	return func(c *Config) error {
		formatted, err := wallet.FormatEndpoint(endpoint)
		if err != nil {
			return err
		}
		c.APIURL = formatted
		return nil
	}
}

// WithChainURL sets the chain node URL.
func WithChainURL(url string) Option {
	return func(c *Config) error {
		c.ChainURL = url
		return nil
	}
}

// WithAgentURL sets the signing agent URL.
func WithAgentURL(url string) Option {
	return func(c *Config) error {
		c.AgentURL = url
		return nil
	}
}

// WithIPFSURL sets the IPFS API address.
func WithIPFSURL(url string) Option {
	return func(c *Config) error {
		c.IPFSURL = url
		return nil
	}
}

// WithAppName sets the name dhub enables extensions with.
func WithAppName(name string) Option {
	return func(c *Config) error {
		c.AppName = name
		return nil
	}
}

// WithDebug toggles debug logging.
func WithDebug(debug bool) Option {
	return func(c *Config) error {
		c.Debug = debug
		return nil
	}
}

// WithLogJSON toggles JSON log output.
func WithLogJSON(json bool) Option {
	return func(c *Config) error {
		c.LogJSON = json
		return nil
	}
}

// Defaults returns the built-in settings.
func Defaults() Config {
	return Config{
		APIURL:   api.DefaultEndpoint,
		ChainURL: DefaultChainURL,
		AgentURL: signer.DefaultAgentURL,
		IPFSURL:  DefaultIPFSURL,
		AppName:  signer.DefaultAppName,
	}
}

// New applies opts, in order, over the defaults.
func New(opts ...Option) (*Config, error) {
	c := Defaults()
	for _, opt := range opts {
		if err := opt(&c); err != nil {
			return nil, err
		}
	}
	if c.Home == "" {
		home, err := wallet.DefaultHome()
		if err != nil {
			return nil, err
		}
		c.Home = home
	}
	return &c, nil
}

// ReadState returns options for the settings persisted in the client state.
func ReadState(st wallet.State) []Option {
	var opts []Option
	if st.BackendEndpoint != "" {
		opts = append(opts, WithAPIURL(st.BackendEndpoint))
	}
	return opts
}

// ReadEnv scans the process environment and returns 0 or more options.
func ReadEnv() []Option {
	var opts []Option
	if v := os.Getenv(EnvHome); v != "" {
		opts = append(opts, WithHome(v))
	}
	if v := os.Getenv(EnvAPIURL); v != "" {
		opts = append(opts, WithAPIURL(v))
	}
	if v := os.Getenv(EnvChainURL); v != "" {
		opts = append(opts, WithChainURL(v))
	}
	if v := os.Getenv(EnvAgentURL); v != "" {
		opts = append(opts, WithAgentURL(v))
	}
	if v := os.Getenv(EnvIPFSURL); v != "" {
		opts = append(opts, WithIPFSURL(v))
	}
	return opts
}

// RegisterFlags adds the flags read by ReadFlags to fset.
func RegisterFlags(fset *pflag.FlagSet) {
	fset.String(FlagHome, "", "directory holding the wallet and state files (default ~/.dhub)")
	fset.String(FlagAPIURL, "", "backend endpoint")
	fset.String(FlagChainURL, "", "chain node websocket URL")
	fset.String(FlagAgentURL, "", "signing agent URL")
	fset.String(FlagIPFSURL, "", "IPFS API address")
	fset.String(FlagAppName, "", "app name used when enabling the extension")
	fset.Bool(FlagDebug, false, "enable debug logging")
	fset.Bool(FlagLogJSON, false, "log in JSON format")
}

// ReadFlags scans the flags in fset that were set on the command line and
// returns 0 or more options.
func ReadFlags(fset *pflag.FlagSet) []Option {
	var opts []Option
	str := func(name string, with func(string) Option) {
		if !fset.Changed(name) {
			return
		}
		if v, err := fset.GetString(name); err == nil && v != "" {
			opts = append(opts, with(v))
		}
	}
	str(FlagHome, WithHome)
	str(FlagAPIURL, WithAPIURL)
	str(FlagChainURL, WithChainURL)
	str(FlagAgentURL, WithAgentURL)
	str(FlagIPFSURL, WithIPFSURL)
	str(FlagAppName, WithAppName)

	if v, err := fset.GetBool(FlagDebug); err == nil && v {
		opts = append(opts, WithDebug(true))
	}
	if v, err := fset.GetBool(FlagLogJSON); err == nil && v {
		opts = append(opts, WithLogJSON(true))
	}
	return opts
}

// Load resolves the configuration with precedence flags > env > state >
// defaults. The state file is read from the home directory selected by the
// flags or env.
func Load(fset *pflag.FlagSet) (*Config, error) {
	early := append(ReadEnv(), ReadFlags(fset)...)
	base, err := New(early...)
	if err != nil {
		return nil, err
	}

	st, err := wallet.NewStateStore(base.Home).Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	var opts []Option
	opts = append(opts, WithHome(base.Home))
	opts = append(opts, ReadState(st)...)
	opts = append(opts, early...)
	return New(opts...)
}
