package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/chinmay1088/dhub/api"
	"github.com/chinmay1088/dhub/chains/substrate"
	"github.com/chinmay1088/dhub/signer"
	"github.com/chinmay1088/dhub/wallet"
	"github.com/mattn/go-isatty"
	"github.com/theckman/yacspin"
	"golang.org/x/term"
)

func newManager() *wallet.Manager {
	return wallet.NewManager(cfg.Home)
}

func newAgentClient() *signer.AgentClient {
	return signer.NewAgentClient(cfg.AgentURL)
}

// newAPIClient returns a backend client that signs requests with the client
// key when one is available.
func newAPIClient(manager *wallet.Manager) *api.Client {
	opts := []api.Option{api.WithLogger(logger)}
	if key, err := manager.LocalKey(); err == nil {
		opts = append(opts, api.WithKey(key))
	}
	return api.NewClient(cfg.APIURL, opts...)
}

// resolveSigner returns the signer for the connected wallet.
func resolveSigner(manager *wallet.Manager) (signer.Signer, error) {
	st, err := manager.State().Load()
	if err != nil {
		return nil, err
	}
	if st.WalletMode == "" {
		return nil, fmt.Errorf("no wallet connected. Run 'dhub signin' first")
	}
	var key *wallet.Key
	if st.IsLocal() {
		key, err = manager.LocalKey()
		if err != nil {
			return nil, fmt.Errorf("wallet is locked. Run 'dhub signin' first: %w", err)
		}
	}
	return signer.Resolve(st, key, newAgentClient(), cfg.AppName)
}

func dialChain(ctx context.Context) (*substrate.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	return substrate.Dial(ctx, cfg.ChainURL, substrate.WithLogger(logger))
}

// signalContext is cancelled on Ctrl-C.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(password), nil
}

func readLine(prompt string) (string, error) {
	fmt.Print(prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func confirm(prompt string) bool {
	answer, err := readLine(prompt + " (y/N): ")
	if err != nil {
		return false
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes"
}

func tty() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// startSpinner initializes and starts a "spinner" for the console and returns
// a function for updating the spinner's message and another to stop it.
func startSpinner(prefix string) (update func(string), done func()) {
	update = func(string) {}
	done = func() {}

	// no-op if we're not writing to a TTY
	if tty() {
		spinner, _ := yacspin.New(yacspin.Config{
			CharSet:         yacspin.CharSets[11],
			Frequency:       300 * time.Millisecond,
			Prefix:          prefix + " ",
			Suffix:          " ",
			SuffixAutoColon: false,
		})
		_ = spinner.Start()

		update = func(msg string) {
			spinner.Message(msg)
		}
		done = func() {
			_ = spinner.Stop()
		}
	}
	return update, done
}
