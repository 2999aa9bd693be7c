package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/chinmay1088/dhub/api"
	"github.com/chinmay1088/dhub/flow"
	"github.com/chinmay1088/dhub/mods"
	"github.com/chinmay1088/dhub/wallet"
	"github.com/spf13/cobra"
)

var (
	modsSearch   string
	modsUser     string
	modsMine     bool
	modsSort     string
	modsPage     int
	modsPageSize int
	modsJSON     bool
)

var modsCmd = &cobra.Command{
	Use:   "mods",
	Short: "List registered modules",
	Long: `List the modules registered on the backend.

Sort keys: recent, name, author, balance, updated, created

Examples:
  dhub mods
  dhub mods --search weather --sort name
  dhub mods --mine
  dhub mods --page 2 --page-size 50 --json`,
	Args: cobra.NoArgs,
	RunE: runMods,
}

func init() {
	modsCmd.Flags().StringVarP(&modsSearch, "search", "s", "", "only show modules matching this term")
	modsCmd.Flags().StringVar(&modsUser, "user", "", "only show modules owned by this key")
	modsCmd.Flags().BoolVar(&modsMine, "mine", false, "only show modules owned by the connected wallet")
	modsCmd.Flags().StringVar(&modsSort, "sort", string(mods.SortRecent), "sort order")
	modsCmd.Flags().IntVar(&modsPage, "page", 1, "page number")
	modsCmd.Flags().IntVar(&modsPageSize, "page-size", 20, "modules per page")
	modsCmd.Flags().BoolVar(&modsJSON, "json", false, "print JSON instead of a table")
}

func runMods(cmd *cobra.Command, args []string) error {
	key, err := mods.ParseSortKey(modsSort)
	if err != nil {
		return err
	}
	if modsPage < 1 {
		return fmt.Errorf("page must be 1 or greater")
	}

	manager := newManager()
	filter := mods.Filter{User: modsUser, Search: modsSearch}
	if modsMine {
		filter.User = userFallback(manager)
		if filter.User == "" {
			return flow.ErrNoUserKey
		}
	}

	ctx, cancel := signalContext()
	defer cancel()

	update, done := startSpinner("fetching modules")
	update(fmt.Sprintf("page %d", modsPage))
	list, err := newAPIClient(manager).Mods(ctx, api.ModsRequest{
		Search:   modsSearch,
		Page:     modsPage,
		PageSize: modsPageSize,
	})
	done()
	if err != nil {
		return fmt.Errorf("failed to list modules: %w", err)
	}
	list = mods.Select(list, filter, key)

	if modsJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	}
	if len(list) == 0 {
		fmt.Println("📭 No modules found")
		return nil
	}
	fmt.Printf("📦 Modules (page %d, sorted by %s)\n", modsPage, key)
	return printMods(list)
}

func printMods(list []api.Module) error {
	tw := tabwriter.NewWriter(os.Stdout, 10, 4, 2, ' ', 0)
	defer func() { _ = tw.Flush() }()
	if _, err := tw.Write([]byte("Name\tAuthor\tBalance\tUpdated\n")); err != nil {
		return fmt.Errorf("Error writing tabular output: %w", err)
	}
	for _, m := range list {
		line := fmt.Sprintf("%s\t%s\t%s\t%s\n", m.Name, wallet.ShortAddress(m.Key), m.Balance.String(), formatUnix(m.Updated, m.Created))
		if _, err := tw.Write([]byte(line)); err != nil {
			return fmt.Errorf("Error writing tabular output: %w", err)
		}
	}
	return nil
}

// formatUnix renders the first non-zero unix timestamp.
func formatUnix(ts ...int64) string {
	for _, t := range ts {
		if t > 0 {
			return time.Unix(t, 0).Format("2006-01-02 15:04")
		}
	}
	return "-"
}
