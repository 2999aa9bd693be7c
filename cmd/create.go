package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/chinmay1088/dhub/content"
	"github.com/chinmay1088/dhub/flow"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	createName       string
	createCollateral float64
	createYes        bool
	createNoPreview  bool
)

var createCmd = &cobra.Command{
	Use:   "create <url|ipfs-hash>",
	Short: "Preview, sign and register a module",
	Long: `Create a module from a GitHub repository, an IPFS hash or any URL.

The backend first returns a preview of the module; dhub signs it with the
connected wallet and, once you confirm, registers it.

Examples:
  dhub create https://github.com/acme/weather
  dhub create ipfs://QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG --collateral 10
  dhub create https://example.org/mod.tar.gz --name weather --yes`,
	Args: cobra.ExactArgs(1),
	RunE: runCreate,
}

func init() {
	createCmd.Flags().StringVar(&createName, "name", "", "module name (default: last path segment of the URL)")
	createCmd.Flags().Float64Var(&createCollateral, "collateral", 0, "collateral to stake")
	createCmd.Flags().BoolVarP(&createYes, "yes", "y", false, "skip the confirmation prompt")
	createCmd.Flags().BoolVar(&createNoPreview, "no-preview", false, "submit without requesting a preview")
}

func runCreate(cmd *cobra.Command, args []string) error {
	url := args[0]
	if content.Classify(url) == content.KindUnknown {
		if strings.HasPrefix(url, "ipfs://") {
			if _, err := content.ParseIPFS(url); err != nil {
				return err
			}
		}
		fmt.Println(color.YellowString("⚠️  Unrecognized location, the backend may reject it"))
	}

	manager := newManager()
	s, err := resolveSigner(manager)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	create := flow.NewCreate(newAPIClient(manager), s, logger)
	create.SetURL(url)
	if createName != "" {
		create.SetName(createName)
	}
	create.SetCollateral(createCollateral)

	form := create.Form()
	fmt.Println("📦 Creating module")
	fmt.Printf("   URL:        %s (%s)\n", form.URL, content.Classify(form.URL))
	fmt.Printf("   Name:       %s\n", form.Name)
	fmt.Printf("   Collateral: %v\n", form.Collateral)
	fmt.Printf("   Owner:      %s\n", s.Address())
	fmt.Println()

	if !createNoPreview {
		update, done := startSpinner("generating preview")
		update("waiting for backend")
		info, err := create.Preview(ctx)
		done()
		if err != nil {
			return err
		}
		if err := printPreview(info.Preview.Fields); err != nil {
			return err
		}
	}

	if !createYes && !confirm("Register this module?") {
		fmt.Println("❌ Cancelled")
		return nil
	}

	update, done := startSpinner("registering module")
	update("signing")
	res, err := create.Submit(ctx)
	done()
	if err != nil {
		return err
	}

	fmt.Println("✅ Module created successfully!")
	fmt.Printf("   Name:      %s\n", color.GreenString(res.Module.Name))
	fmt.Printf("   Key:       %s\n", res.Module.Key)
	if res.Module.Cid != "" {
		fmt.Printf("   CID:       %s\n", res.Module.Cid)
	}
	fmt.Printf("   Signature: %s\n", res.Signature.Signature)
	return nil
}

func printPreview(fields func() (map[string]interface{}, error)) error {
	preview, err := fields()
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(preview))
	for k := range preview {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Println("🔍 Preview:")
	for _, k := range keys {
		fmt.Printf("   %-12s %v\n", k+":", preview[k])
	}
	fmt.Println()
	return nil
}
