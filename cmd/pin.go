package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/chinmay1088/dhub/content"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var pinCmd = &cobra.Command{
	Use:   "pin <file>",
	Short: "Pin module content to IPFS",
	Long: `Add a file to the configured IPFS node, pinned, and print the URL to
pass to 'dhub create'.

Examples:
  dhub pin ./weather.tar.gz
  dhub pin cat QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG > weather.tar.gz`,
	Args: cobra.ExactArgs(1),
	RunE: runPin,
}

var pinCatCmd = &cobra.Command{
	Use:   "cat <cid>",
	Short: "Write pinned content to stdout",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := content.NewPinner(cfg.IPFSURL, logger).Fetch(args[0])
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	},
}

func init() {
	pinCmd.AddCommand(pinCatCmd)
}

func runPin(cmd *cobra.Command, args []string) error {
	pinner := content.NewPinner(cfg.IPFSURL, logger)

	var bar *progressbar.ProgressBar
	cid, err := pinner.PinFile(args[0], func(r io.Reader, size int64) io.Reader {
		if !tty() {
			return r
		}
		bar = progressbar.DefaultBytes(size, "uploading")
		pr := progressbar.NewReader(r, bar)
		return &pr
	})
	if bar != nil {
		_ = bar.Finish()
		fmt.Println()
	}
	if err != nil {
		return err
	}

	url := content.IPFSURL(cid)
	fmt.Println("📌 Pinned to IPFS")
	fmt.Printf("   CID: %s\n", color.GreenString(cid))
	fmt.Printf("   URL: %s\n", url)
	fmt.Println()
	fmt.Printf("💡 Create a module from it with 'dhub create %s'\n", url)
	return nil
}
