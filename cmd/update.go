package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/mod/semver"
)

const (
	modulePath  = "github.com/chinmay1088/dhub"
	releasesURL = "https://api.github.com/repos/chinmay1088/dhub/releases/latest"
)

// GitHubRelease represents a GitHub release
type GitHubRelease struct {
	TagName     string `json:"tag_name"`
	Name        string `json:"name"`
	Body        string `json:"body"`
	PublishedAt string `json:"published_at"`
}

var updateCheckOnly bool

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update dhub to the latest release",
	Long: `Check GitHub for the latest dhub release and install it with 'go install'.

Examples:
  dhub update           # Check and install the latest version
  dhub update --check   # Only check for updates, don't install`,
	Args: cobra.NoArgs,
	RunE: runUpdate,
}

func init() {
	updateCmd.Flags().BoolVar(&updateCheckOnly, "check", false, "only check for updates, don't install")
}

func runUpdate(cmd *cobra.Command, args []string) error {
	fmt.Println("🔄 Checking for dhub updates...")
	fmt.Printf("📦 Current version: %s\n", color.CyanString("v"+version))
	fmt.Println()

	ctx, cancel := signalContext()
	defer cancel()

	latest, err := getLatestRelease(ctx, http.DefaultClient, releasesURL)
	if err != nil {
		return fmt.Errorf("failed to check for updates: %w", err)
	}

	current := "v" + version
	if !isNewerVersion(latest.TagName, current) {
		fmt.Printf("✅ You're running the latest version (%s)\n", color.GreenString(current))
		return nil
	}

	fmt.Printf("🚀 New version available: %s\n", color.GreenString(latest.TagName))
	fmt.Printf("📅 Released: %s\n", formatReleaseDate(latest.PublishedAt))
	if latest.Body != "" {
		fmt.Println("\n📝 Release Notes:")
		fmt.Println(latest.Body)
	}
	fmt.Println()

	if updateCheckOnly {
		fmt.Printf("💡 Run '%s' to install the update\n", color.YellowString("dhub update"))
		return nil
	}
	if !confirm(fmt.Sprintf("🔧 Install %s?", latest.TagName)) {
		fmt.Println("❌ Update cancelled")
		return nil
	}
	return installRelease(ctx, latest.TagName)
}

func getLatestRelease(ctx context.Context, client *http.Client, url string) (*GitHubRelease, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GitHub API returned status %d", resp.StatusCode)
	}

	var release GitHubRelease
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, err
	}
	if !semver.IsValid(release.TagName) {
		return nil, fmt.Errorf("release tag %q is not a semantic version", release.TagName)
	}
	return &release, nil
}

// isNewerVersion reports whether latest is a higher semantic version than
// current. Invalid versions are never newer.
func isNewerVersion(latest, current string) bool {
	if !strings.HasPrefix(latest, "v") {
		latest = "v" + latest
	}
	if !strings.HasPrefix(current, "v") {
		current = "v" + current
	}
	if !semver.IsValid(latest) {
		return false
	}
	return semver.Compare(latest, current) > 0
}

func formatReleaseDate(dateStr string) string {
	t, err := time.Parse(time.RFC3339, dateStr)
	if err != nil {
		return dateStr
	}
	return t.Format("January 2, 2006")
}

func installRelease(ctx context.Context, tag string) error {
	if _, err := exec.LookPath("go"); err != nil {
		return fmt.Errorf("go compiler not found. Please install Go from https://golang.org/dl/")
	}

	fmt.Printf("⬇️  Installing %s@%s...\n", modulePath, tag)
	install := exec.CommandContext(ctx, "go", "install", modulePath+"@"+tag)
	install.Stdout = os.Stdout
	install.Stderr = os.Stderr
	if err := install.Run(); err != nil {
		return fmt.Errorf("failed to install %s: %w", tag, err)
	}
	fmt.Printf("✅ Updated to %s\n", color.GreenString(tag))
	return nil
}
