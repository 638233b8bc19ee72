package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"wpfetch/pkg/auth"
	"wpfetch/pkg/browser"
	"wpfetch/pkg/config"
	"wpfetch/pkg/logger"
	"wpfetch/pkg/retriever"
	"wpfetch/pkg/ui"
	"wpfetch/pkg/wordpress"
)

var (
	// Fetch command flags
	accountName  string
	loginURLFlag string
	usernameFlag string
	headless     bool
	postLimit    int
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch [author]",
	Short: "Fetch the latest posts written by an author",
	Long: `Fetch the latest posts written by the given author.

The author is matched against display names on the blog. When omitted, the
login username is used.

Credentials are resolved from, in order:
  - A stored account (use 'wpfetch auth login' to store one)
  - Environment variables (BLOG_USERNAME, BLOG_PASSWORD, BLOG_URL_LOGIN)
  - The configuration file

The REST API is tried first. If the blog does not expose it, a headless
browser signs in to wp-admin and reads the posts list instead. Results are
printed to stdout as JSON.`,
	Example: `  # Fetch posts by the signed-in account's author
  wpfetch fetch

  # Fetch posts by a specific author
  wpfetch fetch "Jane Doe"

  # Use a specific stored account and watch the browser work
  wpfetch fetch "Jane Doe" --account staging --headless=false

  # Point at a blog without any stored configuration
  wpfetch fetch --username editor --login-url https://blog.example/wp-login.php`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runFetch(cmd, args)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringVarP(&accountName, "account", "a", "", "use specific stored account")
	fetchCmd.Flags().StringVar(&loginURLFlag, "login-url", "", "wp-login.php URL of the blog")
	fetchCmd.Flags().StringVar(&usernameFlag, "username", "", "blog account username")
	fetchCmd.Flags().BoolVar(&headless, "headless", true, "run the fallback browser headless")
	fetchCmd.Flags().IntVar(&postLimit, "post-limit", 20, "maximum number of posts the browser path collects")
}

func runFetch(cmd *cobra.Command, args []string) {
	var author string
	if len(args) > 0 {
		author = strings.TrimSpace(args[0])
	}

	// Build flags map from command line
	flags := make(map[string]interface{})
	if loginURLFlag != "" {
		flags["login-url"] = loginURLFlag
	}
	if usernameFlag != "" {
		flags["username"] = usernameFlag
	}
	if author != "" {
		flags["author"] = author
	}
	if cmd.Flags().Changed("headless") {
		flags["headless"] = headless
	}
	if postLimit != 20 {
		flags["post-limit"] = postLimit
	}
	if logLevel != "info" {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	logger.Initialize(&cfg.Logging)
	log := logger.GetLogger()
	log.WithField("version", version).Info("wpfetch starting")

	creds := resolveCredentials(cfg, log)

	client := wordpress.NewClient(creds.Origin(), cfg.API.RequestTimeout, log)
	client.SetPerPage(cfg.API.PerPage)
	client.SetMaxRetries(cfg.API.MaxRetries)

	coordinator := browser.NewCoordinator(browser.NewChromeEngine(log), browser.Options{
		Headless:       cfg.Browser.Headless,
		ViewportWidth:  cfg.Browser.ViewportWidth,
		ViewportHeight: cfg.Browser.ViewportHeight,
		NavTimeout:     cfg.Browser.NavigationTimeout,
		SettleDelay:    cfg.Browser.SettleDelay,
		PostLimit:      cfg.Browser.PostLimit,
	}, log)

	r := retriever.New(client, coordinator, log)

	posts, err := r.Retrieve(context.Background(), creds, cfg.Blog.Author)
	if err != nil {
		log.WithError(err).Error("Fetch failed")
		ui.PrintError("Fetch failed", err.Error())
		os.Exit(1)
	}

	output, err := json.MarshalIndent(posts, "", "  ")
	if err != nil {
		ui.PrintError("Failed to encode posts", err.Error())
		os.Exit(1)
	}
	fmt.Println(string(output))

	log.WithField("posts", len(posts)).Info("Fetch completed")
}

// resolveCredentials merges stored accounts into the loaded configuration
// and returns validated credentials, exiting with guidance when none exist
func resolveCredentials(cfg *config.Config, log logger.Logger) wordpress.Credentials {
	if err := cfg.ValidateCredentials(); err == nil && accountName == "" {
		loginURL, _ := cfg.LoginURL()
		return wordpress.Credentials{
			Username: cfg.Blog.Username,
			Password: cfg.Blog.Password,
			LoginURL: loginURL,
		}
	}

	credManager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	var account *auth.Account
	if accountName != "" {
		account, err = credManager.Retrieve(accountName)
		if err != nil {
			ui.PrintError("Account not found", accountName)
			ui.PrintInfo("Available accounts", "Use 'wpfetch auth list' to see stored accounts")
			os.Exit(1)
		}
	} else {
		account, err = credManager.RetrieveDefault()
		if err != nil {
			log.Error("No credentials found")
			ui.PrintError("No blog credentials found", "")
			auth.ShowQuickSetupGuide()
			os.Exit(1)
		}
	}

	log.WithField("account", account.Username).Info("Using stored credentials")
	ui.PrintInfo("Using account", account.Username)

	creds, err := account.Credentials()
	if err != nil {
		ui.PrintError("Stored credentials are unusable", err.Error())
		os.Exit(1)
	}
	return creds
}

// Make fetch the default command when no subcommand is specified
func init() {
	origRunE := rootCmd.RunE
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		if origRunE != nil {
			return origRunE(cmd, args)
		}
		if len(args) > 0 && !isKnownCommand(args[0]) {
			// A bare argument is treated as an author name
			return fetchCmd.RunE(fetchCmd, args)
		}
		return cmd.Help()
	}

	rootCmd.Args = cobra.ArbitraryArgs
}

func isKnownCommand(arg string) bool {
	for _, cmd := range rootCmd.Commands() {
		if cmd.Name() == arg || cmd.HasAlias(arg) {
			return true
		}
	}
	return false
}
