package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"wpfetch/pkg/config"
	"wpfetch/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage wpfetch configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file will be created in the current directory as 'wpfetch.yaml'
unless a different path is specified with the --config flag.`,
	Run: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the current configuration merged from all sources.

The blog password is masked for security.`,
	Run: runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate a configuration file for syntax errors and invalid values.

This command checks:
  - YAML syntax
  - Value types and ranges
  - Whether credentials are configured`,
	Run: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) {
	configPath := configFile
	if configPath == "" {
		configPath = "wpfetch.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		ui.PrintError("Configuration file already exists", configPath)
		fmt.Println("\nTo overwrite, first remove the existing file:")
		fmt.Printf("  rm %s\n", configPath)
		os.Exit(1)
	}

	exampleConfig := `# wpfetch configuration file
#
# Credentials can also come from environment variables:
#   BLOG_USERNAME, BLOG_PASSWORD, BLOG_URL_LOGIN, BLOG_AUTHOR_USERNAME
# or from stored accounts ('wpfetch auth login').

# Blog credentials and target author
blog:
  # Full URL of the wp-login.php page (required)
  login_url: "https://your-blog.example/wp-login.php"

  # Blog account username (required)
  username: ""

  # Blog account password. Prefer 'wpfetch auth login' or the
  # BLOG_PASSWORD environment variable over storing it here.
  password: ""

  # Display name of the author whose posts are fetched.
  # Leave empty to use the login username.
  author: ""

# Browser fallback settings
browser:
  # Run the browser without a visible window
  headless: true

  # How long to wait for pages and selectors
  navigation_timeout: 10s

  # Pause after filling the login form, lets the admin pages settle
  settle_delay: 1s

  # Browser window size
  viewport_width: 1200
  viewport_height: 768

  # Maximum number of posts collected from the admin listing
  post_limit: 20

# REST API settings
api:
  # Timeout for a single API request
  request_timeout: 30s

  # Retry attempts for transient API failures
  max_retries: 3

  # Posts requested per API call (WordPress caps this at 100)
  per_page: 50

# Logging configuration
logging:
  # Log level: debug, info, warn, error
  level: "info"

  # Log file path (optional, empty logs to stderr only)
  file: ""
`

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		ui.PrintError("Failed to create configuration file", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Edit the configuration file and set your blog's login URL")
	fmt.Println("2. Store credentials with 'wpfetch auth login'")
	fmt.Println("3. Fetch posts with 'wpfetch fetch <author>'")
}

func runConfigShow(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	displayCfg := *cfg
	if displayCfg.Blog.Password != "" {
		if len(displayCfg.Blog.Password) > 8 {
			displayCfg.Blog.Password = displayCfg.Blog.Password[:4] + "..." + displayCfg.Blog.Password[len(displayCfg.Blog.Password)-4:]
		} else {
			displayCfg.Blog.Password = "***"
		}
	}

	data, err := yaml.Marshal(&displayCfg)
	if err != nil {
		ui.PrintError("Failed to format configuration", err.Error())
		os.Exit(1)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Println()
	fmt.Print(string(data))

	fmt.Println("\nConfiguration sources (in order of priority):")
	fmt.Println("1. Command line flags")
	fmt.Println("2. Environment variables (BLOG_*, WPFETCH_*)")
	if configFile != "" {
		fmt.Printf("3. Configuration file: %s\n", configFile)
	} else {
		fmt.Println("3. Configuration file: (not specified)")
	}
	fmt.Println("4. Default values")
}

func runConfigValidate(cmd *cobra.Command, args []string) {
	if configFile == "" {
		possiblePaths := []string{
			"wpfetch.yaml",
			"wpfetch.yml",
			".wpfetch.yaml",
			".wpfetch.yml",
			filepath.Join(os.Getenv("HOME"), ".wpfetch.yaml"),
			filepath.Join(os.Getenv("HOME"), ".config", "wpfetch", "config.yaml"),
		}

		for _, path := range possiblePaths {
			if _, err := os.Stat(path); err == nil {
				configFile = path
				break
			}
		}

		if configFile == "" {
			ui.PrintError("No configuration file found", "Specify a file with --config flag")
			os.Exit(1)
		}
	}

	ui.PrintInfo("Validating configuration", configFile)

	cfg, err := config.Load(configFile, nil)
	if err != nil {
		ui.PrintError("Configuration validation failed", err.Error())
		os.Exit(1)
	}

	warnings := []string{}
	errors := []string{}

	if err := cfg.ValidateCredentials(); err != nil {
		warnings = append(warnings, fmt.Sprintf("credentials not fully configured: %v", err))
	}

	if cfg.Logging.File != "" {
		dir := filepath.Dir(cfg.Logging.File)
		if err := os.MkdirAll(dir, 0755); err != nil {
			errors = append(errors, fmt.Sprintf("Cannot create log directory: %v", err))
		}
	}

	if len(errors) > 0 {
		ui.PrintError("Configuration has errors:", "")
		for _, err := range errors {
			fmt.Printf("  - %s\n", err)
		}
		os.Exit(1)
	}

	if len(warnings) > 0 {
		ui.PrintWarning("Configuration warnings:", "")
		for _, warn := range warnings {
			fmt.Printf("  - %s\n", warn)
		}
		fmt.Println()
	}

	ui.PrintSuccess("Configuration is valid")

	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  Login URL: %s\n", cfg.Blog.LoginURL)
	fmt.Printf("  Author: %s\n", cfg.AuthorOrDefault())
	fmt.Printf("  Headless browser: %t\n", cfg.Browser.Headless)
	fmt.Printf("  Post limit: %d\n", cfg.Browser.PostLimit)
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
}
