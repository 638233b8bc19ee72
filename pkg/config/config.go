package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the blog post retriever
type Config struct {
	// Blog credentials and target author
	Blog BlogConfig `yaml:"blog" json:"blog"`

	// Browser strategy settings
	Browser BrowserConfig `yaml:"browser" json:"browser"`

	// REST API strategy settings
	API APIConfig `yaml:"api" json:"api"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// BlogConfig holds the WordPress credentials and the author whose posts are retrieved
type BlogConfig struct {
	// LoginURL is the full URL of the wp-login.php page
	LoginURL string `yaml:"login_url" json:"login_url"`
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
	// Author is the display name of the writer whose posts are retrieved.
	// Empty means "use the login username".
	Author string `yaml:"author" json:"author"`
}

// BrowserConfig holds browser automation settings
type BrowserConfig struct {
	Headless          bool          `yaml:"headless" json:"headless"`
	NavigationTimeout time.Duration `yaml:"navigation_timeout" json:"navigation_timeout"`
	// SettleDelay is how long to pause after filling the login form and after
	// reaching the posts list, so the admin SPA can settle
	SettleDelay    time.Duration `yaml:"settle_delay" json:"settle_delay"`
	ViewportWidth  int           `yaml:"viewport_width" json:"viewport_width"`
	ViewportHeight int           `yaml:"viewport_height" json:"viewport_height"`
	// PostLimit caps how many listed posts are scraped
	PostLimit int `yaml:"post_limit" json:"post_limit"`
}

// APIConfig holds REST API client settings
type APIConfig struct {
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
	MaxRetries     int           `yaml:"max_retries" json:"max_retries"`
	// PerPage caps how many posts one API request asks for (hard limit of 100
	// on the WordPress side)
	PerPage int `yaml:"per_page" json:"per_page"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Browser: BrowserConfig{
			Headless:          true,
			NavigationTimeout: 10 * time.Second,
			SettleDelay:       time.Second,
			ViewportWidth:     1200,
			ViewportHeight:    768,
			PostLimit:         20,
		},
		API: APIConfig{
			RequestTimeout: 30 * time.Second,
			MaxRetries:     3,
			PerPage:        50,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	// Blog credentials keep the long-standing BLOG_* names
	if username := os.Getenv("BLOG_USERNAME"); username != "" {
		c.Blog.Username = username
	}
	if password := os.Getenv("BLOG_PASSWORD"); password != "" {
		c.Blog.Password = password
	}
	if loginURL := os.Getenv("BLOG_URL_LOGIN"); loginURL != "" {
		c.Blog.LoginURL = loginURL
	}
	if author := os.Getenv("BLOG_AUTHOR_USERNAME"); author != "" {
		c.Blog.Author = author
	}

	if headless := os.Getenv("WPFETCH_HEADLESS"); headless != "" {
		c.Browser.Headless = strings.ToLower(headless) != "false"
	}
	if timeout := os.Getenv("WPFETCH_NAVIGATION_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			c.Browser.NavigationTimeout = d
		}
	}
	if limit := os.Getenv("WPFETCH_POST_LIMIT"); limit != "" {
		var val int
		fmt.Sscanf(limit, "%d", &val)
		if val > 0 {
			c.Browser.PostLimit = val
		}
	}
	if logLevel := os.Getenv("WPFETCH_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		".wpfetch.yaml",
		".wpfetch.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "wpfetch", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "wpfetch", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".wpfetch.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// LoginURL parses the configured login URL
func (c *Config) LoginURL() (*url.URL, error) {
	u, err := url.Parse(c.Blog.LoginURL)
	if err != nil {
		return nil, fmt.Errorf("invalid login URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("login URL must be http or https, got %q", c.Blog.LoginURL)
	}
	return u, nil
}

// AuthorOrDefault returns the configured author, falling back to the login username
func (c *Config) AuthorOrDefault() string {
	if c.Blog.Author != "" {
		return c.Blog.Author
	}
	return c.Blog.Username
}

// ValidateCredentials checks that the blog credentials are usable. This is
// separate from Validate because credentials may arrive later, from the
// credential manager rather than config sources.
func (c *Config) ValidateCredentials() error {
	var errs []error

	if c.Blog.LoginURL == "" {
		errs = append(errs, errors.New("blog login URL is required"))
	} else if _, err := c.LoginURL(); err != nil {
		errs = append(errs, err)
	}
	if c.Blog.Username == "" {
		errs = append(errs, errors.New("blog username is required"))
	}
	if c.Blog.Password == "" {
		errs = append(errs, errors.New("blog password is required"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks the non-credential settings
func (c *Config) Validate() error {
	var errs []error

	if c.Blog.LoginURL != "" {
		if _, err := c.LoginURL(); err != nil {
			errs = append(errs, err)
		}
	}

	if c.Browser.NavigationTimeout <= 0 {
		errs = append(errs, errors.New("navigation timeout must be positive"))
	}
	if c.Browser.PostLimit <= 0 {
		errs = append(errs, errors.New("post limit must be positive"))
	}
	if c.Browser.ViewportWidth <= 0 || c.Browser.ViewportHeight <= 0 {
		errs = append(errs, errors.New("viewport dimensions must be positive"))
	}

	if c.API.RequestTimeout <= 0 {
		errs = append(errs, errors.New("API request timeout must be positive"))
	}
	if c.API.MaxRetries < 0 {
		errs = append(errs, errors.New("API max retries cannot be negative"))
	}
	if c.API.PerPage <= 0 || c.API.PerPage > 100 {
		errs = append(errs, errors.New("API per page must be between 1 and 100"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if loginURL, ok := flags["login-url"].(string); ok && loginURL != "" {
		c.Blog.LoginURL = loginURL
	}
	if username, ok := flags["username"].(string); ok && username != "" {
		c.Blog.Username = username
	}
	if author, ok := flags["author"].(string); ok && author != "" {
		c.Blog.Author = author
	}
	if headless, ok := flags["headless"].(bool); ok {
		c.Browser.Headless = headless
	}
	if limit, ok := flags["post-limit"].(int); ok && limit > 0 {
		c.Browser.PostLimit = limit
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".wpfetch.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
