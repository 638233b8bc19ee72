package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if !config.Browser.Headless {
		t.Error("Expected headless browsing by default")
	}

	if config.Browser.NavigationTimeout != 10*time.Second {
		t.Errorf("Expected default navigation timeout of 10s, got %v", config.Browser.NavigationTimeout)
	}

	if config.Browser.PostLimit != 20 {
		t.Errorf("Expected default post limit of 20, got %d", config.Browser.PostLimit)
	}

	if config.API.PerPage != 50 {
		t.Errorf("Expected default per page of 50, got %d", config.API.PerPage)
	}
}

func TestLoadFromEnv(t *testing.T) {
	os.Setenv("BLOG_USERNAME", "writer")
	os.Setenv("BLOG_PASSWORD", "hunter2")
	os.Setenv("BLOG_URL_LOGIN", "https://blog.example/wp-login.php")
	os.Setenv("BLOG_AUTHOR_USERNAME", "Jane Doe")
	os.Setenv("WPFETCH_POST_LIMIT", "5")
	os.Setenv("WPFETCH_LOG_LEVEL", "debug")

	defer func() {
		os.Unsetenv("BLOG_USERNAME")
		os.Unsetenv("BLOG_PASSWORD")
		os.Unsetenv("BLOG_URL_LOGIN")
		os.Unsetenv("BLOG_AUTHOR_USERNAME")
		os.Unsetenv("WPFETCH_POST_LIMIT")
		os.Unsetenv("WPFETCH_LOG_LEVEL")
	}()

	config := DefaultConfig()
	err := config.LoadFromEnv()
	if err != nil {
		t.Fatalf("Failed to load from environment: %v", err)
	}

	if config.Blog.Username != "writer" {
		t.Errorf("Expected username to be writer, got %s", config.Blog.Username)
	}

	if config.Blog.Password != "hunter2" {
		t.Errorf("Expected password to be loaded from environment")
	}

	if config.Blog.LoginURL != "https://blog.example/wp-login.php" {
		t.Errorf("Expected login URL to be loaded, got %s", config.Blog.LoginURL)
	}

	if config.Blog.Author != "Jane Doe" {
		t.Errorf("Expected author to be Jane Doe, got %s", config.Blog.Author)
	}

	if config.Browser.PostLimit != 5 {
		t.Errorf("Expected post limit to be 5, got %d", config.Browser.PostLimit)
	}

	if config.Logging.Level != "debug" {
		t.Errorf("Expected log level to be debug, got %s", config.Logging.Level)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wpfetch.yaml")

	content := `
blog:
  login_url: https://blog.example/wp-login.php
  username: writer
  password: hunter2
browser:
  headless: false
  post_limit: 10
logging:
  level: warn
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	config := DefaultConfig()
	if err := config.LoadFromFile(path); err != nil {
		t.Fatalf("Failed to load config file: %v", err)
	}

	if config.Blog.Username != "writer" {
		t.Errorf("Expected username writer, got %s", config.Blog.Username)
	}

	if config.Browser.Headless {
		t.Error("Expected headless to be disabled by the config file")
	}

	if config.Browser.PostLimit != 10 {
		t.Errorf("Expected post limit 10, got %d", config.Browser.PostLimit)
	}

	if config.Logging.Level != "warn" {
		t.Errorf("Expected log level warn, got %s", config.Logging.Level)
	}

	// Values the file does not mention keep their defaults
	if config.Browser.NavigationTimeout != 10*time.Second {
		t.Errorf("Expected default navigation timeout, got %v", config.Browser.NavigationTimeout)
	}
}

func TestValidate(t *testing.T) {
	config := DefaultConfig()
	config.Blog.LoginURL = "https://blog.example/wp-login.php"
	config.Blog.Username = "writer"
	config.Blog.Password = "hunter2"

	if err := config.Validate(); err != nil {
		t.Errorf("Expected valid config, got %v", err)
	}

	if err := config.ValidateCredentials(); err != nil {
		t.Errorf("Expected valid credentials, got %v", err)
	}

	config.Blog.Password = ""
	if err := config.Validate(); err != nil {
		t.Errorf("Settings validation should not require credentials, got %v", err)
	}
	if err := config.ValidateCredentials(); err == nil {
		t.Error("Expected credential validation error for missing password")
	}
}

func TestValidateRejectsBadLoginURL(t *testing.T) {
	config := DefaultConfig()
	config.Blog.Username = "writer"
	config.Blog.Password = "hunter2"
	config.Blog.LoginURL = "ftp://blog.example/wp-login.php"

	if err := config.Validate(); err == nil {
		t.Error("Expected validation error for non-http login URL")
	}
}

func TestAuthorOrDefault(t *testing.T) {
	config := DefaultConfig()
	config.Blog.Username = "writer"

	if got := config.AuthorOrDefault(); got != "writer" {
		t.Errorf("Expected empty author to fall back to username, got %s", got)
	}

	config.Blog.Author = "Jane Doe"
	if got := config.AuthorOrDefault(); got != "Jane Doe" {
		t.Errorf("Expected configured author, got %s", got)
	}
}

func TestMergeCommandLineFlags(t *testing.T) {
	config := DefaultConfig()
	config.Blog.Username = "writer"

	config.MergeCommandLineFlags(map[string]interface{}{
		"author":     "Jane Doe",
		"headless":   false,
		"post-limit": 7,
	})

	if config.Blog.Author != "Jane Doe" {
		t.Errorf("Expected author flag to be merged, got %s", config.Blog.Author)
	}

	if config.Browser.Headless {
		t.Error("Expected headless flag to be merged")
	}

	if config.Browser.PostLimit != 7 {
		t.Errorf("Expected post limit flag to be merged, got %d", config.Browser.PostLimit)
	}
}
