package auth

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCredentialManager(t *testing.T) {
	manager, mockStore := NewMockManager()

	account := &Account{
		Username:     "editor",
		Password:     "super_secret_password",
		LoginURL:     "https://blog.example/wp-login.php",
		LastModified: time.Now(),
	}

	err := manager.Store(account)
	if err != nil {
		t.Errorf("Failed to store account: %v", err)
	}

	retrieved, err := manager.Retrieve("editor")
	if err != nil {
		t.Errorf("Failed to retrieve account: %v", err)
	}

	if retrieved.Username != account.Username {
		t.Errorf("Username mismatch: got %s, want %s", retrieved.Username, account.Username)
	}
	if retrieved.Password != account.Password {
		t.Errorf("Password mismatch: got %s, want %s", retrieved.Password, account.Password)
	}
	if retrieved.LoginURL != account.LoginURL {
		t.Errorf("LoginURL mismatch: got %s, want %s", retrieved.LoginURL, account.LoginURL)
	}

	accounts, err := manager.List()
	if err != nil {
		t.Errorf("Failed to list accounts: %v", err)
	}
	if len(accounts) == 0 {
		t.Error("Expected at least one account in list")
	}

	sanitized := SanitizeAccount(account)
	if sanitized.Password == account.Password {
		t.Error("Password should be masked")
	}
	if sanitized.Username != account.Username {
		t.Error("Username should not be masked")
	}
	if sanitized.LoginURL != account.LoginURL {
		t.Error("LoginURL should not be masked")
	}

	err = manager.Delete("editor")
	if err != nil {
		t.Errorf("Failed to delete account: %v", err)
	}

	_, err = manager.Retrieve("editor")
	if err == nil {
		t.Error("Expected error retrieving deleted account")
	}

	if mockStore.Count() != 0 {
		t.Errorf("Expected 0 accounts after deletion, got %d", mockStore.Count())
	}
}

func TestManagerValidatesRequiredFields(t *testing.T) {
	manager, _ := NewMockManager()

	tests := []struct {
		name    string
		account *Account
	}{
		{"missing username", &Account{Password: "pw", LoginURL: "https://blog.example/wp-login.php"}},
		{"missing password", &Account{Username: "editor", LoginURL: "https://blog.example/wp-login.php"}},
		{"missing login URL", &Account{Username: "editor", Password: "pw"}},
	}

	for _, tt := range tests {
		if err := manager.Store(tt.account); err == nil {
			t.Errorf("%s: expected validation error", tt.name)
		}
	}
}

func TestAccountCredentials(t *testing.T) {
	account := &Account{
		Username: "editor",
		Password: "pw",
		LoginURL: "https://blog.example/wp-login.php",
	}

	creds, err := account.Credentials()
	if err != nil {
		t.Fatalf("Failed to convert account: %v", err)
	}
	if creds.LoginURL.Host != "blog.example" {
		t.Errorf("LoginURL host mismatch: got %s", creds.LoginURL.Host)
	}

	account.LoginURL = "ftp://blog.example/login"
	if _, err := account.Credentials(); err == nil {
		t.Error("Expected error for non-HTTP login URL")
	}
}

func TestEncryptedFileStore(t *testing.T) {
	tempFile := filepath.Join(t.TempDir(), "test_creds.enc")

	os.Setenv("WPFETCH_PASSPHRASE", "test_passphrase_123")
	defer os.Unsetenv("WPFETCH_PASSPHRASE")

	store, err := NewEncryptedFileStore(tempFile)
	if err != nil {
		t.Fatalf("Failed to create encrypted store: %v", err)
	}

	account := &Account{
		Username: "encrypted_user",
		Password: "encrypted_password",
		LoginURL: "https://blog.example/wp-login.php",
	}

	err = store.Store(account)
	if err != nil {
		t.Errorf("Failed to store in encrypted file: %v", err)
	}

	retrieved, err := store.Retrieve("encrypted_user")
	if err != nil {
		t.Errorf("Failed to retrieve from encrypted file: %v", err)
	}

	if retrieved.Password != account.Password {
		t.Errorf("Password mismatch after encryption/decryption")
	}

	fileContent, err := os.ReadFile(tempFile)
	if err != nil {
		t.Fatal(err)
	}

	if bytes.Contains(fileContent, []byte("encrypted_password")) {
		t.Error("File contains plaintext password")
	}
}

func TestEnvironmentStore(t *testing.T) {
	os.Setenv("BLOG_USERNAME", "env_editor")
	os.Setenv("BLOG_PASSWORD", "env_password")
	os.Setenv("BLOG_URL_LOGIN", "https://blog.example/wp-login.php")
	defer os.Unsetenv("BLOG_USERNAME")
	defer os.Unsetenv("BLOG_PASSWORD")
	defer os.Unsetenv("BLOG_URL_LOGIN")

	store := NewEnvironmentStore()

	account, err := store.Retrieve("")
	if err != nil {
		t.Errorf("Failed to retrieve from environment: %v", err)
	}

	if account.Username != "env_editor" {
		t.Errorf("Username mismatch: got %s, want env_editor", account.Username)
	}
	if account.Password != "env_password" {
		t.Errorf("Password mismatch: got %s, want env_password", account.Password)
	}

	// Asking for a different user must not hand back these credentials
	if _, err := store.Retrieve("someone_else"); err == nil {
		t.Error("Expected error retrieving mismatched username")
	}

	err = store.Store(&Account{})
	if err != ErrStoreUnavailable {
		t.Error("Expected ErrStoreUnavailable for environment store")
	}
}

func TestRealManagerWithEncryptedStore(t *testing.T) {
	tempDir := t.TempDir()

	os.Setenv("WPFETCH_PASSPHRASE", "test_passphrase_real_manager")
	defer os.Unsetenv("WPFETCH_PASSPHRASE")

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(tempDir, "credentials.enc"))
	if err != nil {
		t.Fatalf("Failed to create encrypted store: %v", err)
	}

	manager := NewMockManagerWithStores(encryptedStore)

	account := &Account{
		Username:     "realuser",
		Password:     "real_password",
		LoginURL:     "https://blog.example/wp-login.php",
		LastModified: time.Now(),
	}

	err = manager.Store(account)
	if err != nil {
		t.Fatalf("Failed to store account: %v", err)
	}

	accounts, err := manager.List()
	if err != nil {
		t.Fatalf("Failed to list accounts: %v", err)
	}
	if len(accounts) != 1 {
		t.Errorf("Expected 1 account in list, got %d", len(accounts))
	}

	retrieved, err := manager.Retrieve("realuser")
	if err != nil {
		t.Fatalf("Failed to retrieve account: %v", err)
	}

	if retrieved.Username != account.Username {
		t.Errorf("Username mismatch: got %s, want %s", retrieved.Username, account.Username)
	}
	if retrieved.Password != account.Password {
		t.Errorf("Password mismatch: got %s, want %s", retrieved.Password, account.Password)
	}
}

func TestMockStore(t *testing.T) {
	store := NewMockStore()

	accounts, err := store.List()
	if err != nil {
		t.Errorf("Failed to list empty store: %v", err)
	}
	if len(accounts) != 0 {
		t.Errorf("Expected 0 accounts, got %d", len(accounts))
	}

	account := &Account{
		Username: "mockuser",
		Password: "mock_password",
		LoginURL: "https://blog.example/wp-login.php",
	}

	err = store.Store(account)
	if err != nil {
		t.Errorf("Failed to store account: %v", err)
	}

	if store.Count() != 1 {
		t.Errorf("Expected 1 account, got %d", store.Count())
	}

	if !store.Exists("mockuser") {
		t.Error("Account should exist")
	}

	store.ListError = fmt.Errorf("injected error")
	_, err = store.List()
	if err == nil || err.Error() != "injected error" {
		t.Error("Expected injected error")
	}
}
