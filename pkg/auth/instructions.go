package auth

import (
	"fmt"
	"strings"
)

// ShowCredentialSetupGuide displays step-by-step instructions for wiring
// blog credentials into the tool
func ShowCredentialSetupGuide() {
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("🔐 BLOG CREDENTIAL SETUP GUIDE")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()

	fmt.Println("This tool signs in to your blog's wp-admin when the REST API is not")
	fmt.Println("reachable, so it needs an account that can see the Posts screen.")
	fmt.Println()

	fmt.Println("📍 STEP 1: Find your login URL")
	fmt.Println("   - It is usually https://<your-blog>/wp-login.php")
	fmt.Println("   - Open it in a browser and confirm the username/password form loads")
	fmt.Println()

	fmt.Println("👤 STEP 2: Pick an account")
	fmt.Println("   - Any role that can open Posts > All Posts works (Author or above)")
	fmt.Println("   - Prefer a dedicated account over your admin account")
	fmt.Println()

	fmt.Println("💾 STEP 3: Store the credentials")
	fmt.Println("   wpfetch auth login --username <user> --login-url https://<your-blog>/wp-login.php")
	fmt.Println("   The password is prompted, never passed on the command line.")
	fmt.Println()

	fmt.Println("   Alternatively, set environment variables:")
	fmt.Println("   BLOG_USERNAME, BLOG_PASSWORD, BLOG_URL_LOGIN")
	fmt.Println()

	fmt.Println("⚠️  SECURITY:")
	fmt.Println("   • Credentials land in your system keychain when one is available,")
	fmt.Println("     otherwise in an encrypted file under your config directory")
	fmt.Println("   • Set WPFETCH_PASSPHRASE to control the encryption passphrase")
	fmt.Println()
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()
}

// ShowQuickSetupGuide shows a condensed version for experienced users
func ShowQuickSetupGuide() {
	fmt.Println("\n🔐 Quick setup: wpfetch auth login --username <user> --login-url https://<blog>/wp-login.php")
	fmt.Println("   Or export BLOG_USERNAME, BLOG_PASSWORD and BLOG_URL_LOGIN")
}
