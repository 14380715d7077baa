package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/ance-ai/metered-gateway/internal/auth"
)

// keygen emits the secrets config.yaml needs: a random token-signing secret
// and, when an admin key is supplied, its SHA-256 hash.
func main() {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		fmt.Fprintf(os.Stderr, "failed to generate secret: %v\n", err)
		os.Exit(1)
	}
	secret := hex.EncodeToString(buf)

	fmt.Println("Add this to your config.yaml:")
	fmt.Printf("auth:\n  secret: %q\n", secret)

	if len(os.Args) > 1 {
		adminKey := os.Args[1]
		fmt.Printf("admin:\n  key_hash: %q\n", auth.HashKey(adminKey))
		fmt.Printf("\nPresent the admin key via the X-Admin-Key header.\n")
	} else {
		fmt.Println("\nRun with an admin key argument to also generate admin.key_hash.")
	}
}
