// Command hash-password generates the bcrypt hash expected in
// ADMIN_PASSWORD_HASH. Run it once when provisioning the operator account.
package main

import (
	"flag"
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
)

const (
	// MinPasswordLength is the minimum password length requirement
	MinPasswordLength = 8
	// BcryptCost is the cost factor for bcrypt hashing (10 = ~100ms)
	BcryptCost = 10
)

func main() {
	password := flag.String("password", "", "Password to hash (required, min 8 chars)")
	flag.Parse()

	if len(*password) < MinPasswordLength {
		fmt.Fprintf(os.Stderr, "password must be at least %d characters\n", MinPasswordLength)
		os.Exit(1)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), BcryptCost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to hash password: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("ADMIN_PASSWORD_HASH=%s\n", hash)
}
