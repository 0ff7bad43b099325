package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/troikatech/call-router/pkg/auth"
)

// Prints a bcrypt hash for ADMIN_PASSWORD_HASH. The password is read from
// stdin unless -password is given.
func main() {
	var password string
	flag.StringVar(&password, "password", "", "password to hash (default: read a line from stdin)")
	flag.Parse()

	if password == "" {
		fmt.Fprint(os.Stderr, "Password: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			log.Fatalf("Failed to read password: %v", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}
	if len(password) < 8 {
		log.Fatal("Password must be at least 8 characters")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}
	if err := auth.VerifyPassword(hash, password); err != nil {
		log.Fatalf("Hash does not verify: %v", err)
	}

	// single quotes keep godotenv from expanding the $ segments
	fmt.Printf("ADMIN_PASSWORD_HASH='%s'\n", hash)
}
