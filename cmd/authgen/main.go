package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"regexp"
	"strings"
	"syscall"

	"golang.org/x/term"

	"beacon/internal/auth"
	"beacon/internal/constants"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z\s\-]+$`)

// seam for tests
var readPassword = func() (string, error) {
	b, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	return string(b), err
}

func main() {
	output := flag.String("o", constants.DefaultAuthFile, "path of the credential file to create")
	flag.Parse()

	reader := bufio.NewReader(os.Stdin)

	fmt.Print("Username: ")
	username, err := reader.ReadString('\n')
	if err != nil {
		log.Fatalf("Failed to read username: %v", err)
	}
	username = strings.TrimSpace(username)

	if !usernamePattern.MatchString(username) {
		log.Fatalf("Invalid username: only letters, spaces and hyphens are allowed")
	}

	fmt.Print("Password: ")
	password, err := readPassword()
	if err != nil {
		log.Fatalf("Failed to read password: %v", err)
	}
	if password == "" {
		log.Fatalf("Password must not be empty")
	}

	fmt.Print("Confirm password: ")
	confirm, err := readPassword()
	if err != nil {
		log.Fatalf("Failed to read password: %v", err)
	}
	if password != confirm {
		log.Fatalf("Passwords do not match")
	}

	if err := auth.CreateFile(*output, username, password); err != nil {
		log.Fatalf("Failed to write credential file: %v", err)
	}

	fmt.Printf("Credential file written to %s\n", *output)
}
