// Package auth loads the server's credential file and answers
// authentication challenges against it.
//
// The file is raw bytes, exactly SaltLength + 2*HashLength long:
// [salt][usernameHash][passwordHash]. Both hashes are PBKDF2 derivations
// over the shared salt.
package auth

import (
	"crypto/rand"
	"crypto/sha1"
	"crypto/subtle"
	"errors"
	"fmt"
	"os"

	"golang.org/x/crypto/pbkdf2"

	"beacon/internal/constants"
)

// ErrInvalidAuthFile is returned when the credential file does not have the
// expected size.
var ErrInvalidAuthFile = errors.New("invalid auth file")

// Credentials holds the loaded salt and derived hashes. Immutable after Load.
type Credentials struct {
	salt         []byte
	usernameHash []byte
	passwordHash []byte
}

// deriveKey runs the fixed PBKDF2 derivation used for both the username and
// password hashes. SHA-1 keeps existing credential files valid.
func deriveKey(input string, salt []byte) []byte {
	return pbkdf2.Key([]byte(input), salt, constants.HashIterations, constants.HashLength, sha1.New)
}

// Load reads the credential file at path. A missing or short file is fatal
// for the caller: the server must not start without valid credentials.
func Load(path string) (*Credentials, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read auth file: %w", err)
	}
	if len(buf) != constants.AuthFileSize {
		return nil, ErrInvalidAuthFile
	}
	return &Credentials{
		salt:         buf[:constants.SaltLength],
		usernameHash: buf[constants.SaltLength : constants.SaltLength+constants.HashLength],
		passwordHash: buf[constants.SaltLength+constants.HashLength:],
	}, nil
}

// Verify reports whether username and password both match the stored hashes.
// Both derivations are always computed and compared in constant time, and the
// result never distinguishes a wrong username from a wrong password.
func (c *Credentials) Verify(username, password string) bool {
	userOK := subtle.ConstantTimeCompare(deriveKey(username, c.salt), c.usernameHash)
	passOK := subtle.ConstantTimeCompare(deriveKey(password, c.salt), c.passwordHash)
	return userOK&passOK == 1
}

// CreateFile writes a new credential file for the given username and
// password, generating a fresh random salt. Used by the authgen tool.
func CreateFile(path, username, password string) error {
	salt := make([]byte, constants.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}

	buf := make([]byte, 0, constants.AuthFileSize)
	buf = append(buf, salt...)
	buf = append(buf, deriveKey(username, salt)...)
	buf = append(buf, deriveKey(password, salt)...)

	if err := os.WriteFile(path, buf, 0600); err != nil {
		return fmt.Errorf("failed to write auth file: %w", err)
	}
	return nil
}
