package security

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
)

// passwordBytes is the amount of entropy behind each generated password
const passwordBytes = 32

// passwordReplacer swaps characters the installer inventory and shell
// quoting cannot carry
var passwordReplacer = strings.NewReplacer("+", "-", "/", "_")

// GeneratePassword returns a new random password. The result is base64 of
// crypto/rand output with padding dropped and "+" and "/" replaced by "-"
// and "_".
func GeneratePassword() (string, error) {
	return generatePassword(rand.Reader)
}

func generatePassword(r io.Reader) (string, error) {
	buf := make([]byte, passwordBytes)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return passwordReplacer.Replace(base64.RawStdEncoding.EncodeToString(buf)), nil
}

// GenerateSecretKey returns a new platform secret key: the hex form of a
// random (version 4) UUID.
func GenerateSecretKey() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate secret key: %w", err)
	}
	return hex.EncodeToString(id[:]), nil
}
