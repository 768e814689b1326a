// Package qr derives verification tokens from registrant identities and
// renders their visual encoding. Encoding is deterministic: the same content
// always produces the same bytes, so repairing a lost image never changes
// what a printed badge scans as.
package qr

import (
	"os"
	"path/filepath"
	"strings"

	qrcode "github.com/skip2/go-qrcode"

	id "gatepass/pkg/domain"
)

// TokenPrefix is the literal marker embedded in every issued QR payload.
const TokenPrefix = "USER_ID:"

// imageSize is fixed so regenerated encodings stay byte-for-byte identical.
const imageSize = 256

// TokenFor derives the verification token for a registrant identity.
// It is a 1:1 function of the ID and is never minted twice for one identity.
func TokenFor(registrantID id.RegistrantID) string {
	return TokenPrefix + registrantID.String()
}

// Normalize strips the token prefix and surrounding whitespace from a
// presented payload. Raw legacy IDs pass through unchanged.
func Normalize(raw string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), TokenPrefix))
}

// Encode renders content as PNG bytes.
func Encode(content string) ([]byte, error) {
	return qrcode.Encode(content, qrcode.Medium, imageSize)
}

// ImageFileName returns the stable artifact name for a registrant's QR image.
func ImageFileName(registrantID id.RegistrantID) string {
	return registrantID.String() + "-qrcode.png"
}

// WriteImage encodes content and writes it under dir, creating dir as needed.
// Returns the full path of the written file.
func WriteImage(dir, content string, registrantID id.RegistrantID) (string, error) {
	png, err := Encode(content)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, ImageFileName(registrantID))
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
