// Copyright (c) 2026 Wafya. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

// backupCodeAlphabet omits characters that are easy to misread (0/O, 1/I/L).
const backupCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// BackupCodeLength is the number of characters in a recovery code.
const BackupCodeLength = 10

// # Opaque Tokens

// GenerateSecureToken returns a URL-safe random token built from size random bytes.
func GenerateSecureToken(size int) (string, error) {
	buffer := make([]byte, size)
	if _, err := rand.Read(buffer); err != nil {
		return "", fmt.Errorf("sec: failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buffer), nil
}

// HashToken returns the hex SHA-256 digest of token.
//
// Reset tokens, verification tokens and backup codes are stored only in this form.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// # Backup Codes

// GenerateBackupCodes returns n independent random recovery codes.
func GenerateBackupCodes(n int) ([]string, error) {
	codes := make([]string, 0, n)
	alphabetSize := big.NewInt(int64(len(backupCodeAlphabet)))

	for range n {
		var builder strings.Builder
		builder.Grow(BackupCodeLength)

		for range BackupCodeLength {
			index, err := rand.Int(rand.Reader, alphabetSize)
			if err != nil {
				return nil, fmt.Errorf("sec: failed to generate backup code: %w", err)
			}
			builder.WriteByte(backupCodeAlphabet[index.Int64()])
		}

		codes = append(codes, builder.String())
	}

	return codes, nil
}

// NormalizeBackupCode canonicalizes user input before hashing (case, dashes, spaces).
func NormalizeBackupCode(code string) string {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	normalized = strings.ReplaceAll(normalized, "-", "")
	return strings.ReplaceAll(normalized, " ", "")
}

// HashBackupCode is the stored form of a recovery code.
func HashBackupCode(code string) string {
	return HashToken(NormalizeBackupCode(code))
}
