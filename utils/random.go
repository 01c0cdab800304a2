package utils

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

// claimCodeBytes gives 16 hex characters per ticket claim code.
const claimCodeBytes = 8

// GenerateClaimCode returns the random code handed to a buyer for each
// minted ticket. Only its bcrypt hash is kept on the ledger.
func GenerateClaimCode() (string, error) {
	return GenerateCode(claimCodeBytes)
}

// GenerateCode returns n random bytes as an uppercase hex string.
func GenerateCode(n int) (string, error) {
	byt := make([]byte, n)

	if _, err := rand.Read(byt); err != nil {
		return "", err
	}

	return strings.ToUpper(hex.EncodeToString(byt)), nil
}
