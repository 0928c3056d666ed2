// Package totp wraps the time-based one-time-code primitive used for
// second-factor verification and enrollment. The record store treats it
// as a trusted external capability.
package totp

import (
	"encoding/base32"
	"fmt"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// DefaultIssuer labels provisioning URIs generated for this application.
const DefaultIssuer = "PassLock"

// Verify reports whether code is a valid one-time code for the shared
// secret, allowing a ±30-second tolerance window around the current time.
func Verify(secret, code string) bool {
	ok, err := totp.ValidateCustom(strings.TrimSpace(code), normalize(secret), time.Now().UTC(), totp.ValidateOpts{
		Period:    30,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}

// GenerateSharedSecret creates a fresh random base32 shared secret for the
// given account label.
func GenerateSharedSecret(account string) (string, error) {
	key, err := totp.Generate(totp.GenerateOpts{Issuer: DefaultIssuer, AccountName: account})
	if err != nil {
		return "", fmt.Errorf("generating shared secret: %w", err)
	}
	return key.Secret(), nil
}

// ProvisioningURI builds an otpauth:// enrollment URI for an existing
// shared secret, suitable for QR-code display by the presentation layer.
func ProvisioningURI(secret, account, issuer string) (string, error) {
	raw, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(normalize(secret))
	if err != nil {
		return "", fmt.Errorf("invalid shared secret: %w", err)
	}
	if issuer == "" {
		issuer = DefaultIssuer
	}
	key, err := totp.Generate(totp.GenerateOpts{Issuer: issuer, AccountName: account, Secret: raw})
	if err != nil {
		return "", fmt.Errorf("building provisioning uri: %w", err)
	}
	return key.URL(), nil
}

// CurrentCode returns the code valid right now. Useful for tests and for
// showing the expected value during enrollment.
func CurrentCode(secret string) (string, error) {
	return totp.GenerateCode(normalize(secret), time.Now().UTC())
}

func normalize(secret string) string {
	return strings.ToUpper(strings.TrimRight(strings.TrimSpace(secret), "="))
}
