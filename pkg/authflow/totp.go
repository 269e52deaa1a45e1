package authflow

import (
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	totpPeriod     = 30
	totpSkew       = 1
	totpSecretSize = 20
)

// totpOpts is RFC 6238 with the defaults every mainstream authenticator app
// understands. Skew 1 accepts the previous and next 30 second step.
var totpOpts = totp.ValidateOpts{
	Period:    totpPeriod,
	Skew:      totpSkew,
	Digits:    otp.DigitsSix,
	Algorithm: otp.AlgorithmSHA1,
}

// generateKey creates a fresh 160-bit base32 secret and its otpauth:// URI.
func generateKey(issuer, account string) (*otp.Key, error) {
	return totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: account,
		Period:      totpPeriod,
		SecretSize:  totpSecretSize,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
}

func validateCode(code, secret string, at time.Time) bool {
	if secret == "" {
		return false
	}
	ok, err := totp.ValidateCustom(code, secret, at.UTC(), totpOpts)
	return err == nil && ok
}

// validCodeShape reports whether code is exactly six ASCII digits.
func validCodeShape(code string) bool {
	if len(code) != 6 {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}
