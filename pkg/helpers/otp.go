package helpers

import (
	"crypto/rand"
	"math/big"
	"time"
)

// OTP helpers

// OTPLength is the number of digits in a verification code.
const OTPLength = 6

var ten = big.NewInt(10)

// GenerateOTP returns a decimal string of exactly length digits. Each
// digit is drawn independently and uniformly from crypto/rand, so leading
// zeros are possible and preserved.
func GenerateOTP(length int) (string, error) {
	code := make([]byte, length)
	for i := range code {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		code[i] = byte('0' + n.Int64())
	}
	return string(code), nil
}

// OTPExpiry returns the expiry timestamp for a code issued now.
func OTPExpiry(ttl time.Duration) time.Time {
	return time.Now().Add(ttl)
}

// OTPExpired reports whether the expiry timestamp has strictly passed.
func OTPExpired(expiresAt time.Time) bool {
	return time.Now().After(expiresAt)
}
