package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base32"
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/allisson/gatekeeper/internal/errors"
)

// RFC 6238 parameters. The one-step skew tolerates clock drift between the
// server and the authenticator device.
const (
	totpDigits = 6
	totpPeriod = 30
	totpSkew   = 1
)

// totpVerifier implements Verifier for time-based one-time passwords.
// The enrolled secret material is the base32-encoded seed.
type totpVerifier struct {
	now func() time.Time
}

// Verify checks the code against the current time step and one step on either
// side. Comparison is constant-time.
func (v *totpVerifier) Verify(_ context.Context, secretMaterial string, proof string) (bool, error) {
	code := strings.TrimSpace(proof)
	if len(code) != totpDigits || !isNumericString(code) {
		return false, nil
	}

	seed, err := decodeTOTPSeed(secretMaterial)
	if err != nil {
		return false, err
	}

	return totpMatches(seed, code, v.now().UTC()), nil
}

// NewTOTPVerifier creates a Verifier for time-based one-time password codes.
func NewTOTPVerifier() Verifier {
	return &totpVerifier{now: time.Now}
}

func decodeTOTPSeed(secretMaterial string) ([]byte, error) {
	normalized := strings.ToUpper(strings.TrimSpace(secretMaterial))
	seed, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(normalized)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to decode totp seed")
	}
	return seed, nil
}

// hotpCode computes the RFC 4226 HMAC-based one-time password for a counter.
func hotpCode(seed []byte, counter int64, digits int) string {
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], uint64(counter))

	mac := hmac.New(sha1.New, seed)
	_, _ = mac.Write(msg[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	bin := (int(sum[offset])&0x7f)<<24 |
		(int(sum[offset+1])&0xff)<<16 |
		(int(sum[offset+2])&0xff)<<8 |
		(int(sum[offset+3]) & 0xff)

	mod := 1
	for i := 0; i < digits; i++ {
		mod *= 10
	}

	return fmt.Sprintf("%0*d", digits, bin%mod)
}

func isNumericString(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

func totpMatches(seed []byte, code string, now time.Time) bool {
	baseCounter := now.Unix() / totpPeriod
	matched := false
	for step := int64(-totpSkew); step <= totpSkew; step++ {
		counter := baseCounter + step
		if counter < 0 {
			continue
		}
		generated := hotpCode(seed, counter, totpDigits)
		if subtle.ConstantTimeCompare([]byte(generated), []byte(code)) == 1 {
			matched = true
		}
	}
	return matched
}
