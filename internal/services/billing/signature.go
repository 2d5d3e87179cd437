package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/porticodesk/portico/internal/models"
)

// DefaultTolerance bounds how far a signed timestamp may drift from the
// server clock before the delivery is rejected as a replay.
const DefaultTolerance = 300 * time.Second

// ComputeSignature returns the hex HMAC-SHA256 of "<timestamp>.<payload>"
// under the shared secret. This is the value carried in the v1 field of the
// signature header.
func ComputeSignature(secret string, timestamp int64, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", timestamp)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// SignHeader renders a complete signature header for a payload, used by
// tests and the local delivery simulator.
func SignHeader(secret string, timestamp int64, payload []byte) string {
	return fmt.Sprintf("t=%d,v1=%s", timestamp, ComputeSignature(secret, timestamp, payload))
}

// VerifySignature checks a delivery's signature header against the raw body.
// The header carries "t=<unix>,v1=<hex mac>"; the mac must match and the
// timestamp must be within tolerance of now. Comparison is constant-time.
// Every failure collapses to models.ErrInvalidSignature so callers cannot
// leak which check failed.
func VerifySignature(secret, header string, payload []byte, tolerance time.Duration, now time.Time) error {
	if secret == "" || header == "" {
		return models.ErrInvalidSignature
	}
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}

	var timestamp int64
	var signatures []string
	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			ts, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return models.ErrInvalidSignature
			}
			timestamp = ts
		case "v1":
			signatures = append(signatures, value)
		}
	}

	if timestamp == 0 || len(signatures) == 0 {
		return models.ErrInvalidSignature
	}

	drift := now.Unix() - timestamp
	if drift < 0 {
		drift = -drift
	}
	if drift > int64(tolerance.Seconds()) {
		return models.ErrInvalidSignature
	}

	expected := ComputeSignature(secret, timestamp, payload)
	for _, sig := range signatures {
		if hmac.Equal([]byte(expected), []byte(sig)) {
			return nil
		}
	}
	return models.ErrInvalidSignature
}
