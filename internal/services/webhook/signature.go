package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/NordCoder/Pushkeeper/internal/domain"
)

const signaturePrefix = "sha256="

// VerifySignature checks an X-Hub-Signature-256 value against the HMAC-SHA256
// of body keyed by secret.
func VerifySignature(secret, body []byte, header string) error {
	if len(secret) == 0 {
		return fmt.Errorf("webhook secret not configured: %w", domain.ErrUnauthenticated)
	}
	if !strings.HasPrefix(header, signaturePrefix) {
		return fmt.Errorf("signature header missing %q prefix: %w", signaturePrefix, domain.ErrUnauthenticated)
	}
	claimed, err := hex.DecodeString(strings.TrimPrefix(header, signaturePrefix))
	if err != nil {
		return fmt.Errorf("signature not hex: %w", domain.ErrUnauthenticated)
	}
	if !hmac.Equal(claimed, Sign(secret, body)) {
		return fmt.Errorf("signature mismatch: %w", domain.ErrUnauthenticated)
	}
	return nil
}

func Sign(secret, body []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return mac.Sum(nil)
}

// SignatureHeader renders the header value GitHub would send for body.
func SignatureHeader(secret, body []byte) string {
	return signaturePrefix + hex.EncodeToString(Sign(secret, body))
}
