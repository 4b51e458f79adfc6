// Package webhook authenticates inbound provider webhook deliveries and hands
// verified events to application code.
//
// Deliveries follow the Standard Webhooks scheme: the sender computes
// HMAC-SHA256 over "<webhook-id>.<webhook-timestamp>.<body>" and sends the
// base64 digest in the webhook-signature header as one or more
// space-separated "v1,<signature>" tokens.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

// SignatureVersion is the token prefix for HMAC-SHA256 signatures.
const SignatureVersion = "v1"

// Verify reports whether signatureHeader carries a valid signature of
// rawBody for the given delivery ID and timestamp.
//
// Any empty input yields false. Tokens without the "v1," prefix are ignored,
// and the delivery is accepted when any v1 token matches. Each comparison is
// constant-time. The timestamp is signed but not checked for freshness.
func Verify(rawBody []byte, deliveryID, timestamp, signatureHeader, secret string) bool {
	if len(rawBody) == 0 || deliveryID == "" || timestamp == "" || signatureHeader == "" || secret == "" {
		return false
	}

	expected := []byte(compute(rawBody, deliveryID, timestamp, secret))

	matched := false
	for _, token := range strings.Fields(signatureHeader) {
		claimed, ok := strings.CutPrefix(token, SignatureVersion+",")
		if !ok {
			continue
		}
		if hmac.Equal(expected, []byte(claimed)) {
			matched = true
		}
	}
	return matched
}

// Sign returns a webhook-signature header value ("v1,<base64>") for rawBody.
func Sign(rawBody []byte, deliveryID, timestamp, secret string) string {
	return SignatureVersion + "," + compute(rawBody, deliveryID, timestamp, secret)
}

func compute(rawBody []byte, deliveryID, timestamp, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(deliveryID))
	mac.Write([]byte{'.'})
	mac.Write([]byte(timestamp))
	mac.Write([]byte{'.'})
	mac.Write(rawBody)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
