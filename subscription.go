package webpush

import (
	"encoding/base64"
	"encoding/json"
)

// Subscription is a parsed browser push subscription, exactly the shape
// returned by pushSubscription.toJSON() in a service worker.
type Subscription struct {
	Endpoint string `json:"endpoint"`
	Keys     Keys   `json:"keys"`
}

// Keys holds the client's public key material, both base64url-encoded
// without padding.
type Keys struct {
	P256dh string `json:"p256dh"` // uncompressed SEC1 P-256 public key, 65 bytes decoded
	Auth   string `json:"auth"`   // random authentication secret, 16 bytes decoded
}

// ParseSubscription decodes a subscription JSON document as produced by
// pushSubscription.toJSON(). It does not decode or validate the key
// material itself; that happens in the message builder (spec §4.5 step 3)
// so the same failure kind, InvalidCryptoKeys, covers both this and later
// decode failures.
func ParseSubscription(data []byte) (*Subscription, error) {
	var sub Subscription
	if err := json.Unmarshal(data, &sub); err != nil {
		return nil, newErrCause(KindInvalidURI, err)
	}
	if sub.Endpoint == "" {
		return nil, ErrInvalidURI
	}
	if sub.Keys.P256dh == "" || sub.Keys.Auth == "" {
		return nil, ErrMissingCryptoKeys
	}
	return &sub, nil
}

func decodeB64URL(s string) ([]byte, error) {
	if b, err := base64.RawURLEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.URLEncoding.DecodeString(s)
}

func encodeB64URL(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}
