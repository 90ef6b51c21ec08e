package vapid

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"time"
)

// DefaultSubject is attached to the "sub" claim when neither Claims nor a
// caller-supplied override sets one. Some push services require a
// contact subject even though RFC 8292 allows omitting it.
const DefaultSubject = "mailto:example@example.com"

// DefaultExpiry is how far in the future "exp" defaults to when not
// overridden.
const DefaultExpiry = 12 * time.Hour

// Signature is a signed VAPID JWT: the compact token plus the public key
// of the key that signed it.
type Signature struct {
	AuthT string
	AuthK []byte
}

var jwtHeader = []byte(`{"typ":"JWT","alg":"ES256"}`)

// Sign builds and signs a VAPID JWT for the given push service endpoint,
// per RFC 8292 and spec §4.2: aud defaults to the endpoint's origin, exp
// defaults to now+12h, sub defaults to DefaultSubject — each only if the
// caller didn't already set it in claims. now is injected so callers can
// keep tests deterministic; production callers pass time.Now().
func Sign(ctx context.Context, signer Signer, endpoint string, claims map[string]any, now time.Time) (*Signature, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parsing endpoint: %w", err)
	}

	merged := make(map[string]any, len(claims)+3)
	for k, v := range claims {
		merged[k] = v
	}
	if _, ok := merged["aud"]; !ok {
		merged["aud"] = u.Scheme + "://" + u.Host
	}
	if _, ok := merged["exp"]; !ok {
		merged["exp"] = now.Add(DefaultExpiry).Unix()
	}
	if _, ok := merged["sub"]; !ok {
		merged["sub"] = DefaultSubject
	}

	claimsJSON, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("marshaling claims: %w", err)
	}

	signingInput := base64.RawURLEncoding.EncodeToString(jwtHeader) + "." +
		base64.RawURLEncoding.EncodeToString(claimsJSON)

	hash := sha256.Sum256([]byte(signingInput))
	sig, err := signer.Sign(ctx, hash[:])
	if err != nil {
		return nil, fmt.Errorf("signing vapid jwt: %w", err)
	}

	return &Signature{
		AuthT: signingInput + "." + base64.RawURLEncoding.EncodeToString(sig),
		AuthK: signer.PublicKey(),
	}, nil
}
