package webpush

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/url"
	"time"
)

// Signer is the seam between VAPID key custody and its use in signing a
// push request. It is declared independently here and in vapid.Signer /
// keys.Signer: each package needs only the shape, not an import of
// whichever package happens to own the canonical declaration, so the
// encryption and signing code here does not depend on keys. The package
// does import keys in client.go, for the keys.Signer return type of the
// rotating-key selector.
type Signer interface {
	Sign(ctx context.Context, data []byte) ([]byte, error)
	PublicKey() []byte
}

const defaultVapidSubject = "mailto:example@example.com"

var jwtHeaderJSON = []byte(`{"typ":"JWT","alg":"ES256"}`)

// signVapid builds and signs a VAPID JWT for endpoint per spec §4.2,
// using clock for "now" so exp is deterministic in tests. subject and
// claims come from the caller; aud/exp/sub defaults only fill in claims
// the caller didn't already set.
func signVapid(ctx context.Context, signer Signer, clock Clock, endpoint string, subject string, claims map[string]any) (*VapidSignature, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, ErrInvalidURI
	}

	merged := make(map[string]any, len(claims)+3)
	for k, v := range claims {
		merged[k] = v
	}
	if _, ok := merged["aud"]; !ok {
		merged["aud"] = u.Scheme + "://" + u.Host
	}
	if _, ok := merged["exp"]; !ok {
		merged["exp"] = clock.Now().Add(12 * time.Hour).Unix()
	}
	if _, ok := merged["sub"]; !ok {
		if subject == "" {
			subject = defaultVapidSubject
		}
		merged["sub"] = subject
	}

	claimsJSON, err := json.Marshal(merged)
	if err != nil {
		return nil, newErrCause(KindInvalidClaims, err)
	}

	signingInput := base64.RawURLEncoding.EncodeToString(jwtHeaderJSON) + "." +
		base64.RawURLEncoding.EncodeToString(claimsJSON)

	hash := sha256.Sum256([]byte(signingInput))
	sig, err := signer.Sign(ctx, hash[:])
	if err != nil {
		return nil, newErrCause(KindInvalidClaims, err)
	}

	return &VapidSignature{
		AuthT: signingInput + "." + base64.RawURLEncoding.EncodeToString(sig),
		AuthK: signer.PublicKey(),
	}, nil
}
