package webpush

import (
	"context"
	"net/http"

	"github.com/nullpush/webpush/keys"
)

// SendOptions customizes a single Send call. The zero value sends an
// empty-payload message with the default TTL and no urgency/topic.
type SendOptions struct {
	TTL      *uint32
	Urgency  *Urgency
	Topic    *string
	Encoding ContentEncoding // default Aes128Gcm
	Payload  []byte          // nil means no payload is sent
	// Claims overrides/extends the default VAPID claim set (aud/exp/sub).
	Claims map[string]any
	// VapidKeyID, if set, is the base64url public key of the specific
	// VAPID key this subscription was created under. When the Client's
	// signer tracks multiple keys (a *keys.RotatingSigner), the message
	// is then signed with that historical key instead of the signer's
	// current one, so a subscriber who hasn't re-subscribed since the
	// last key rotation still gets a signature their browser's
	// applicationServerKey recognizes. If the signer does not track
	// multiple keys, or knows no key matching VapidKeyID, Send returns
	// ErrUnknownVapidKey. Left empty, Send always signs with the current key.
	VapidKeyID string
}

// keySelector is implemented by signers that manage more than one VAPID
// key (keys.RotatingSigner) so Send can pick the key a given subscription
// needs instead of always using whichever key is current.
type keySelector interface {
	GetSignerForKeyBase64(publicKeyB64 string) keys.Signer
}

// Client sends Web Push notifications, encrypting any payload against the
// subscription's client keys. Every Send signs a VAPID JWT, but the VAPID
// Authorization header is only attached to messages that carry a payload.
type Client struct {
	signer     Signer
	subject    string
	httpClient *http.Client
	clock      Clock
}

// NewClient builds a Client that signs every message with signer and
// sets the VAPID "sub" claim to subject (e.g. "mailto:ops@example.com")
// unless a call overrides it. signer is expected to be reused across
// many sends — it owns the private key and is not re-read per call.
func NewClient(signer Signer, subject string) *Client {
	return &Client{
		signer:     signer,
		subject:    subject,
		httpClient: http.DefaultClient,
		clock:      realClock{},
	}
}

// WithHTTPClient overrides the transport used for the round trip.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// WithClock overrides the time source used for VAPID exp and Retry-After
// parsing. Intended for deterministic tests.
func (c *Client) WithClock(clock Clock) *Client {
	c.clock = clock
	return c
}

// Send encrypts opts.Payload (if any) against sub's client keys, signs a
// VAPID JWT for sub.Endpoint, assembles the request, and performs the
// round trip. It returns nil on any 2xx response.
func (c *Client) Send(ctx context.Context, sub *Subscription, opts *SendOptions) error {
	if opts == nil {
		opts = &SendOptions{}
	}

	signer := c.signer
	if opts.VapidKeyID != "" {
		sel, ok := c.signer.(keySelector)
		if !ok {
			return ErrUnknownVapidKey
		}
		selected := sel.GetSignerForKeyBase64(opts.VapidKeyID)
		if selected == nil {
			return ErrUnknownVapidKey
		}
		signer = selected
	}

	sig, err := signVapid(ctx, signer, c.clock, sub.Endpoint, c.subject, opts.Claims)
	if err != nil {
		return err
	}

	b := NewMessageBuilder(sub).SetVapidSignature(sig)
	if opts.TTL != nil {
		b.SetTTL(*opts.TTL)
	}
	if opts.Urgency != nil {
		b.SetUrgency(*opts.Urgency)
	}
	if opts.Topic != nil {
		b.SetTopic(*opts.Topic)
	}
	if opts.Payload != nil {
		encoding := opts.Encoding
		if encoding == "" {
			encoding = Aes128Gcm
		}
		b.SetPayload(encoding, opts.Payload)
	}

	msg, err := b.Build()
	if err != nil {
		return err
	}

	req := BuildRequest(msg)
	httpReq, err := req.ToHTTPRequest(ctx)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return newErrCause(KindUnspecified, err)
	}
	defer resp.Body.Close()

	body, err := ReadResponseBody(resp.Body)
	if err != nil {
		return err
	}

	classified := ClassifyResponse(resp.StatusCode, body)
	if classified == nil {
		return nil
	}

	retryAfter, ok := ParseRetryAfter(resp.Header.Get("Retry-After"), c.clock.Now())
	return WithRetryAfter(classified, retryAfter, ok)
}
