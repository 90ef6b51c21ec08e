package webpush

import (
	"net/url"
	"strings"
)

const defaultTTL = 2_419_200 // 28 days, seconds

const topicAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

// WebPushMessage is a fully-built, optionally-encrypted message ready to
// be turned into a request by the request builder (C8).
type WebPushMessage struct {
	Endpoint *url.URL
	TTL      uint32
	Urgency  *Urgency
	Topic    *string
	Payload  *WebPushPayload
}

// MessageBuilder accumulates the pieces of a push message before
// encrypting the payload and validating everything in Build. Create one
// with NewMessageBuilder, the only place the mandatory subscription is set.
type MessageBuilder struct {
	sub     *Subscription
	ttl     uint32
	urgency *Urgency
	topic   *string
	sig     *VapidSignature

	hasPayload bool
	encoding   ContentEncoding
	plaintext  []byte
}

// NewMessageBuilder starts a builder for the given subscription, with
// TTL defaulted to 28 days and no payload, urgency, topic, or VAPID
// signature set.
func NewMessageBuilder(sub *Subscription) *MessageBuilder {
	return &MessageBuilder{sub: sub, ttl: defaultTTL, encoding: Aes128Gcm}
}

// SetTTL overrides the default TTL (seconds).
func (b *MessageBuilder) SetTTL(ttl uint32) *MessageBuilder {
	b.ttl = ttl
	return b
}

// SetUrgency sets the Urgency header value.
func (b *MessageBuilder) SetUrgency(u Urgency) *MessageBuilder {
	b.urgency = &u
	return b
}

// SetTopic sets the Topic header value. Validated in Build.
func (b *MessageBuilder) SetTopic(topic string) *MessageBuilder {
	b.topic = &topic
	return b
}

// SetPayload sets the plaintext to encrypt and the scheme to encrypt it
// with. Passing a nil payload is equivalent to never calling SetPayload.
func (b *MessageBuilder) SetPayload(encoding ContentEncoding, plaintext []byte) *MessageBuilder {
	b.hasPayload = plaintext != nil
	b.encoding = encoding
	b.plaintext = plaintext
	return b
}

// SetVapidSignature attaches a pre-computed VAPID signature. It is only
// meaningful when a payload is also set; see C5/C6 wire surfaces.
func (b *MessageBuilder) SetVapidSignature(sig *VapidSignature) *MessageBuilder {
	b.sig = sig
	return b
}

// Build runs the five-step construction spec'd for the message builder:
// parse the endpoint, validate the topic, decode the client keys,
// encrypt the payload, and emit the message. The client keys are only
// checked and decoded when a payload is set; without one, Build returns
// after the topic check.
func (b *MessageBuilder) Build() (*WebPushMessage, error) {
	endpoint, err := url.Parse(b.sub.Endpoint)
	if err != nil || endpoint.Scheme == "" || endpoint.Host == "" {
		return nil, ErrInvalidURI
	}

	if b.topic != nil {
		if !validTopic(*b.topic) {
			return nil, ErrInvalidTopic
		}
	}

	msg := &WebPushMessage{
		Endpoint: endpoint,
		TTL:      b.ttl,
		Urgency:  b.urgency,
		Topic:    b.topic,
	}

	if !b.hasPayload {
		return msg, nil
	}

	if b.sub.Keys.P256dh == "" || b.sub.Keys.Auth == "" {
		return nil, ErrMissingCryptoKeys
	}

	clientPub, err := decodeB64URL(b.sub.Keys.P256dh)
	if err != nil {
		return nil, newErrCause(KindInvalidCryptoKeys, err)
	}
	clientAuth, err := decodeB64URL(b.sub.Keys.Auth)
	if err != nil {
		return nil, newErrCause(KindInvalidCryptoKeys, err)
	}

	var payload *WebPushPayload
	switch b.encoding {
	case AesGcm:
		payload, err = encryptAesgcm(clientPub, clientAuth, b.plaintext)
		if err == nil {
			withVapidAesgcm(payload, b.sig)
		}
	default:
		payload, err = encryptAes128gcm(clientPub, clientAuth, b.plaintext)
		if err == nil {
			withVapidAes128gcm(payload, b.sig)
		}
	}
	if err != nil {
		return nil, err
	}

	msg.Payload = payload
	return msg, nil
}

func validTopic(topic string) bool {
	if len(topic) > 32 {
		return false
	}
	for _, r := range topic {
		if !strings.ContainsRune(topicAlphabet, r) {
			return false
		}
	}
	return true
}
