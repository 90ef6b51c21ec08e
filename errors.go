package webpush

import (
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Kind is a closed taxonomy of the ways sending a push notification can
// fail. It lets callers branch on failure category without string
// matching, while still carrying whatever diagnostic payload the push
// service returned.
type Kind string

const (
	KindUnauthorized      Kind = "unauthorized"
	KindBadRequest        Kind = "bad_request"
	KindServerError       Kind = "server_error"
	KindInvalidURI        Kind = "invalid_uri"
	KindEndpointNotValid  Kind = "endpoint_not_valid"
	KindEndpointNotFound  Kind = "endpoint_not_found"
	KindPayloadTooLarge   Kind = "payload_too_large"
	KindIO                Kind = "io"
	KindInvalidTTL        Kind = "invalid_ttl"
	KindInvalidTopic      Kind = "invalid_topic"
	KindMissingCryptoKeys Kind = "missing_crypto_keys"
	KindInvalidCryptoKeys Kind = "invalid_crypto_keys"
	KindInvalidResponse   Kind = "invalid_response"
	KindInvalidClaims     Kind = "invalid_claims"
	KindResponseTooLarge  Kind = "response_too_large"
	KindUnknownVapidKey   Kind = "unknown_vapid_key"
	KindUnspecified       Kind = "unspecified"
	KindOther             Kind = "other"

	// KindNotImplemented and KindInvalidPackageName are not produced by
	// ClassifyResponse: both come from original_source's FCM-specific
	// services/firebase.rs error mapping (a legacy GCM JSON error body),
	// not from request_builder.rs's generic status-code table this
	// package's classifier is grounded on. They're kept in the taxonomy
	// for parity with the original's full error enum, for a caller that
	// wants to match on them against a push service returning that shape.
	KindNotImplemented     Kind = "not_implemented"
	KindInvalidPackageName Kind = "invalid_package_name"
)

// Info carries the structured diagnostic body some push services return
// alongside 4xx/5xx responses.
type Info struct {
	Code    uint16 `json:"code"`
	Errno   uint16 `json:"errno"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Error is the error type returned by everything in this package. Which
// fields are populated depends on Kind: see the comments on the fields
// below for which fields are meaningful for which Kind.
type Error struct {
	Kind Kind

	// Info is the parsed server diagnostic payload, set for
	// BadRequest/Unauthorized/EndpointNotValid/EndpointNotFound/ServerError/
	// NotImplemented/Other.
	Info *Info

	// RetryAfter is set only for KindServerError, once the caller has
	// parsed the response's Retry-After header.
	RetryAfter *time.Duration

	// Cause wraps the underlying error for KindIO and similar transport/
	// local failures.
	Cause error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindServerError:
		if e.RetryAfter != nil {
			return fmt.Sprintf("webpush: server error, retry after %s", *e.RetryAfter)
		}
		return "webpush: server error"
	case KindIO:
		return fmt.Sprintf("webpush: io error: %v", e.Cause)
	case KindInvalidClaims:
		if e.Cause != nil {
			return fmt.Sprintf("webpush: invalid vapid claims: %v", e.Cause)
		}
		return "webpush: invalid vapid claims"
	case KindInvalidCryptoKeys:
		if e.Cause != nil {
			return fmt.Sprintf("webpush: invalid crypto keys: %v", e.Cause)
		}
		return "webpush: invalid crypto keys"
	default:
		if e.Info != nil && e.Info.Error != "" {
			return fmt.Sprintf("webpush: %s: %s", e.Kind, e.Info.Error)
		}
		return fmt.Sprintf("webpush: %s", e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Cause }

// Is lets errors.Is(err, &Error{Kind: KindFoo}) match on Kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func newErr(kind Kind) *Error                 { return &Error{Kind: kind} }
func newErrInfo(kind Kind, info *Info) *Error { return &Error{Kind: kind, Info: info} }
func newErrCause(kind Kind, cause error) *Error {
	return &Error{Kind: kind, Cause: cause}
}

var (
	ErrInvalidURI         = newErr(KindInvalidURI)
	ErrPayloadTooLarge    = newErr(KindPayloadTooLarge)
	ErrInvalidPackageName = newErr(KindInvalidPackageName)
	ErrInvalidTTL         = newErr(KindInvalidTTL)
	ErrInvalidTopic       = newErr(KindInvalidTopic)
	ErrMissingCryptoKeys  = newErr(KindMissingCryptoKeys)
	ErrInvalidResponse    = newErr(KindInvalidResponse)
	ErrResponseTooLarge   = newErr(KindResponseTooLarge)
	ErrUnspecified        = newErr(KindUnspecified)
	// ErrUnknownVapidKey is returned by Client.Send when SendOptions.VapidKeyID
	// is set but the signer does not track multiple keys, or has no key
	// (current or previous) matching it — see the keys.RotatingSigner
	// wiring in client.go.
	ErrUnknownVapidKey = newErr(KindUnknownVapidKey)
)

// ParseRetryAfter parses a Retry-After header value, either a decimal
// count of seconds or an HTTP-date, returning the duration from now until
// that time. A past date clamps to zero. Reports ok=false if value is
// empty or neither form parses.
func ParseRetryAfter(value string, now time.Time) (d time.Duration, ok bool) {
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			seconds = 0
		}
		return time.Duration(seconds) * time.Second, true
	}
	if t, err := http.ParseTime(value); err == nil {
		d := t.Sub(now)
		if d < 0 {
			d = 0
		}
		return d, true
	}
	return 0, false
}
