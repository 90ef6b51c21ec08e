package webpush

import (
	"encoding/json"
	"io"
	"time"
)

// maxResponseBodySize is the response-streaming cap from spec §4.7.
const maxResponseBodySize = 65536

// ReadResponseBody reads up to maxResponseBodySize+1 bytes from r,
// returning ResponseTooLarge if the body does not fit. Callers that
// already have the full body in memory (e.g. httptest responses) can
// skip this and call ClassifyResponse directly.
func ReadResponseBody(r io.Reader) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, maxResponseBodySize+1))
	if err != nil {
		return nil, newErrCause(KindIO, err)
	}
	if len(body) > maxResponseBodySize {
		return nil, ErrResponseTooLarge
	}
	return body, nil
}

// ClassifyResponse maps an HTTP status code and response body to the
// error taxonomy of §4.7. It returns nil for 2xx. For 5xx it returns a
// *Error with Kind KindServerError and RetryAfter left nil — the caller
// is expected to parse the response's Retry-After header (via
// ParseRetryAfter) and set RetryAfter before surfacing the error, since
// the header is not available to a pure (status, body) function.
func ClassifyResponse(status int, body []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}

	switch status {
	case 400:
		return &Error{Kind: KindBadRequest, Info: parseInfo(body)}
	case 401:
		return &Error{Kind: KindUnauthorized, Info: parseInfo(body)}
	case 404:
		return &Error{Kind: KindEndpointNotFound, Info: parseInfo(body)}
	case 410:
		return &Error{Kind: KindEndpointNotValid, Info: parseInfo(body)}
	case 413:
		return ErrPayloadTooLarge
	}

	if status >= 500 && status < 600 {
		return &Error{Kind: KindServerError, Info: parseInfo(body)}
	}

	return &Error{Kind: KindOther, Info: parseInfo(body)}
}

// WithRetryAfter returns a copy of a KindServerError *Error with
// RetryAfter set, per the two-step classify-then-wrap pattern of §7: the
// classifier itself never sees headers, only status and body.
func WithRetryAfter(err error, retryAfter time.Duration, ok bool) error {
	e, isErr := err.(*Error)
	if !isErr || e.Kind != KindServerError || !ok {
		return err
	}
	cp := *e
	cp.RetryAfter = &retryAfter
	return &cp
}

func parseInfo(body []byte) *Info {
	var info Info
	if err := json.Unmarshal(body, &info); err != nil || info.Error == "" {
		return &Info{Error: "unknown error", Message: string(body)}
	}
	return &info
}
