package webpush

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"
)

// Request is the abstract HTTP request the core produces. It carries no
// transport dependency; ToHTTPRequest (or a caller's own adapter) turns
// it into something an http.Client — or any other C10 collaborator — can
// send.
type Request struct {
	Method  string
	URL     string
	Headers []CryptoHeader // ordered; order matters for Crypto-Key/Encryption and is preserved
	Body    []byte
}

// BuildRequest turns a built WebPushMessage into the wire-exact request
// described in spec §4.6/§6: POST, a mandatory TTL header, conditional
// Urgency/Topic, and — when a payload is present — the content headers
// followed by every crypto header in order.
func BuildRequest(msg *WebPushMessage) *Request {
	req := &Request{
		Method: http.MethodPost,
		URL:    msg.Endpoint.String(),
	}
	req.Headers = append(req.Headers, CryptoHeader{Name: "TTL", Value: strconv.FormatUint(uint64(msg.TTL), 10)})

	if msg.Urgency != nil {
		req.Headers = append(req.Headers, CryptoHeader{Name: "Urgency", Value: string(*msg.Urgency)})
	}
	if msg.Topic != nil {
		req.Headers = append(req.Headers, CryptoHeader{Name: "Topic", Value: *msg.Topic})
	}

	if msg.Payload != nil {
		req.Headers = append(req.Headers,
			CryptoHeader{Name: "Content-Encoding", Value: string(msg.Payload.ContentEncoding)},
			CryptoHeader{Name: "Content-Length", Value: strconv.Itoa(len(msg.Payload.Content))},
			CryptoHeader{Name: "Content-Type", Value: "application/octet-stream"},
		)
		req.Headers = append(req.Headers, msg.Payload.CryptoHeaders...)
		req.Body = msg.Payload.Content
	}

	return req
}

// ToHTTPRequest adapts a Request to a standard net/http request, for
// callers using http.Client as their transport (C10) collaborator.
func (r *Request) ToHTTPRequest(ctx context.Context) (*http.Request, error) {
	var body io.Reader
	if r.Body != nil {
		body = bytes.NewReader(r.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, r.Method, r.URL, body)
	if err != nil {
		return nil, newErrCause(KindInvalidURI, err)
	}
	for _, h := range r.Headers {
		httpReq.Header.Add(h.Name, h.Value)
	}
	return httpReq, nil
}
