package llm

import (
	"context"
	"io"
	"net/http"
)

// Transport is the send primitive the gateway orchestrates. Implementations
// own the wire format of a specific provider; the gateway never inspects
// provider payloads beyond the neutral types in this package.
//
// Implementations should honor ctx cancellation on all network I/O and
// return *Error values so failures classify correctly for retry.
type Transport interface {
	// Send performs a complete request/response call.
	Send(ctx context.Context, req *Request) (*Response, error)

	// Stream opens a streaming call and returns the raw byte stream before
	// any decoding. The caller owns closing RawStream.Body.
	Stream(ctx context.Context, req *Request) (*RawStream, error)
}

// RawStream is an open transport-level response stream, handed to the
// decoder before any bytes have been consumed.
type RawStream struct {
	Status int
	Header http.Header
	Body   io.ReadCloser
}
