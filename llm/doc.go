// Package llm provides the provider-neutral core types for the gateway.
//
// This package defines the common request/response model, the streaming
// abstraction, the transport seam, and the error taxonomy that the rest of
// the module builds on, without coupling to any specific provider's SDK.
//
// # Core Concepts
//
//  1. Requests: the Request type is a tagged variant. Its Operation field
//     (chat, embedding, image, audio) selects which payload fields apply,
//     and Validate enforces the pairing at the pipeline boundary.
//
//  2. Transport: the Transport interface is the send primitive. Provider
//     adapters implement it; the gateway only orchestrates around it
//     (rate limiting, caching, retry, middleware, cancellation).
//
//  3. Streams: the Stream interface models a streaming response as a lazy,
//     finite, pull-based sequence of StreamEvent values. Callers pull with
//     Next, making backpressure and cancellation explicit.
//
//  4. Errors: the Error type carries a category, an HTTP-like status, and a
//     retryability verdict. Statuses in [400,500) other than 429 are fatal;
//     validation and cancellation errors are never retried.
package llm
