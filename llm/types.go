package llm

import (
	"encoding/json"
)

// Operation identifies the kind of API call a Request describes.
type Operation string

const (
	OperationChat      Operation = "chat"
	OperationEmbedding Operation = "embedding"
	OperationImage     Operation = "image"
	OperationAudio     Operation = "audio"
)

// MessageRole represents the role of a message in a conversation.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleSystem    MessageRole = "system"
)

// Message represents a single message in a conversation.
type Message struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
}

// Request represents a complete, provider-neutral API request. The Operation
// tag selects which payload fields are meaningful; Validate enforces the
// pairing at the pipeline boundary.
type Request struct {
	Operation   Operation `json:"operation"`
	Model       string    `json:"model"`
	Messages    []Message `json:"messages,omitempty"` // chat
	Input       []string  `json:"input,omitempty"`    // embedding
	Prompt      string    `json:"prompt,omitempty"`   // image / audio
	System      string    `json:"system,omitempty"`
	MaxTokens   int64     `json:"max_tokens,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
	Stream      bool      `json:"stream,omitempty"`

	// Headers are attached to the outgoing transport call as-is. Credential
	// lifecycle beyond attachment is the caller's concern.
	Headers map[string]string `json:"-"`
}

// Validate checks that the request payload matches its operation kind.
// It returns a validation-typed *Error, which is never retried.
func (r *Request) Validate() error {
	if r == nil {
		return NewValidationError("request is nil", nil)
	}
	if r.Model == "" {
		return NewValidationError("model is required", nil)
	}
	switch r.Operation {
	case OperationChat:
		if len(r.Messages) == 0 {
			return NewValidationError("chat request requires at least one message", nil)
		}
	case OperationEmbedding:
		if len(r.Input) == 0 {
			return NewValidationError("embedding request requires input", nil)
		}
	case OperationImage, OperationAudio:
		if r.Prompt == "" {
			return NewValidationError(string(r.Operation)+" request requires a prompt", nil)
		}
	default:
		return NewValidationError("unknown operation: "+string(r.Operation), nil)
	}
	return nil
}

// Cacheable reports whether a response for this request may be served from
// and stored into the cache. Streaming responses are never cached.
func (r *Request) Cacheable() bool {
	return !r.Stream
}

// Response represents a complete API response.
type Response struct {
	Operation  Operation   `json:"operation"`
	Model      string      `json:"model"`
	Content    string      `json:"content,omitempty"`
	Embeddings [][]float64 `json:"embeddings,omitempty"`
	StopReason string      `json:"stop_reason,omitempty"`
	Usage      *Usage      `json:"usage,omitempty"`
}

// Usage represents token usage reported by the provider.
type Usage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
}

// StreamEvent is one element of a streaming response sequence.
type StreamEvent struct {
	ID           string `json:"id"`
	Model        string `json:"model"`
	Delta        string `json:"delta"`
	FinishReason string `json:"finish_reason,omitempty"`
	Done         bool   `json:"-"`
}

// Stream is a lazy, finite, non-restartable sequence of stream events.
// Callers pull with Next until it returns false, then consult Err.
type Stream interface {
	// Next advances to the next event. It returns false once the sequence
	// has ended or an error occurred.
	Next() bool

	// Event returns the current event. Only valid after Next returned true.
	Event() *StreamEvent

	// Err returns the terminal error, if any, once Next has returned false.
	Err() error

	// Close releases the underlying transport resources. Safe to call more
	// than once.
	Close() error
}

// ToJSON marshals a request to JSON for logging and cache-key derivation.
func (r *Request) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}
