package driven

import "context"

// VisionModel is a vision-capable chat completion model. The Generator, the
// Analyzer, and each Judge all drive one through this single port, so any
// provider adapter (Anthropic, OpenAI, Ollama) can fill any of those roles.
//
// Implementations may include:
//   - Anthropic (Claude, native image blocks)
//   - OpenAI (GPT-4o, image_url content parts)
//   - Ollama (local vision models)
type VisionModel interface {
	// Complete sends a prompt plus zero or more images and returns the
	// model's text response. Implementations must return ErrTransientProvider
	// (wrapped) for retryable failures (rate limits, timeouts, 5xx) so
	// callers can distinguish them from permanent failures.
	Complete(ctx context.Context, req VisionRequest) (string, error)

	// ModelName returns the configured model identifier, for logging.
	ModelName() string

	// Ping validates the service is reachable with a lightweight request.
	// Used by the `check` command to verify credentials before a run starts.
	Ping(ctx context.Context) error
}

// VisionRequest is one call to a VisionModel.
type VisionRequest struct {
	// SystemPrompt, if non-empty, is sent as the system message.
	SystemPrompt string

	// UserText is the textual portion of the user turn.
	UserText string

	// Images are attached in order after UserText.
	Images []ImagePart

	// MaxTokens bounds the response length. Zero means use the provider's
	// default.
	MaxTokens int

	// Temperature controls randomness; judges and the analyzer want this at
	// or near zero for reproducible scoring.
	Temperature float64
}

// ImagePart is a single inlined image attached to a VisionRequest.
type ImagePart struct {
	// Bytes is the raw image data.
	Bytes []byte

	// MimeType is the image's MIME type, e.g. "image/png".
	MimeType string

	// Label is an optional caption the provider adapter may fold into
	// the surrounding text (e.g. "Figure 2 crop") when the wire format
	// has no native way to caption an image part.
	Label string
}
