package vision

import "context"

// Describer is the capability contract for image description. Remote
// implementations (Gemini, OpenAI, ...) are injected by the composition
// root; this package never opens network connections itself.
type Describer interface {
	// Name returns the service key, also used for circuit breaker lookup.
	Name() string

	// Describe produces a textual description of the image.
	Describe(ctx context.Context, image []byte, prompt string) (string, error)
}

// EndpointProvider is implemented by describers that expose their remote
// endpoint for audit logging. The endpoint is stripped of credential
// query parameters before it is ever logged.
type EndpointProvider interface {
	Endpoint() string
}
