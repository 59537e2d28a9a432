package vision

import (
	"context"
	"fmt"
)

// LocalDescriber is the terminal fallback tier: a pure, deterministic,
// locally computed substitute that never fails. Its text is intentionally
// generic; what matters is that a caller always gets a usable answer.
type LocalDescriber struct{}

// NewLocalDescriber creates the terminal fallback describer.
func NewLocalDescriber() *LocalDescriber {
	return &LocalDescriber{}
}

// Name returns the service key for the local tier.
func (d *LocalDescriber) Name() string {
	return "local"
}

// Describe returns a deterministic degraded description. It never returns
// an error.
func (d *LocalDescriber) Describe(_ context.Context, image []byte, _ string) (string, error) {
	if len(image) == 0 {
		return "No image data was provided, so no description is available.", nil
	}
	return fmt.Sprintf(
		"Automatic description is temporarily unavailable. An image of %d bytes was received and will be described once service is restored.",
		len(image)), nil
}
