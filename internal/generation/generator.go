// Package generation wraps the text and vision capable generative backends.
package generation

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrEmptyResponse is returned when the backend answered without any text.
	ErrEmptyResponse = errors.New("empty response received from generation backend")
	// ErrVisionUnavailable is returned by GenerateVision when no vision model is configured.
	ErrVisionUnavailable = errors.New("image analysis is not configured")
)

// BackendError is a failure reported by the backend itself or the transport to it.
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// Generator produces replies for user content.
type Generator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
	GenerateVision(ctx context.Context, prompt string, image []byte) (string, error)
	VisionAvailable() bool
}
