// Package gateway talks to the OpenAI-compatible generative API used for
// character artwork and battle narratives.
package gateway

import (
	"context"
	"fmt"
)

// Kind names which generative endpoint failed
type Kind string

const (
	KindImage Kind = "image"
	KindText  Kind = "text"
)

// TextParams are the sampling parameters of a completion request
type TextParams struct {
	Temperature      float64
	MaxTokens        int
	TopP             float64
	FrequencyPenalty float64
	PresencePenalty  float64
}

// Gateway produces images and short texts from prompts
type Gateway interface {
	// GenerateImage returns the URL of one generated image
	GenerateImage(ctx context.Context, prompt string) (string, error)

	// GenerateText returns the first completion for prompt
	GenerateText(ctx context.Context, prompt string, params TextParams) (string, error)
}

// GenerationError is returned when the generative API fails or returns
// an unusable response
type GenerationError struct {
	Kind       Kind
	StatusCode int // 0 for transport or decoding failures
	Retryable  bool
	Err        error
}

func (e *GenerationError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s generation failed (status %d): %v", e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s generation failed: %v", e.Kind, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
