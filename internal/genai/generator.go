// Package genai talks to the generative asset service used for dragon
// portraits and evolution cinematics.
package genai

import (
	"context"
)

// ImageSize selects the output resolution for portrait generation.
type ImageSize string

const (
	Size1K ImageSize = "1K"
	Size2K ImageSize = "2K"
	Size4K ImageSize = "4K"
)

// Image is a generated or edited image asset.
type Image struct {
	Data []byte
	MIME string
}

// VideoRequest describes a transformation video: a prompt plus optional
// start and end frames.
type VideoRequest struct {
	Prompt     string
	StartFrame *Image
	EndFrame   *Image
}

// Generator is the capability handle for the generative asset service. The
// engine only sequences calls and reacts to success or failure; it never
// retries on its own.
type Generator interface {
	// GenerateImage renders an image from a text prompt.
	GenerateImage(ctx context.Context, prompt string, size ImageSize) (*Image, error)

	// RemoveBackground returns the subject of img on a transparent
	// background.
	RemoveBackground(ctx context.Context, img *Image) (*Image, error)

	// GenerateVideo starts a video generation operation and polls it to
	// completion, returning the finished video bytes. The wait is unbounded
	// but honors ctx cancellation.
	GenerateVideo(ctx context.Context, req VideoRequest) ([]byte, error)

	// Close releases resources.
	Close()
}

// Ensure Client implements Generator.
var _ Generator = (*Client)(nil)
