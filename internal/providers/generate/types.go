// Package generate wraps the upstream text-to-image service.
package generate

import "context"

// Request is the normalized payload sent to the generation service.
type Request struct {
	Prompt         string
	AspectRatio    string
	OutputFormat   string
	Quality        int
	NumOutputs     int
	ReferenceImage string
}

// Generator is the contract the worker depends on. Implementations return
// the URL of the generated image; any error is terminal for the job.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}
