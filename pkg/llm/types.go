package llm

import "context"

// GenerationParams are the decoding knobs of a single completion call.
// Ranges are validated upstream at the form boundary.
type GenerationParams struct {
	Temperature   float32
	TopP          float32
	TopK          int
	ContextLength int
	OutputFormat  string
}

// GenerationRequest is one composed prompt bound for the backend.
type GenerationRequest struct {
	Model  string
	Prompt string
	Params GenerationParams
}

// GenerationResult carries the single text response and token usage.
type GenerationResult struct {
	Text  string
	Usage map[string]interface{}
}

// Generator describes a text-generation backend. Generate performs
// exactly one round trip with no internal retry; backend errors
// propagate unmodified. ListModels reports the models currently loaded
// so callers can short-circuit before a wasted long-running call.
type Generator interface {
	Generate(ctx context.Context, req GenerationRequest) (GenerationResult, error)
	ListModels(ctx context.Context) (map[string]struct{}, error)
}
