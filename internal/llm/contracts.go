package llm

import "context"

// CompletionRequest is one system+user exchange. Schema, when set, is sent
// as a structured-output constraint; callers must still validate locally.
type CompletionRequest struct {
	System     string
	User       string
	SchemaName string
	Schema     map[string]any
}

// Completer is the completion boundary the pipeline depends on.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, req CompletionRequest) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	return f(ctx, req)
}
