// Package llm abstracts the generative model behind a single structured
// output contract. Plan generation, per-section revision, and the
// coherence check all go through Provider; nothing else in bipkit talks
// to a model SDK directly.
package llm

import (
	"context"
	"encoding/json"
)

// Provider sends a prompt to a generative model and returns structured
// JSON. Implementations are safe for concurrent use.
type Provider interface {
	// Generate performs a single request. When req.Schema is set the
	// provider uses its native structured-output mechanism and the
	// returned Content is JSON validated against that schema.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the configured model identifier.
	ModelID() string
}

// Request is one prompt to the model.
type Request struct {
	// System sets the model's role and constraints.
	System string

	// Messages is the conversation. bipkit only ever sends a single
	// user message, but the slice keeps providers generic.
	Messages []Message

	// Schema, when non-nil, is the JSON Schema the output must satisfy.
	Schema *Schema

	// MaxTokens caps the response length.
	MaxTokens int

	// Temperature in [0, 1]; zero value means deterministic.
	Temperature float64
}

// Message is one turn in the conversation.
type Message struct {
	Role    Role
	Content string
}

// Role identifies the message sender.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema names and defines the JSON structure expected from the model.
type Schema struct {
	// Name identifies the schema to the provider (tool name for
	// Anthropic, schema name for OpenAI). Kebab-case.
	Name string

	// Description guides generation; sent to the model.
	Description string

	// Definition is the JSON Schema as a map.
	Definition map[string]any
}

// Response is the model's output.
type Response struct {
	// Content is validated JSON when the request carried a schema,
	// raw text wrapped as JSON otherwise.
	Content json.RawMessage

	// Usage reports token consumption.
	Usage Usage

	// Model is the model that actually served the request.
	Model string

	// StopReason is normalized to "end" or "max_tokens".
	StopReason string
}

// Usage is token accounting for one request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
