// Package tools implements the retrieval tools the realtime model may
// invoke during a conversation turn, and the registry that dispatches
// tool calls by name.
//
// Every tool is a single-argument, string-returning, never-throwing
// function: any failure degrades into a fixed Arabic apology string so
// the dialogue layer can always speak the return value as-is. Which tool
// (if any) is called for an utterance is decided by the model from the
// natural-language usage policy in each tool's description; the registry
// does no keyword matching of its own.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// Descriptor is the read-only tool metadata exposed to the session layer,
// which forwards it to the model for tool selection.
type Descriptor struct {
	// Name is the machine-invocable identifier.
	Name string

	// Description carries the natural-language usage policy: trigger
	// conditions and explicit exclusions, with Arabic and English examples.
	Description string

	// Parameters is the JSON schema of the single-argument input object.
	Parameters *jsonschema.Schema
}

// Tool pairs a descriptor with its execution logic and degrade fallback.
// Tools are immutable after construction and stateless between calls.
type Tool struct {
	name        string
	description string
	fallback    string
	schema      *jsonschema.Schema

	// run is the type-erased handler. It receives the raw argument object
	// from the model and never returns a Go error.
	run func(ctx context.Context, args json.RawMessage) Outcome
}

// New creates a tool with a typed input handler.
//
// The input type In is decoded from the model's JSON argument object;
// its schema is inferred with jsonschema.For so the descriptor always
// matches what the handler accepts. fallback is the fixed apology used
// when the arguments cannot be decoded or the handler panics.
func New[In any](name, description, fallback string, handler func(context.Context, In) Outcome) (*Tool, error) {
	if name == "" {
		return nil, fmt.Errorf("tool name is required")
	}
	if description == "" {
		return nil, fmt.Errorf("tool description is required")
	}
	if fallback == "" {
		return nil, fmt.Errorf("tool fallback text is required")
	}
	if handler == nil {
		return nil, fmt.Errorf("tool handler is required")
	}

	schema, err := jsonschema.For[In](nil)
	if err != nil {
		return nil, fmt.Errorf("schema for %s: %w", name, err)
	}

	run := func(ctx context.Context, args json.RawMessage) Outcome {
		var input In
		if len(args) > 0 {
			if err := json.Unmarshal(args, &input); err != nil {
				return Malformed(fallback, fmt.Errorf("decoding %s arguments: %w", name, err))
			}
		}
		return handler(ctx, input)
	}

	return &Tool{
		name:        name,
		description: description,
		fallback:    fallback,
		schema:      schema,
		run:         run,
	}, nil
}

// Name returns the tool's machine-invocable identifier.
func (t *Tool) Name() string { return t.name }

// Description returns the tool's usage policy text.
func (t *Tool) Description() string { return t.description }

// Fallback returns the fixed apology used when the tool cannot answer.
func (t *Tool) Fallback() string { return t.fallback }

// Descriptor returns the read-only metadata for this tool.
func (t *Tool) Descriptor() Descriptor {
	return Descriptor{
		Name:        t.name,
		Description: t.description,
		Parameters:  t.schema,
	}
}

// truncate shortens s to at most n runes. Truncation operates on runes,
// not bytes; Arabic content would otherwise be cut mid-codepoint.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
