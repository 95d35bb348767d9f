package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/azeddinshr/realtime-arabic-voice-agent/internal/log"
)

// unknownToolReply is spoken when the model invokes a name the registry
// does not know. It should not happen with well-formed descriptors, but
// the never-throwing contract applies to this path too.
const unknownToolReply = "عذراً، لا يمكنني تنفيذ هذا الطلب الآن."

// Registry holds the tools available to a session and dispatches
// invocations by name.
//
// The registry is read-only after construction and keeps no state between
// invocations, so it is safe for concurrent use across sessions. Tool
// selection is entirely the model's job; Invoke only executes what it is
// asked to.
type Registry struct {
	tools  map[string]*Tool
	order  []string
	logger log.Logger
}

// NewRegistry creates a registry containing the given tools.
// Tool names must be unique.
func NewRegistry(logger log.Logger, ts ...*Tool) (*Registry, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	r := &Registry{
		tools:  make(map[string]*Tool, len(ts)),
		logger: logger,
	}
	for _, t := range ts {
		if t == nil {
			return nil, fmt.Errorf("nil tool")
		}
		if _, dup := r.tools[t.Name()]; dup {
			return nil, fmt.Errorf("duplicate tool name %q", t.Name())
		}
		r.tools[t.Name()] = t
		r.order = append(r.order, t.Name())
	}
	return r, nil
}

// Descriptors returns the tool descriptors in registration order.
// The session layer forwards these to the model.
func (r *Registry) Descriptors() []Descriptor {
	ds := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		ds = append(ds, r.tools[name].Descriptor())
	}
	return ds
}

// Lookup returns the named tool.
func (r *Registry) Lookup(name string) (*Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Len returns the number of registered tools.
func (r *Registry) Len() int { return len(r.tools) }

// Invoke runs the named tool with the raw JSON argument object and
// returns display-ready text. It never returns an error and never
// panics: failures are logged here with their cause and degrade to the
// tool's fixed apology, so callers can feed the result straight back
// into the dialogue.
func (r *Registry) Invoke(ctx context.Context, name string, args json.RawMessage) (reply string) {
	tool, ok := r.tools[name]
	if !ok {
		r.logger.Error("unknown tool invoked", "tool", name)
		return unknownToolReply
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("tool panicked", "tool", name, "panic", rec)
			reply = tool.Fallback()
		}
	}()

	r.logger.Info("tool invoked", "tool", name)

	outcome := tool.run(ctx, args)
	switch {
	case outcome.Failed():
		r.logger.Error("tool failed", "tool", name, "kind", outcome.Kind.String(), "error", outcome.Err)
	case outcome.Kind == KindEmpty:
		r.logger.Info("tool returned no results", "tool", name)
	default:
		r.logger.Info("tool succeeded", "tool", name, "reply_len", len(outcome.Text))
	}

	return outcome.Text
}
