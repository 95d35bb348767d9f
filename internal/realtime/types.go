package realtime

import (
	"time"

	"github.com/azeddinshr/realtime-arabic-voice-agent/internal/log"
)

// Tool is a function descriptor advertised to the model in the session
// configuration. Parameters is the JSON schema of the argument object;
// anything that marshals to a JSON schema is accepted.
type Tool struct {
	Name        string
	Description string
	Parameters  any
}

// TurnDetection configures the hosted model's turn-taking behavior.
// Voice-activity detection itself runs on the platform side; the client
// only forwards this configuration.
type TurnDetection struct {
	// Type selects the detector, e.g. "semantic_vad" or "server_vad".
	Type string

	// Eagerness tunes how quickly semantic VAD ends a turn
	// ("low", "medium", "high", "auto").
	Eagerness string

	// InterruptResponse controls whether user speech cuts off an
	// in-progress reply.
	InterruptResponse bool
}

// SessionOptions configures the realtime session.
type SessionOptions struct {
	// Instructions is the system prompt, including the tool-selection
	// policy the model applies each turn.
	Instructions string

	// Voice is the TTS voice name.
	Voice string

	// Modalities lists the output modalities, e.g. ["text", "audio"].
	Modalities []string

	// Tools are the function descriptors available this session.
	Tools []Tool

	// TurnDetection configures turn-taking. Nil keeps the server default.
	TurnDetection *TurnDetection
}

// Usage is the token usage reported for one model response.
type Usage struct {
	TotalTokens       int64 `json:"total_tokens"`
	InputTokens       int64 `json:"input_tokens"`
	OutputTokens      int64 `json:"output_tokens"`
	InputTextTokens   int64 `json:"-"`
	InputAudioTokens  int64 `json:"-"`
	InputCachedTokens int64 `json:"-"`
	OutputTextTokens  int64 `json:"-"`
	OutputAudioTokens int64 `json:"-"`
}

// Config holds the realtime client configuration.
type Config struct {
	// APIKey authenticates against the realtime API.
	APIKey string

	// Model is the realtime model identifier.
	Model string

	// BaseURL overrides the default websocket endpoint. Tests point this
	// at a local server.
	BaseURL string

	// HandshakeTimeout bounds the websocket dial.
	HandshakeTimeout time.Duration

	// ReadTimeout bounds a single read from the connection.
	ReadTimeout time.Duration

	// Logger is the structured logger to use.
	Logger log.Logger
}

// serverEvent is the decoded envelope of one event from the realtime API.
// Only the fields the client reacts to are mapped.
type serverEvent struct {
	Type       string `json:"type"`
	Delta      string `json:"delta"`
	Transcript string `json:"transcript"`
	Name       string `json:"name"`
	CallID     string `json:"call_id"`

	// Arguments arrives as a JSON-encoded string, not an object.
	Arguments string `json:"arguments"`

	Response *struct {
		Usage *usageEvent `json:"usage"`
	} `json:"response"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// usageEvent is the usage block inside a response.done event.
type usageEvent struct {
	TotalTokens       int64 `json:"total_tokens"`
	InputTokens       int64 `json:"input_tokens"`
	OutputTokens      int64 `json:"output_tokens"`
	InputTokenDetails struct {
		TextTokens   int64 `json:"text_tokens"`
		AudioTokens  int64 `json:"audio_tokens"`
		CachedTokens int64 `json:"cached_tokens"`
	} `json:"input_token_details"`
	OutputTokenDetails struct {
		TextTokens  int64 `json:"text_tokens"`
		AudioTokens int64 `json:"audio_tokens"`
	} `json:"output_token_details"`
}

// usage flattens the event into the exported Usage type.
func (u *usageEvent) usage() Usage {
	return Usage{
		TotalTokens:       u.TotalTokens,
		InputTokens:       u.InputTokens,
		OutputTokens:      u.OutputTokens,
		InputTextTokens:   u.InputTokenDetails.TextTokens,
		InputAudioTokens:  u.InputTokenDetails.AudioTokens,
		InputCachedTokens: u.InputTokenDetails.CachedTokens,
		OutputTextTokens:  u.OutputTokenDetails.TextTokens,
		OutputAudioTokens: u.OutputTokenDetails.AudioTokens,
	}
}
