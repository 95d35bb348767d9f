// Package realtime implements the websocket client for the hosted
// realtime speech-to-speech API.
//
// Media transport, voice-activity detection, and turn-taking all run on
// the platform side of this connection. The client configures the
// session (instructions, voice, turn detection, tool descriptors),
// surfaces the events the agent cares about (tool calls, transcripts,
// usage, audio), and feeds tool results back into the dialogue.
package realtime

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/azeddinshr/realtime-arabic-voice-agent/internal/log"
)

const (
	// DefaultBaseURL is the production realtime websocket endpoint.
	DefaultBaseURL = "wss://api.openai.com/v1/realtime"

	// DefaultModel is the realtime speech-to-speech model.
	DefaultModel = "gpt-4o-realtime-preview"

	defaultHandshakeTimeout = 30 * time.Second
	defaultReadTimeout      = 5 * time.Minute
)

// Client is a realtime API session over a single websocket connection.
//
// The read loop runs in its own goroutine and fans events out to the
// registered callbacks. Writes are serialized by the mutex. One Client
// serves one conversation session.
type Client struct {
	cfg    Config
	logger log.Logger

	mu         sync.RWMutex
	conn       *websocket.Conn
	connected  bool
	connecting bool
	cancel     context.CancelFunc

	onAudio        func(audio []byte)
	onAudioDone    func()
	onTranscript   func(role, text string, final bool)
	onToolCall     func(callID, name string, args json.RawMessage)
	onUsage        func(Usage)
	onError        func(error)
	onInterruption func()
}

// NewClient creates a realtime client. The API key is required; other
// fields default sensibly.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = defaultHandshakeTimeout
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = defaultReadTimeout
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &Client{
		cfg:    cfg,
		logger: cfg.Logger.With("component", "realtime"),
	}, nil
}

// Connect dials the realtime endpoint and starts the read loop.
func (c *Client) Connect(ctx context.Context) error {
	// Reserve the connecting slot before dialing, so two concurrent
	// Connect calls cannot both dial and leak a connection.
	c.mu.Lock()
	if c.connected || c.connecting {
		c.mu.Unlock()
		return ErrAlreadyConnected
	}
	c.connecting = true
	c.mu.Unlock()

	url := fmt.Sprintf("%s?model=%s", c.cfg.BaseURL, c.cfg.Model)

	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+c.cfg.APIKey)
	headers.Set("OpenAI-Beta", "realtime=v1")

	dialer := websocket.Dialer{HandshakeTimeout: c.cfg.HandshakeTimeout}

	c.logger.Info("connecting to realtime API", "model", c.cfg.Model)

	conn, resp, err := dialer.DialContext(ctx, url, headers)
	if err != nil {
		c.mu.Lock()
		c.connecting = false
		c.mu.Unlock()
		if resp != nil {
			return &APIError{StatusCode: resp.StatusCode, Message: err.Error()}
		}
		return fmt.Errorf("dialing realtime API: %w", err)
	}

	readCtx, cancel := context.WithCancel(context.Background())

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.connecting = false
	c.cancel = cancel
	c.mu.Unlock()

	go c.readLoop(readCtx)

	c.logger.Info("connected to realtime API")
	return nil
}

// Close gracefully closes the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return nil
	}

	if c.cancel != nil {
		c.cancel()
	}
	if c.conn != nil {
		deadline := time.Now().Add(time.Second)
		_ = c.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			deadline,
		)
		_ = c.conn.Close()
		c.conn = nil
	}

	c.connected = false
	c.logger.Info("disconnected from realtime API")
	return nil
}

// IsConnected reports whether the websocket is up.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// ConfigureSession sends a session.update with instructions, voice,
// turn-detection configuration, and the tool descriptors.
func (c *Client) ConfigureSession(opts SessionOptions) error {
	modalities := opts.Modalities
	if len(modalities) == 0 {
		modalities = []string{"text", "audio"}
	}

	apiTools := make([]map[string]any, 0, len(opts.Tools))
	for _, tool := range opts.Tools {
		apiTools = append(apiTools, map[string]any{
			"type":        "function",
			"name":        tool.Name,
			"description": tool.Description,
			"parameters":  tool.Parameters,
		})
	}

	session := map[string]any{
		"modalities":   modalities,
		"instructions": opts.Instructions,
		"voice":        opts.Voice,
		"tools":        apiTools,
		"tool_choice":  "auto",
	}

	if td := opts.TurnDetection; td != nil {
		detection := map[string]any{
			"type":               td.Type,
			"interrupt_response": td.InterruptResponse,
		}
		if td.Eagerness != "" {
			detection["eagerness"] = td.Eagerness
		}
		session["turn_detection"] = detection
	}

	return c.writeJSON(map[string]any{
		"type":    "session.update",
		"session": session,
	})
}

// CreateResponse asks the model to produce a reply now, optionally with
// one-off instructions. Used for the opening greeting, where the user
// has not spoken yet.
func (c *Client) CreateResponse(instructions string) error {
	msg := map[string]any{"type": "response.create"}
	if instructions != "" {
		msg["response"] = map[string]any{"instructions": instructions}
	}
	return c.writeJSON(msg)
}

// SendAudio forwards one chunk of caller audio to the session.
func (c *Client) SendAudio(audio []byte) error {
	return c.writeJSON(map[string]any{
		"type":  "input_audio_buffer.append",
		"audio": base64.StdEncoding.EncodeToString(audio),
	})
}

// SubmitToolResult feeds a tool's display-ready text back into the
// conversation and asks for a continuation.
func (c *Client) SubmitToolResult(callID, result string) error {
	err := c.writeJSON(map[string]any{
		"type": "conversation.item.create",
		"item": map[string]any{
			"type":    "function_call_output",
			"call_id": callID,
			"output":  result,
		},
	})
	if err != nil {
		return err
	}

	if err := c.writeJSON(map[string]any{"type": "response.create"}); err != nil {
		return err
	}

	c.logger.Debug("submitted tool result", "call_id", callID, "result_len", len(result))
	return nil
}

// Callback registration. Set these before Connect; they are invoked from
// the read loop goroutine.

// OnAudio sets the audio-delta callback for the transport host.
func (c *Client) OnAudio(fn func(audio []byte)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onAudio = fn
}

// OnAudioDone sets the end-of-audio callback.
func (c *Client) OnAudioDone(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onAudioDone = fn
}

// OnTranscript sets the transcript callback.
func (c *Client) OnTranscript(fn func(role, text string, final bool)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onTranscript = fn
}

// OnToolCall sets the tool-call callback. The handler receives the raw
// argument object and is responsible for submitting the result.
func (c *Client) OnToolCall(fn func(callID, name string, args json.RawMessage)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onToolCall = fn
}

// OnUsage sets the per-response usage callback.
func (c *Client) OnUsage(fn func(Usage)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUsage = fn
}

// OnError sets the error callback.
func (c *Client) OnError(fn func(error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onError = fn
}

// OnInterruption sets the callback fired when the caller starts speaking.
func (c *Client) OnInterruption(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onInterruption = fn
}

func (c *Client) writeJSON(msg any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected || c.conn == nil {
		return ErrNotConnected
	}
	if err := c.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("realtime write: %w", err)
	}
	return nil
}

// readLoop pumps events off the connection until it closes.
func (c *Client) readLoop(ctx context.Context) {
	defer func() {
		c.mu.Lock()
		c.connected = false
		c.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		c.mu.RLock()
		conn := c.conn
		c.mu.RUnlock()
		if conn == nil {
			return
		}

		_ = conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))

		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Info("connection closed normally")
				return
			}
			select {
			case <-ctx.Done():
				return
			default:
			}
			c.logger.Error("read error", "error", err)
			c.emitError(fmt.Errorf("realtime read: %w", err))
			return
		}

		var ev serverEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			c.logger.Warn("failed to parse event", "error", err)
			continue
		}

		c.handleEvent(ev)
	}
}

func (c *Client) handleEvent(ev serverEvent) {
	c.mu.RLock()
	onAudio := c.onAudio
	onAudioDone := c.onAudioDone
	onTranscript := c.onTranscript
	onToolCall := c.onToolCall
	onUsage := c.onUsage
	onInterruption := c.onInterruption
	c.mu.RUnlock()

	switch ev.Type {
	case "session.created":
		c.logger.Info("session created")

	case "session.updated":
		c.logger.Debug("session updated")

	case "input_audio_buffer.speech_started":
		c.logger.Debug("speech started")
		if onInterruption != nil {
			onInterruption()
		}

	case "conversation.item.input_audio_transcription.completed":
		if onTranscript != nil && ev.Transcript != "" {
			onTranscript("user", ev.Transcript, true)
		}

	case "response.audio.delta":
		if onAudio != nil {
			if audio, err := base64.StdEncoding.DecodeString(ev.Delta); err == nil {
				onAudio(audio)
			}
		}

	case "response.audio.done":
		if onAudioDone != nil {
			onAudioDone()
		}

	case "response.audio_transcript.done":
		if onTranscript != nil && ev.Transcript != "" {
			onTranscript("assistant", ev.Transcript, true)
		}

	case "response.function_call_arguments.done":
		c.logger.Info("tool call received", "tool", ev.Name, "call_id", ev.CallID)
		if onToolCall != nil {
			onToolCall(ev.CallID, ev.Name, json.RawMessage(ev.Arguments))
		}

	case "response.done":
		if ev.Response != nil && ev.Response.Usage != nil && onUsage != nil {
			onUsage(ev.Response.Usage.usage())
		}

	case "error":
		if ev.Error != nil {
			c.emitError(&APIError{Code: ev.Error.Code, Message: ev.Error.Message})
		}

	default:
		// Other event types are not interesting to this agent.
	}
}

func (c *Client) emitError(err error) {
	c.mu.RLock()
	fn := c.onError
	c.mu.RUnlock()
	if fn != nil {
		fn(err)
	}
}
