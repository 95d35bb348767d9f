// Package agent wires the tool registry, the realtime session, and the
// usage collector into the Arabic voice assistant.
package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/azeddinshr/realtime-arabic-voice-agent/internal/log"
	"github.com/azeddinshr/realtime-arabic-voice-agent/internal/realtime"
	"github.com/azeddinshr/realtime-arabic-voice-agent/internal/tools"
	"github.com/azeddinshr/realtime-arabic-voice-agent/internal/usage"
)

// Instructions is the assistant's system prompt. It names the three
// tools and routes question types to them.
const Instructions = `
أنت مساعد ذكي يتحدث العربية بطلاقة.
اسمك "مساعد صوتي".

لديك وصول إلى ثلاث أدوات:
1. search_knowledge_base - للبحث في قاعدة المعرفة (تجريبية حالياً)
2. get_current_weather - للحصول على الطقس الحالي لأي مدينة , It very recomended to write the city name in english like "Rabat", "Casablanca", "Beni Mellal"
3. search_web - للبحث على الإنترنت عن معلومات حديثة

استخدم الأداة المناسبة حسب السؤال:
- أسئلة الطقس → get_current_weather
- معلومات حديثة → search_web
- معلومات عامة → search_knowledge_base

كن ودودًا ومحترمًا في ردودك.
`

// greetingInstructions makes the assistant open the conversation with a
// fixed greeting before the caller has said anything.
const greetingInstructions = "أنت تبدأ المحادثة. " +
	"المستخدم لم يتكلم بعد. " +
	"ابدأ بتحية فقط. " +
	"قل بالضبط: السلام عليكم! أنا مساعدك الصوتي. لدي وصول لقاعدة معرفة عربية. كيف يمكنني مساعدتك؟"

// DefaultVoice is the assistant's speech voice.
const DefaultVoice = "alloy"

// Session is the slice of the realtime client the assistant drives.
type Session interface {
	ConfigureSession(opts realtime.SessionOptions) error
	CreateResponse(instructions string) error
	SubmitToolResult(callID, result string) error
	OnToolCall(fn func(callID, name string, args json.RawMessage))
	OnUsage(fn func(realtime.Usage))
	OnTranscript(fn func(role, text string, final bool))
	OnError(fn func(error))
}

// Options tunes the assistant.
type Options struct {
	// Voice overrides DefaultVoice when set.
	Voice string

	// Instructions overrides the built-in system prompt when set.
	Instructions string
}

// Assistant is the voice agent: one session, one registry, one
// usage collector.
type Assistant struct {
	session   Session
	registry  *tools.Registry
	collector *usage.Collector
	logger    log.Logger
	opts      Options
}

// New creates an assistant. Session, registry, collector, and logger
// are all required.
func New(session Session, registry *tools.Registry, collector *usage.Collector, logger log.Logger, opts Options) (*Assistant, error) {
	if session == nil {
		return nil, fmt.Errorf("session is required")
	}
	if registry == nil {
		return nil, fmt.Errorf("registry is required")
	}
	if collector == nil {
		return nil, fmt.Errorf("collector is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if opts.Voice == "" {
		opts.Voice = DefaultVoice
	}
	if opts.Instructions == "" {
		opts.Instructions = Instructions
	}

	return &Assistant{
		session:   session,
		registry:  registry,
		collector: collector,
		logger:    logger.With("component", "agent"),
		opts:      opts,
	}, nil
}

// Start registers callbacks, configures the session, and triggers the
// opening greeting. The ctx bounds tool executions started by the
// session's tool calls.
func (a *Assistant) Start(ctx context.Context) error {
	a.session.OnToolCall(func(callID, name string, args json.RawMessage) {
		go a.handleToolCall(ctx, callID, name, args)
	})

	a.session.OnUsage(func(u realtime.Usage) {
		a.collector.Record(usage.Sample{
			TotalTokens:       u.TotalTokens,
			InputTokens:       u.InputTokens,
			OutputTokens:      u.OutputTokens,
			InputTextTokens:   u.InputTextTokens,
			InputAudioTokens:  u.InputAudioTokens,
			InputCachedTokens: u.InputCachedTokens,
			OutputTextTokens:  u.OutputTextTokens,
			OutputAudioTokens: u.OutputAudioTokens,
		})
	})

	a.session.OnTranscript(func(role, text string, final bool) {
		if final {
			a.logger.Info("transcript", "role", role, "text", text)
		}
	})

	a.session.OnError(func(err error) {
		a.logger.Error("session error", "error", err)
	})

	if err := a.session.ConfigureSession(a.sessionOptions()); err != nil {
		return fmt.Errorf("configuring session: %w", err)
	}

	if err := a.session.CreateResponse(greetingInstructions); err != nil {
		return fmt.Errorf("requesting greeting: %w", err)
	}

	a.logger.Info("assistant started", "tools", a.registry.Len(), "voice", a.opts.Voice)
	return nil
}

// sessionOptions builds the session configuration: text+audio
// modalities, semantic turn detection with low eagerness, and the
// registry's tool descriptors.
func (a *Assistant) sessionOptions() realtime.SessionOptions {
	descriptors := a.registry.Descriptors()

	sessionTools := make([]realtime.Tool, 0, len(descriptors))
	for _, d := range descriptors {
		sessionTools = append(sessionTools, realtime.Tool{
			Name:        d.Name,
			Description: d.Description,
			Parameters:  d.Parameters,
		})
	}

	return realtime.SessionOptions{
		Instructions: a.opts.Instructions,
		Voice:        a.opts.Voice,
		Modalities:   []string{"text", "audio"},
		Tools:        sessionTools,
		TurnDetection: &realtime.TurnDetection{
			Type:              "semantic_vad",
			Eagerness:         "low",
			InterruptResponse: false,
		},
	}
}

func (a *Assistant) handleToolCall(ctx context.Context, callID, name string, args json.RawMessage) {
	reply := a.registry.Invoke(ctx, name, args)

	if err := a.session.SubmitToolResult(callID, reply); err != nil {
		a.logger.Error("failed to submit tool result", "tool", name, "call_id", callID, "error", err)
	}
}

// UsageSummary snapshots the session's aggregate token usage.
func (a *Assistant) UsageSummary() usage.Summary {
	return a.collector.Summary()
}
